package metrics

import (
	"fmt"

	"github.com/bytedance/sonic"

	sdk "github.com/beacon-project/sdk"
)

// Boolean is a metric binding that records a single flag per destination
// ping. Recording overwrites the previous value.
type Boolean struct {
	metricBase
}

// Set records a boolean value. Disabled metrics drop the value silently.
func (m *Boolean) Set(value bool) {
	m.record(value)
}

// TestHasValue reports whether a value is stored for the ping (default:
// first declared ping). Requires testing mode; drains pending recordings.
func (m *Boolean) TestHasValue(pings ...string) bool {
	return m.testHasValue(pings)
}

// TestGetValue returns the stored flag for the ping, or ErrMissingValue when
// nothing was recorded. Requires testing mode; drains pending recordings.
func (m *Boolean) TestGetValue(pings ...string) (bool, error) {
	raw, err := m.testGetValue(pings)
	if err != nil {
		return false, err
	}

	var value bool
	if err := sonic.Unmarshal([]byte(raw), &value); err != nil {
		return false, fmt.Errorf("%w: decoding stored flag for %s: %s", sdk.ErrHostResponseInvalid, m.meta.identifier(), err)
	}
	return value, nil
}

// TestGetNumRecordedErrors returns the accumulated error count for the ping.
// Requires testing mode; drains pending recordings.
func (m *Boolean) TestGetNumRecordedErrors(errorType ErrorType, pings ...string) int32 {
	return m.testNumErrors(errorType, pings)
}
