package metrics

import (
	"fmt"

	"github.com/bytedance/sonic"

	sdk "github.com/beacon-project/sdk"
)

// Counter is a metric binding that accumulates a count per destination ping.
type Counter struct {
	metricBase
}

// Add increments the counter, by 1 when no amount is given. Disabled metrics
// drop the increment silently; non-positive amounts are rejected engine-side
// and counted as invalid_value.
func (m *Counter) Add(amount ...int32) {
	n := int32(1)
	if len(amount) > 0 {
		n = amount[0]
	}
	m.record(n)
}

// TestHasValue reports whether a count is stored for the ping (default:
// first declared ping). Requires testing mode; drains pending recordings.
func (m *Counter) TestHasValue(pings ...string) bool {
	return m.testHasValue(pings)
}

// TestGetValue returns the accumulated count for the ping, or
// ErrMissingValue when nothing was recorded. Requires testing mode; drains
// pending recordings.
func (m *Counter) TestGetValue(pings ...string) (int32, error) {
	raw, err := m.testGetValue(pings)
	if err != nil {
		return 0, err
	}

	var count int32
	if err := sonic.Unmarshal([]byte(raw), &count); err != nil {
		return 0, fmt.Errorf("%w: decoding stored count for %s: %s", sdk.ErrHostResponseInvalid, m.meta.identifier(), err)
	}
	return count, nil
}

// TestGetNumRecordedErrors returns the accumulated error count for the ping.
// Requires testing mode; drains pending recordings.
func (m *Counter) TestGetNumRecordedErrors(errorType ErrorType, pings ...string) int32 {
	return m.testNumErrors(errorType, pings)
}
