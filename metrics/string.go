package metrics

// String is a metric binding that records a single opaque string value per
// destination ping. Recording overwrites the previous value.
type String struct {
	metricBase
}

// Set records a string value. Disabled metrics drop the value silently; the
// engine truncates oversized values and counts them as invalid_overflow.
func (m *String) Set(value string) {
	m.record(value)
}

// TestHasValue reports whether a value is stored for the ping (default:
// first declared ping). Requires testing mode; drains pending recordings.
func (m *String) TestHasValue(pings ...string) bool {
	return m.testHasValue(pings)
}

// TestGetValue returns the stored value for the ping, or ErrMissingValue
// when nothing was recorded. Requires testing mode; drains pending
// recordings.
func (m *String) TestGetValue(pings ...string) (string, error) {
	return m.testGetValue(pings)
}

// TestGetNumRecordedErrors returns the accumulated error count for the ping.
// Requires testing mode; drains pending recordings.
func (m *String) TestGetNumRecordedErrors(errorType ErrorType, pings ...string) int32 {
	return m.testNumErrors(errorType, pings)
}
