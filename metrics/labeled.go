package metrics

// LabeledString is a metric binding holding a collection of string
// sub-metrics keyed by label. Sub-metric handles are minted by the engine on
// first access and live as long as their parent.
type LabeledString struct {
	metricBase
}

// Get resolves the string binding for a label. Labels must be snake_case of
// at most 30 characters; invalid labels resolve to the engine's __other__
// bucket and count invalid_label against the parent, and the engine caps the
// number of distinct labels, routing the surplus to __other__ as well. The
// returned binding inherits the parent's descriptor, including the disabled
// flag.
func (m *LabeledString) Get(label string) (*String, error) {
	handle, err := m.engine.LabeledGet(m.handle, label)
	if err != nil {
		return nil, err
	}

	return &String{metricBase: metricBase{
		handle: handle,
		meta:   m.meta,
		engine: m.engine,
		disp:   m.disp,
	}}, nil
}

// TestGetNumRecordedErrors returns the accumulated error count for the ping,
// including invalid_label errors from sub-metric lookups. Requires testing
// mode; drains pending recordings.
func (m *LabeledString) TestGetNumRecordedErrors(errorType ErrorType, pings ...string) int32 {
	return m.testNumErrors(errorType, pings)
}
