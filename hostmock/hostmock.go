package hostmock

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when the function is not as expected.
	ErrUnexpectedFunction = errors.New("unexpected function")

	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")
)

// Call records a single host call observed by the mock.
type Call struct {
	Namespace  string
	Capability string
	Function   string
	Payload    []byte
}

// Handler scripts the behavior of one host function: it may validate the
// payload and returns the response bytes.
type Handler func(payload []byte) ([]byte, error)

// Mock simulates a host call interface with validation, per-function
// scripted responses, and call recording. Safe for concurrent use.
type Mock struct {
	// ExpectedNamespace defines the namespace expected in the host call.
	// Empty acts as a wildcard.
	ExpectedNamespace string

	// ExpectedCapability defines the capability expected in the host call.
	// Empty acts as a wildcard.
	ExpectedCapability string

	// Handlers routes calls by function name. When non-empty, a call to a
	// function without a handler fails with ErrUnexpectedFunction.
	Handlers map[string]Handler

	// Error is the error to return if the mock is configured to fail.
	Error error

	// Fail indicates whether the mock should return an error for every call.
	Fail bool

	mu    sync.Mutex
	calls []Call
}

// Config represents the configuration for creating a Mock instance.
type Config struct {
	// ExpectedNamespace defines the namespace expected in the host call.
	ExpectedNamespace string

	// ExpectedCapability defines the capability expected in the host call.
	ExpectedCapability string

	// Handlers routes calls by function name.
	Handlers map[string]Handler

	// Error is the error to return if the mock is configured to fail.
	Error error

	// Fail indicates whether the mock should return an error.
	Fail bool
}

// New creates a new instance of the Mock based on the provided Config.
func New(config Config) (*Mock, error) {
	return &Mock{
		ExpectedNamespace:  config.ExpectedNamespace,
		ExpectedCapability: config.ExpectedCapability,
		Handlers:           config.Handlers,
		Error:              config.Error,
		Fail:               config.Fail,
	}, nil
}

// HostCall simulates a host call, validating routing, recording the call, and
// returning the scripted response or error.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Namespace:  namespace,
		Capability: capability,
		Function:   function,
		Payload:    payload,
	})
	m.mu.Unlock()

	// Return user-defined error if Fail is set
	if m.Fail && m.Error != nil {
		return nil, m.Error
	}

	// Return default error if Fail is set but no custom error is provided
	if m.Fail {
		return nil, ErrOperationFailed
	}

	// Validate namespace
	if m.ExpectedNamespace != "" && m.ExpectedNamespace != namespace {
		return nil, fmt.Errorf(
			"%w: expected namespace %s, got %s",
			ErrUnexpectedNamespace,
			m.ExpectedNamespace,
			namespace,
		)
	}

	// Validate capability
	if m.ExpectedCapability != "" && m.ExpectedCapability != capability {
		return nil, fmt.Errorf(
			"%w: expected capability %s, got %s",
			ErrUnexpectedCapability,
			m.ExpectedCapability,
			capability,
		)
	}

	// Route to a scripted handler when routing is configured
	if len(m.Handlers) > 0 {
		handler, ok := m.Handlers[function]
		if !ok {
			return nil, fmt.Errorf("%w: no handler for function %s", ErrUnexpectedFunction, function)
		}
		return handler(payload)
	}

	// Default to no response
	return nil, nil
}

// Calls returns a copy of every call observed so far.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of calls observed for a function, or the total
// when function is empty.
func (m *Mock) CallCount(function string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if function == "" {
		return len(m.calls)
	}
	n := 0
	for _, c := range m.calls {
		if c.Function == function {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
