package metrics

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/beacon-project/sdk/dispatcher"
	"github.com/beacon-project/sdk/engine"
)

var (
	// ErrInvalidMetricName indicates a category or name that does not match
	// the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// ErrNoDestinationPings indicates a metric declared without any
	// destination ping.
	ErrNoDestinationPings = errors.New("metric requires at least one destination ping")

	// ErrInvalidLifetime indicates an unknown lifetime value.
	ErrInvalidLifetime = errors.New("metric lifetime is invalid")

	// ErrMissingValue is returned by TestGetValue when no value has been
	// recorded for the requested ping.
	ErrMissingValue = errors.New("no value recorded for metric")
)

var (
	// isCategoryValid validates dotted snake_case metric categories.
	isCategoryValid = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)*$`)

	// isNameValid validates snake_case metric names.
	isNameValid = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// ErrorType identifies a class of recording error counted by the engine,
// re-exported for use with TestGetNumRecordedErrors.
type ErrorType = engine.ErrorType

// Recording error classes.
const (
	ErrorInvalidValue    = engine.ErrorInvalidValue
	ErrorInvalidLabel    = engine.ErrorInvalidLabel
	ErrorInvalidState    = engine.ErrorInvalidState
	ErrorInvalidOverflow = engine.ErrorInvalidOverflow
)

// Lifetime controls when the engine clears a metric's stored value.
type Lifetime int

const (
	// LifetimePing clears the value each time its ping is submitted.
	LifetimePing Lifetime = iota

	// LifetimeApplication clears the value on each application start.
	LifetimeApplication

	// LifetimeUser persists the value across runs.
	LifetimeUser
)

// String returns the wire name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case LifetimePing:
		return "ping"
	case LifetimeApplication:
		return "application"
	case LifetimeUser:
		return "user"
	default:
		return ""
	}
}

// CommonMetricData is the descriptor shared by every metric kind. It is
// constructed once and never mutated afterwards; in particular Disabled is
// fixed for the binding's whole lifetime.
type CommonMetricData struct {
	// Category groups related metrics, dotted snake_case.
	Category string

	// Name identifies the metric within its category, snake_case.
	Name string

	// SendInPings lists the destination pings for recorded values. The
	// first entry is the default ping for Test* accessors.
	SendInPings []string

	// Lifetime controls when the engine clears the stored value.
	Lifetime Lifetime

	// Disabled makes every recording call a silent no-op.
	Disabled bool
}

// validate checks the descriptor. Violations are configuration errors and
// must fail before a handle is minted.
func (m CommonMetricData) validate() error {
	if !isCategoryValid.MatchString(m.Category) {
		return fmt.Errorf("%w: category %q", ErrInvalidMetricName, m.Category)
	}
	if !isNameValid.MatchString(m.Name) {
		return fmt.Errorf("%w: name %q", ErrInvalidMetricName, m.Name)
	}
	if len(m.SendInPings) == 0 {
		return fmt.Errorf("%w: %s.%s", ErrNoDestinationPings, m.Category, m.Name)
	}
	for _, ping := range m.SendInPings {
		if ping == "" {
			return fmt.Errorf("%w: %s.%s declares an empty ping name", ErrNoDestinationPings, m.Category, m.Name)
		}
	}
	if m.Lifetime.String() == "" {
		return fmt.Errorf("%w: %s.%s", ErrInvalidLifetime, m.Category, m.Name)
	}
	return nil
}

// identifier returns the metric's full name for error messages.
func (m CommonMetricData) identifier() string {
	return m.Category + "." + m.Name
}

// metricBase holds the state and shared behavior of every binding: the
// non-owning engine handle, the immutable descriptor, and the engine and
// dispatcher clients.
type metricBase struct {
	handle engine.Handle
	meta   CommonMetricData
	engine *engine.Client
	disp   *dispatcher.Dispatcher
}

// pingFor resolves the optional ping argument of a Test* accessor, falling
// back to the first declared destination ping.
func (m *metricBase) pingFor(pings []string) string {
	if len(pings) > 0 {
		return pings[0]
	}
	return m.meta.SendInPings[0]
}

// record gates on the disabled flag and launches the engine mutation on the
// dispatcher. It never blocks and has no failure mode: boundary errors
// inside the task are dropped, data errors are counted engine-side.
func (m *metricBase) record(value any) {
	if m.meta.Disabled {
		return
	}
	m.disp.Launch(func() {
		_ = m.engine.Record(m.handle, value)
	})
}

// testHasValue reports whether a value is stored for the ping, after
// draining pending recordings.
func (m *metricBase) testHasValue(pings []string) bool {
	m.disp.AssertInTestingMode()
	m.disp.BlockOnQueue()

	present, err := m.engine.TestHasValue(m.handle, m.pingFor(pings))
	if err != nil {
		panic(fmt.Sprintf("metrics: %s: %v", m.meta.identifier(), err))
	}
	return present
}

// testGetValue drains pending recordings and returns the serialized stored
// value, or ErrMissingValue when nothing was recorded for the ping.
func (m *metricBase) testGetValue(pings []string) (string, error) {
	m.disp.AssertInTestingMode()
	m.disp.BlockOnQueue()

	ping := m.pingFor(pings)
	present, err := m.engine.TestHasValue(m.handle, ping)
	if err != nil {
		return "", err
	}
	if !present {
		return "", fmt.Errorf("%w: %s in ping %q", ErrMissingValue, m.meta.identifier(), ping)
	}
	return m.engine.TestGetValue(m.handle, ping)
}

// testNumErrors drains pending recordings and returns the accumulated error
// count, so it shares the read-after-write guarantee of the other accessors.
func (m *metricBase) testNumErrors(errorType ErrorType, pings []string) int32 {
	m.disp.AssertInTestingMode()
	m.disp.BlockOnQueue()

	count, err := m.engine.TestGetNumErrors(m.handle, errorType, m.pingFor(pings))
	if err != nil {
		panic(fmt.Sprintf("metrics: %s: %v", m.meta.identifier(), err))
	}
	return count
}
