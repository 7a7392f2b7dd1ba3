package metrics

import (
	"github.com/beacon-project/sdk/dispatcher"
	"github.com/beacon-project/sdk/engine"

	sdk "github.com/beacon-project/sdk"
)

// Client defines the metric-binding registry interface.
type Client interface {
	// NewString registers a string metric.
	NewString(meta CommonMetricData) (*String, error)

	// NewJWE registers a JWE metric.
	NewJWE(meta CommonMetricData) (*JWE, error)

	// NewCounter registers a counter metric.
	NewCounter(meta CommonMetricData) (*Counter, error)

	// NewBoolean registers a boolean metric.
	NewBoolean(meta CommonMetricData) (*Boolean, error)

	// NewLabeledString registers a labeled string metric.
	NewLabeledString(meta CommonMetricData) (*LabeledString, error)

	// Close drains pending recordings and releases the registry.
	Close() error
}

// Config controls how a registry instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sdk.RuntimeConfig

	// HostCall overrides the waPC host function used for engine operations.
	HostCall engine.HostCall

	// Dispatcher overrides the task queue serializing recording operations.
	// If nil, the registry creates and owns one.
	Dispatcher *dispatcher.Dispatcher
}

// HostRegistry is the metric-binding registry implementation. All bindings
// it mints share one engine client and one dispatcher, so every recording in
// the process is serialized through a single worker.
type HostRegistry struct {
	runtime        sdk.RuntimeConfig
	engine         *engine.Client
	disp           *dispatcher.Dispatcher
	ownsDispatcher bool
}

// Ensure HostRegistry satisfies the Client interface at compile time.
var _ Client = (*HostRegistry)(nil)

// New creates a registry with namespace defaults and optional host-call and
// dispatcher overrides.
func New(config Config) (*HostRegistry, error) {
	runtime := config.SDKConfig
	if runtime.Namespace == "" {
		runtime.Namespace = sdk.DefaultNamespace
	}

	eng, err := engine.New(engine.Config{SDKConfig: runtime, HostCall: config.HostCall})
	if err != nil {
		return nil, err
	}

	r := &HostRegistry{
		runtime: runtime,
		engine:  eng,
		disp:    config.Dispatcher,
	}
	if r.disp == nil {
		r.disp = dispatcher.New()
		r.ownsDispatcher = true
	}
	return r, nil
}

// Dispatcher returns the task queue serializing this registry's recordings.
func (r *HostRegistry) Dispatcher() *dispatcher.Dispatcher { return r.disp }

// Close drains pending recordings and, when the registry owns its
// dispatcher, shuts the worker down.
func (r *HostRegistry) Close() error {
	if r.ownsDispatcher {
		r.disp.Shutdown()
		return nil
	}
	r.disp.BlockOnQueue()
	return nil
}

// NewString registers a string metric.
func (r *HostRegistry) NewString(meta CommonMetricData) (*String, error) {
	base, err := r.register(engine.KindString, meta)
	if err != nil {
		return nil, err
	}
	return &String{metricBase: base}, nil
}

// NewJWE registers a JWE metric.
func (r *HostRegistry) NewJWE(meta CommonMetricData) (*JWE, error) {
	base, err := r.register(engine.KindJWE, meta)
	if err != nil {
		return nil, err
	}
	return &JWE{metricBase: base}, nil
}

// NewCounter registers a counter metric.
func (r *HostRegistry) NewCounter(meta CommonMetricData) (*Counter, error) {
	base, err := r.register(engine.KindCounter, meta)
	if err != nil {
		return nil, err
	}
	return &Counter{metricBase: base}, nil
}

// NewBoolean registers a boolean metric.
func (r *HostRegistry) NewBoolean(meta CommonMetricData) (*Boolean, error) {
	base, err := r.register(engine.KindBoolean, meta)
	if err != nil {
		return nil, err
	}
	return &Boolean{metricBase: base}, nil
}

// NewLabeledString registers a labeled string metric whose sub-metrics are
// plain string bindings.
func (r *HostRegistry) NewLabeledString(meta CommonMetricData) (*LabeledString, error) {
	base, err := r.register(engine.KindLabeledString, meta)
	if err != nil {
		return nil, err
	}
	return &LabeledString{metricBase: base}, nil
}

// register validates a descriptor and mints the engine handle. Registration
// happens synchronously, before any recording, so configuration errors fail
// here and never reach the async path.
func (r *HostRegistry) register(kind string, meta CommonMetricData) (metricBase, error) {
	if err := meta.validate(); err != nil {
		return metricBase{}, err
	}

	// Snapshot the ping list so later caller mutations cannot leak into the
	// immutable descriptor.
	meta.SendInPings = append([]string(nil), meta.SendInPings...)

	handle, err := r.engine.Create(engine.CreateRequest{
		Kind:        kind,
		Category:    meta.Category,
		Name:        meta.Name,
		SendInPings: meta.SendInPings,
		Lifetime:    meta.Lifetime.String(),
		Disabled:    meta.Disabled,
	})
	if err != nil {
		return metricBase{}, err
	}

	return metricBase{
		handle: handle,
		meta:   meta,
		engine: r.engine,
		disp:   r.disp,
	}, nil
}
