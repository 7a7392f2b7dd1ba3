/*
Package sdk provides the shared runtime configuration for the Beacon guest
telemetry SDK.

Beacon metric recording is split across a host boundary: the guest-side
packages in this module validate and marshal recording calls, while the
metrics engine that owns metric storage, validation, and error accounting
lives on the other side of a waPC host call. The root package carries the
pieces every capability client needs: the namespace used to scope host calls,
the sentinel errors for host-call failures, and the process-wide dispatcher
that serializes all recording side effects.
*/
package sdk

import (
	"github.com/beacon-project/sdk/dispatcher"
)

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "beacon"

// Config provides configuration options for SDK initialization.
type Config struct {
	// Namespace controls the namespace used to scope host callbacks.
	// If empty, DefaultNamespace is used.
	Namespace string

	// Dispatcher overrides the task queue that serializes recording
	// operations. If nil, a new dispatcher is created and owned by the SDK.
	Dispatcher *dispatcher.Dispatcher
}

// RuntimeConfig carries configuration that is used during creation of SDK components.
type RuntimeConfig struct {
	// Namespace is the namespace used to scope host interactions.
	Namespace string
}

// SDK represents the initialized runtime: a namespace plus the dispatcher
// shared by every metric binding in the process.
type SDK struct {
	// runtime holds the current runtime configuration snapshot.
	runtime RuntimeConfig

	// dispatcher serializes all recording operations issued through this SDK.
	dispatcher *dispatcher.Dispatcher

	// ownsDispatcher records whether Close should shut the dispatcher down.
	ownsDispatcher bool
}

// New initializes the SDK, creating a dispatcher unless one is provided.
func New(config Config) (*SDK, error) {
	// Create runtime configuration with defaults
	cfg := RuntimeConfig{Namespace: DefaultNamespace}

	// Override defaults with provided configuration
	if config.Namespace != "" {
		cfg.Namespace = config.Namespace
	}

	sdk := &SDK{
		runtime:    cfg,
		dispatcher: config.Dispatcher,
	}

	if sdk.dispatcher == nil {
		sdk.dispatcher = dispatcher.New()
		sdk.ownsDispatcher = true
	}

	return sdk, nil
}

// Config returns the current runtime configuration snapshot.
func (s *SDK) Config() RuntimeConfig { return s.runtime }

// Dispatcher returns the task queue serializing this SDK's recording operations.
func (s *SDK) Dispatcher() *dispatcher.Dispatcher { return s.dispatcher }

// EnableTestingMode switches the dispatcher into testing mode, unlocking the
// synchronous Test* accessors on metric bindings. Intended for test setup only.
func (s *SDK) EnableTestingMode() { s.dispatcher.SetTestingMode(true) }

// Close drains pending recording operations and, when the SDK owns its
// dispatcher, shuts the worker down. Recording calls issued after Close are
// dropped.
func (s *SDK) Close() error {
	if s.ownsDispatcher {
		s.dispatcher.Shutdown()
		return nil
	}
	s.dispatcher.BlockOnQueue()
	return nil
}
