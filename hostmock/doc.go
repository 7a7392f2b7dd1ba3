/*
Package hostmock provides a scripted pretend host for waPC calls.

It is designed for SDK development and wire-level tests where you want to
validate exactly what a component sends to the Beacon host without a real
host running.

Why use hostmock?

  - Validate routing: ensure calls use the expected namespace, capability, and function.
  - Inspect payloads: script a Handler per function to decode and assert contents.
  - Script responses: return custom bytes or simulate failures.
  - Audit traffic: Calls and CallCount expose everything the component sent.

Quick start

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "beacon",
	  ExpectedCapability: "metrics",
	  Handlers: map[string]hostmock.Handler{
	    "record": func(p []byte) ([]byte, error) {
	      // Unmarshal and assert fields here
	      return nil, nil
	    },
	  },
	})

	// Inject into a component under test
	resp, err := m.HostCall("beacon", "metrics", "record", []byte(`{}`))

Behavior

  - If Fail is true and Error is set, HostCall returns that error.
  - If Fail is true and Error is nil, HostCall returns ErrOperationFailed.
  - Otherwise, HostCall enforces ExpectedNamespace/Capability when set, then
    routes to the Handler registered for the function. With no handlers
    configured it returns nil bytes, acting as a sink.
  - Every call is recorded, including failed ones.

Leave fields blank when you want a wildcard; hostmock only enforces values
you set. For a fully behavioral metrics engine, use package engine/mock
instead.
*/
package hostmock
