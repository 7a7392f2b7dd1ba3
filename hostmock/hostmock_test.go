package hostmock

import (
	"bytes"
	"errors"
	"testing"
)

func TestHostCallRouting(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name       string
		config     Config
		namespace  string
		capability string
		function   string
		wantErr    error
	}{
		{
			name: "matching call",
			config: Config{
				ExpectedNamespace:  "beacon",
				ExpectedCapability: "metrics",
			},
			namespace:  "beacon",
			capability: "metrics",
			function:   "record",
		},
		{
			name:       "wildcard namespace and capability",
			config:     Config{},
			namespace:  "anything",
			capability: "goes",
			function:   "here",
		},
		{
			name: "namespace mismatch",
			config: Config{
				ExpectedNamespace: "beacon",
			},
			namespace: "other",
			wantErr:   ErrUnexpectedNamespace,
		},
		{
			name: "capability mismatch",
			config: Config{
				ExpectedNamespace:  "beacon",
				ExpectedCapability: "metrics",
			},
			namespace:  "beacon",
			capability: "logging",
			wantErr:    ErrUnexpectedCapability,
		},
		{
			name: "unhandled function",
			config: Config{
				Handlers: map[string]Handler{
					"record": func([]byte) ([]byte, error) { return nil, nil },
				},
			},
			function: "create",
			wantErr:  ErrUnexpectedFunction,
		},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := New(tc.config)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			_, gotErr := mock.HostCall(tc.namespace, tc.capability, tc.function, nil)
			if !errors.Is(gotErr, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, gotErr)
			}
		})
	}
}

func TestHostCallFailModes(t *testing.T) {
	t.Parallel()

	custom := errors.New("custom failure")

	tt := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "fail with custom error",
			config:  Config{Fail: true, Error: custom},
			wantErr: custom,
		},
		{
			name:    "fail with default error",
			config:  Config{Fail: true},
			wantErr: ErrOperationFailed,
		},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := New(tc.config)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			if _, gotErr := mock.HostCall("ns", "cap", "fn", nil); !errors.Is(gotErr, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, gotErr)
			}
		})
	}
}

func TestHandlerResponse(t *testing.T) {
	t.Parallel()

	mock, err := New(Config{
		Handlers: map[string]Handler{
			"echo": func(payload []byte) ([]byte, error) {
				return payload, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	got, err := mock.HostCall("ns", "cap", "echo", []byte("ping"))
	if err != nil {
		t.Fatalf("HostCall returned error: %v", err)
	}
	if !bytes.Equal(got, []byte("ping")) {
		t.Fatalf("response mismatch: want %q got %q", "ping", got)
	}
}

func TestCallRecording(t *testing.T) {
	t.Parallel()

	mock, err := New(Config{Fail: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, _ = mock.HostCall("ns", "cap", "record", []byte("a"))
	_, _ = mock.HostCall("ns", "cap", "record", []byte("b"))
	_, _ = mock.HostCall("ns", "cap", "create", nil)

	if got := mock.CallCount(""); got != 3 {
		t.Fatalf("total call count mismatch: want 3 got %d", got)
	}
	if got := mock.CallCount("record"); got != 2 {
		t.Fatalf("record call count mismatch: want 2 got %d", got)
	}

	calls := mock.Calls()
	if len(calls) != 3 {
		t.Fatalf("calls length mismatch: want 3 got %d", len(calls))
	}
	if calls[0].Function != "record" || !bytes.Equal(calls[0].Payload, []byte("a")) {
		t.Fatalf("first call not recorded in order: %+v", calls[0])
	}

	mock.Reset()
	if got := mock.CallCount(""); got != 0 {
		t.Fatalf("call count after reset: want 0 got %d", got)
	}
}
