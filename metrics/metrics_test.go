package metrics

import (
	"errors"
	"testing"

	sdk "github.com/beacon-project/sdk"
	"github.com/beacon-project/sdk/engine/mock"
)

// newTestRegistry wires a registry to an in-memory engine with testing mode
// enabled, so Test* accessors observe fully-applied state.
func newTestRegistry(t *testing.T) (*HostRegistry, *mock.Engine) {
	t.Helper()

	eng := mock.New(mock.Config{})
	r, err := New(Config{HostCall: eng.HostCall})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	r.Dispatcher().SetTestingMode(true)
	t.Cleanup(func() { _ = r.Close() })
	return r, eng
}

func metricData(name string) CommonMetricData {
	return CommonMetricData{
		Category:    "telemetry",
		Name:        name,
		SendInPings: []string{"store1", "store2"},
		Lifetime:    LifetimePing,
	}
}

func TestNew(t *testing.T) {
	hostCall := func(string, string, string, []byte) ([]byte, error) {
		return nil, nil
	}

	tt := []struct {
		name      string
		namespace string
		wantNS    string
	}{
		{
			name:      "custom namespace",
			namespace: "custom",
			wantNS:    "custom",
		},
		{
			name:   "default namespace",
			wantNS: sdk.DefaultNamespace,
		},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(Config{SDKConfig: sdk.RuntimeConfig{Namespace: tc.namespace}, HostCall: hostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			defer func() { _ = r.Close() }()

			if r.runtime.Namespace != tc.wantNS {
				t.Fatalf("namespace mismatch: want %q, got %q", tc.wantNS, r.runtime.Namespace)
			}
		})
	}
}

func TestDescriptorValidation(t *testing.T) {
	r, _ := newTestRegistry(t)

	tt := []struct {
		name    string
		meta    CommonMetricData
		wantErr error
	}{
		{
			name: "valid descriptor",
			meta: metricData("session_id"),
		},
		{
			name: "invalid category",
			meta: CommonMetricData{
				Category:    "Not Valid",
				Name:        "session_id",
				SendInPings: []string{"store1"},
			},
			wantErr: ErrInvalidMetricName,
		},
		{
			name: "invalid name",
			meta: CommonMetricData{
				Category:    "telemetry",
				Name:        "sessionID",
				SendInPings: []string{"store1"},
			},
			wantErr: ErrInvalidMetricName,
		},
		{
			name: "empty name",
			meta: CommonMetricData{
				Category:    "telemetry",
				SendInPings: []string{"store1"},
			},
			wantErr: ErrInvalidMetricName,
		},
		{
			name: "no destination pings",
			meta: CommonMetricData{
				Category: "telemetry",
				Name:     "session_id",
			},
			wantErr: ErrNoDestinationPings,
		},
		{
			name: "empty ping name",
			meta: CommonMetricData{
				Category:    "telemetry",
				Name:        "session_id",
				SendInPings: []string{"store1", ""},
			},
			wantErr: ErrNoDestinationPings,
		},
		{
			name: "invalid lifetime",
			meta: CommonMetricData{
				Category:    "telemetry",
				Name:        "session_id",
				SendInPings: []string{"store1"},
				Lifetime:    Lifetime(42),
			},
			wantErr: ErrInvalidLifetime,
		},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, gotErr := r.NewString(tc.meta)
			if !errors.Is(gotErr, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, gotErr)
			}
		})
	}
}

func TestDisabledMetricsDropRecordings(t *testing.T) {
	r, _ := newTestRegistry(t)

	meta := metricData("dropped")
	meta.Disabled = true

	str, err := r.NewString(meta)
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}
	jwe, err := r.NewJWE(meta)
	if err != nil {
		t.Fatalf("NewJWE returned error: %v", err)
	}
	counter, err := r.NewCounter(meta)
	if err != nil {
		t.Fatalf("NewCounter returned error: %v", err)
	}
	boolean, err := r.NewBoolean(meta)
	if err != nil {
		t.Fatalf("NewBoolean returned error: %v", err)
	}

	str.Set("value")
	jwe.Set("header", "", "iv", "ciphertext", "tag")
	counter.Add()
	boolean.Set(true)

	for _, ping := range meta.SendInPings {
		if str.TestHasValue(ping) {
			t.Fatalf("disabled string metric stored a value in ping %q", ping)
		}
		if jwe.TestHasValue(ping) {
			t.Fatalf("disabled JWE metric stored a value in ping %q", ping)
		}
		if counter.TestHasValue(ping) {
			t.Fatalf("disabled counter metric stored a value in ping %q", ping)
		}
		if boolean.TestHasValue(ping) {
			t.Fatalf("disabled boolean metric stored a value in ping %q", ping)
		}
	}
}

func TestDefaultPingResolution(t *testing.T) {
	r, _ := newTestRegistry(t)

	m, err := r.NewString(metricData("session_id"))
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}

	m.Set("value")

	implicit, err := m.TestGetValue()
	if err != nil {
		t.Fatalf("TestGetValue returned error: %v", err)
	}
	explicit, err := m.TestGetValue("store1")
	if err != nil {
		t.Fatalf("TestGetValue(store1) returned error: %v", err)
	}
	if implicit != explicit {
		t.Fatalf("default ping mismatch: implicit %q, explicit %q", implicit, explicit)
	}
}

func TestAccessorsOutsideTestingModePanicWithoutEngineCall(t *testing.T) {
	eng := mock.New(mock.Config{})
	r, err := New(Config{HostCall: eng.HostCall})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer func() { _ = r.Close() }()

	m, err := r.NewString(metricData("session_id"))
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}

	tt := []struct {
		name string
		call func()
	}{
		{"TestHasValue", func() { m.TestHasValue() }},
		{"TestGetValue", func() { _, _ = m.TestGetValue() }},
		{"TestGetNumRecordedErrors", func() { m.TestGetNumRecordedErrors(ErrorInvalidValue) }},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			panicked := false
			func() {
				defer func() {
					if recover() != nil {
						panicked = true
					}
				}()
				tc.call()
			}()

			if !panicked {
				t.Fatal("accessor did not panic outside testing mode")
			}
		})
	}

	// No test function ever crossed the boundary.
	for _, fn := range []string{"test_has_value", "test_get_value", "test_get_num_errors"} {
		if got := eng.CallCount(fn); got != 0 {
			t.Fatalf("engine saw %d %s calls from a guarded accessor", got, fn)
		}
	}
}

func TestCloseDrainsPendingRecordings(t *testing.T) {
	eng := mock.New(mock.Config{})
	r, err := New(Config{HostCall: eng.HostCall})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	m, err := r.NewString(metricData("session_id"))
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}

	for i := 0; i < 50; i++ {
		m.Set("value")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if got := eng.CallCount("record"); got != 50 {
		t.Fatalf("record call count after Close: want 50, got %d", got)
	}
}
