package metrics

import (
	"errors"
	"strings"
	"testing"
)

func TestStringRoundTrip(t *testing.T) {
	r, _ := newTestRegistry(t)

	m, err := r.NewString(metricData("session_id"))
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}

	if m.TestHasValue() {
		t.Fatal("fresh metric reports a value")
	}

	m.Set("aabbccdd")

	for _, ping := range []string{"store1", "store2"} {
		if !m.TestHasValue(ping) {
			t.Fatalf("no value in ping %q", ping)
		}
		got, err := m.TestGetValue(ping)
		if err != nil {
			t.Fatalf("TestGetValue(%q) returned error: %v", ping, err)
		}
		if got != "aabbccdd" {
			t.Fatalf("value mismatch in ping %q: want %q, got %q", ping, "aabbccdd", got)
		}
	}
}

func TestStringOverwrite(t *testing.T) {
	r, _ := newTestRegistry(t)

	m, err := r.NewString(metricData("session_id"))
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}

	// Later recordings always win, regardless of timing: the queue is FIFO.
	for i := 0; i < 100; i++ {
		m.Set("first")
		m.Set("second")
	}

	got, err := m.TestGetValue()
	if err != nil {
		t.Fatalf("TestGetValue returned error: %v", err)
	}
	if got != "second" {
		t.Fatalf("overwrite mismatch: want %q, got %q", "second", got)
	}
}

func TestStringMissingValue(t *testing.T) {
	r, _ := newTestRegistry(t)

	m, err := r.NewString(metricData("session_id"))
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}

	for _, ping := range []string{"store1", "store2", "unrelated"} {
		if _, err := m.TestGetValue(ping); !errors.Is(err, ErrMissingValue) {
			t.Fatalf("ping %q: expected ErrMissingValue, got %v", ping, err)
		}
	}
}

func TestStringTruncationCountsError(t *testing.T) {
	r, _ := newTestRegistry(t)

	m, err := r.NewString(metricData("session_id"))
	if err != nil {
		t.Fatalf("NewString returned error: %v", err)
	}

	if got := m.TestGetNumRecordedErrors(ErrorInvalidOverflow); got != 0 {
		t.Fatalf("fresh metric reports %d errors", got)
	}

	long := strings.Repeat("a", 120)
	m.Set(long)

	got, err := m.TestGetValue()
	if err != nil {
		t.Fatalf("TestGetValue returned error: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("truncated length mismatch: want 100, got %d", len(got))
	}
	if !strings.HasPrefix(long, got) {
		t.Fatal("truncated value is not a prefix of the input")
	}

	if got := m.TestGetNumRecordedErrors(ErrorInvalidOverflow); got != 1 {
		t.Fatalf("overflow error count: want 1, got %d", got)
	}
	if got := m.TestGetNumRecordedErrors(ErrorInvalidOverflow, "store2"); got != 1 {
		t.Fatalf("overflow error count in store2: want 1, got %d", got)
	}

	// One more coerced recording, one more error.
	m.Set(strings.Repeat("b", 200))
	if got := m.TestGetNumRecordedErrors(ErrorInvalidOverflow); got != 2 {
		t.Fatalf("overflow error count after second set: want 2, got %d", got)
	}
}
