package metrics

import (
	"errors"
	"testing"
)

func TestCounterAdd(t *testing.T) {
	r, _ := newTestRegistry(t)

	m, err := r.NewCounter(metricData("launches"))
	if err != nil {
		t.Fatalf("NewCounter returned error: %v", err)
	}

	if m.TestHasValue() {
		t.Fatal("fresh counter reports a value")
	}

	m.Add()
	m.Add(5)

	got, err := m.TestGetValue()
	if err != nil {
		t.Fatalf("TestGetValue returned error: %v", err)
	}
	if got != 6 {
		t.Fatalf("count mismatch: want 6, got %d", got)
	}

	// Counts accumulate in every destination ping.
	got, err = m.TestGetValue("store2")
	if err != nil {
		t.Fatalf("TestGetValue(store2) returned error: %v", err)
	}
	if got != 6 {
		t.Fatalf("count mismatch in store2: want 6, got %d", got)
	}
}

func TestCounterRejectsNonPositiveAmounts(t *testing.T) {
	r, _ := newTestRegistry(t)

	m, err := r.NewCounter(metricData("launches"))
	if err != nil {
		t.Fatalf("NewCounter returned error: %v", err)
	}

	m.Add(0)
	m.Add(-7)

	if _, err := m.TestGetValue(); !errors.Is(err, ErrMissingValue) {
		t.Fatalf("expected ErrMissingValue, got %v", err)
	}
	if got := m.TestGetNumRecordedErrors(ErrorInvalidValue); got != 2 {
		t.Fatalf("invalid_value error count: want 2, got %d", got)
	}

	// A valid increment still lands afterwards.
	m.Add(3)
	got, err := m.TestGetValue()
	if err != nil {
		t.Fatalf("TestGetValue returned error: %v", err)
	}
	if got != 3 {
		t.Fatalf("count mismatch: want 3, got %d", got)
	}
}
