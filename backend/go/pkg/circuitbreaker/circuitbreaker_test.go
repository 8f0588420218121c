package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreaker_Lifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker(2, 2, 10*time.Second)
	b.now = func() time.Time { return now }

	fail := func() error { return errBoom }
	ok := func() error { return nil }

	if err := b.Execute(fail); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("one failure should not open the breaker, state=%s", b.State())
	}
	_ = b.Execute(fail)
	if b.State() != Open {
		t.Fatalf("expected open, got %s", b.State())
	}
	if err := b.Execute(ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(10 * time.Second)
	if b.State() != HalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", b.State())
	}
	_ = b.Execute(ok)
	if b.State() != HalfOpen {
		t.Fatalf("one success should keep half-open, got %s", b.State())
	}
	_ = b.Execute(ok)
	if b.State() != Closed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker(1, 3, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	now = now.Add(time.Second)
	_ = b.Execute(func() error { return errBoom })
	if b.State() != Open {
		t.Fatalf("expected open, got %s", b.State())
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := newBreaker(2, 1, time.Minute)
	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errBoom })
	if b.State() != Closed {
		t.Fatalf("non-consecutive failures should not open, got %s", b.State())
	}
}
