package clock

import (
	"testing"
	"time"
)

func TestStepperAdvancesStrictly(t *testing.T) {
	start := time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)
	s := NewStepper(start, time.Second)
	a, b := s.Now(), s.Now()
	if !a.Equal(start) {
		t.Fatalf("first tick should equal start, got %s", a)
	}
	if !b.After(a) || b.Sub(a) != time.Second {
		t.Fatalf("expected one second step, got %s -> %s", a, b)
	}
}

func TestSystemClockIsUTC(t *testing.T) {
	if loc := System().Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}
