package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns the wall clock in UTC.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Stepper is a deterministic clock: every Now call returns the current
// instant and then advances it by Step.
type Stepper struct {
	mu   sync.Mutex
	at   time.Time
	Step time.Duration
}

func NewStepper(start time.Time, step time.Duration) *Stepper {
	if step <= 0 {
		step = time.Millisecond
	}
	return &Stepper{at: start.UTC(), Step: step}
}

func (s *Stepper) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.at
	s.at = s.at.Add(s.Step)
	return now
}
