package clock

import (
	"sync"
	"time"
)

// Clock stamps createdAt/updatedAt on stored records.
type Clock interface {
	Now() time.Time
}

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// NewSystem returns the wall clock in UTC, truncated to microseconds so values
// survive a round trip through Postgres TIMESTAMPTZ unchanged.
func NewSystem() Clock {
	return Func(func() time.Time {
		return time.Now().UTC().Truncate(time.Microsecond)
	})
}

// NewFixed returns a clock that always reports t.
func NewFixed(t time.Time) Clock {
	t = t.UTC()
	return Func(func() time.Time { return t })
}

// Stepper starts at a fixed instant and advances by a fixed step after every read.
type Stepper struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepper returns a Stepper whose first reading is start.
func NewStepper(start time.Time, step time.Duration) *Stepper {
	return &Stepper{next: start.UTC(), step: step}
}

func (s *Stepper) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.next
	s.next = s.next.Add(s.step)
	return now
}
