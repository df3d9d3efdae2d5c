package core

import (
	"errors"
	"sync"
)

var ErrZeroPeriod = errors.New("tick period must be non-zero")

// SchedTicker is a TickSource driven by the software timer list. The host
// uses it with AdvanceTime/ProcessTimers in place of a hardware timer, and
// firmware can use it on boards where a spare hardware timer is not
// available (at the cost of main-loop jitter).
type SchedTicker struct {
	mu      sync.Mutex
	timer   Timer
	period  uint32
	handler TickHandler
	running bool
	gen     uint32 // bumped on every Start so stale dispatches retire
}

// NewSchedTicker creates a stopped scheduler-backed tick source
func NewSchedTicker() *SchedTicker {
	return &SchedTicker{}
}

// Configure sets the period and handler; the ticker is stopped first
func (s *SchedTicker) Configure(period uint32, handler TickHandler) error {
	if period == 0 {
		return ErrZeroPeriod
	}
	s.Stop()

	s.mu.Lock()
	s.period = period
	s.handler = handler
	s.mu.Unlock()
	return nil
}

// Start arms the first tick one full period from now
func (s *SchedTicker) Start() {
	s.mu.Lock()
	if s.running || s.handler == nil {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.gen++
	gen := s.gen
	s.timer.Next = nil
	s.timer.WakeTime = GetTime() + s.period
	s.timer.Handler = func(t *Timer) uint8 {
		return s.fire(t, gen)
	}
	s.mu.Unlock()

	ScheduleTimer(&s.timer)
}

// Stop cancels any pending tick. Idempotent.
func (s *SchedTicker) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	CancelTimer(&s.timer)
}

// Running reports whether ticks are being delivered
func (s *SchedTicker) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Period returns the configured tick period
func (s *SchedTicker) Period() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

func (s *SchedTicker) fire(t *Timer, gen uint32) uint8 {
	s.mu.Lock()
	if !s.running || s.gen != gen {
		s.mu.Unlock()
		return SF_DONE
	}
	handler := s.handler
	s.mu.Unlock()

	handler()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.gen != gen {
		return SF_DONE
	}
	// Advance from the scheduled time, not the dispatch time, so late
	// dispatches do not accumulate drift.
	t.WakeTime += s.period
	return SF_RESCHEDULE
}
