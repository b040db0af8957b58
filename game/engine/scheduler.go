package engine

import (
	"sync"
	"time"
)

// Timer is a pending deferred action
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler queues deferred actions until RunPending is called.
// Simulations and tests use it to step the clear delay without sleeping.
// It is safe for concurrent use.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

// manualTimer flags are guarded by the owning scheduler's mu
type manualTimer struct {
	s       *ManualScheduler
	f       func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc queues f
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, f: f, delay: d}
	s.pending = append(s.pending, t)
	return t
}

// Pending returns the number of queued actions that have not been stopped
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

// RunPending fires queued actions that were not stopped, in scheduling order,
// and returns how many ran.
func (s *ManualScheduler) RunPending() int {
	return s.run(false)
}

// RunAll fires every queued action, stopped ones included. It models a timer
// whose callback was already in flight when Stop was called.
func (s *ManualScheduler) RunAll() int {
	return s.run(true)
}

// run marks the due timers fired under mu, then calls them without it so a
// callback may stop or schedule timers itself.
func (s *ManualScheduler) run(includeStopped bool) int {
	s.mu.Lock()
	var due []func()
	for _, t := range s.pending {
		if t.stopped && !includeStopped {
			continue
		}
		t.fired = true
		due = append(due, t.f)
	}
	s.pending = nil
	s.mu.Unlock()

	for _, f := range due {
		f()
	}
	return len(due)
}
