package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
	NewTicker(d time.Duration) clockwork.Ticker
}

// Cancel stops a scheduled callback. It is safe to call more than once.
// It does not wait for a callback that has already started running.
type Cancel func()

// Scheduler supplies one-shot and periodic callbacks in some notion of time.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Cancel
	Every(d time.Duration, fn func()) Cancel
}

// ClockScheduler runs callbacks off clockwork timers, one goroutine per callback.
type ClockScheduler struct {
	clock Clock
}

// NewScheduler creates a scheduler on top of the given clock.
func NewScheduler(clock Clock) *ClockScheduler {
	return &ClockScheduler{clock: clock}
}

// NewRealScheduler creates a scheduler driven by wall-clock time.
func NewRealScheduler() *ClockScheduler {
	return NewScheduler(clockwork.NewRealClock())
}

// Now returns the current time of the underlying clock.
func (s *ClockScheduler) Now() time.Time {
	return s.clock.Now()
}

// After runs fn once, d from now, unless cancelled first.
func (s *ClockScheduler) After(d time.Duration, fn func()) Cancel {
	timer := s.clock.NewTimer(d)
	done := make(chan struct{})

	go func() {
		select {
		case <-timer.Chan():
			// Cancel may have raced the timer; prefer cancellation.
			select {
			case <-done:
				return
			default:
			}
			fn()
		case <-done:
			stopAndDrainTimer(timer)
		}
	}()

	return closeOnce(done)
}

// Every runs fn each period d until cancelled. d must be positive.
func (s *ClockScheduler) Every(d time.Duration, fn func()) Cancel {
	ticker := s.clock.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				select {
				case <-done:
					return
				default:
				}
				fn()
			case <-done:
				return
			}
		}
	}()

	return closeOnce(done)
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func closeOnce(done chan struct{}) Cancel {
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
