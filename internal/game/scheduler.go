package game

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a repeating activity. The zero Handle is never issued.
type Handle uint64

// Scheduler runs callbacks at a fixed cadence. Cancel is idempotent;
// cancelling an unknown or already cancelled handle does nothing.
type Scheduler interface {
	ScheduleRepeating(interval time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// minInterval guards against zero or negative cadences
const minInterval = time.Millisecond

func clampInterval(d time.Duration) time.Duration {
	if d < minInterval {
		return minInterval
	}
	return d
}

// =============================================================================
// TICKER SCHEDULER
// =============================================================================

// TickerScheduler runs each activity on its own goroutine driven by a
// time.Ticker
type TickerScheduler struct {
	mu     sync.Mutex
	next   Handle
	active map[Handle]chan struct{}
}

// NewTickerScheduler creates a real-time scheduler
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{active: make(map[Handle]chan struct{})}
}

// ScheduleRepeating starts calling fn every interval until cancelled
func (s *TickerScheduler) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	interval = clampInterval(interval)

	s.mu.Lock()
	s.next++
	h := s.next
	stop := make(chan struct{})
	s.active[h] = stop
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()

	return h
}

// Cancel stops an activity
func (s *TickerScheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, ok := s.active[h]; ok {
		close(stop)
		delete(s.active, h)
	}
}

// Active returns the number of running activities
func (s *TickerScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// =============================================================================
// MANUAL SCHEDULER
// =============================================================================

type manualEntry struct {
	handle   Handle
	interval time.Duration
	due      time.Duration
	fn       func()
}

// ManualScheduler fires callbacks only when Advance is called. It keeps a
// virtual clock so tests can drive ticks and countdowns deterministically.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	next    Handle
	entries map[Handle]*manualEntry
}

// NewManualScheduler creates a scheduler at virtual time zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{entries: make(map[Handle]*manualEntry)}
}

// ScheduleRepeating registers fn to run every interval of virtual time
func (s *ManualScheduler) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	interval = clampInterval(interval)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	e := &manualEntry{handle: s.next, interval: interval, due: s.now + interval, fn: fn}
	s.entries[e.handle] = e
	return e.handle
}

// Cancel removes an activity
func (s *ManualScheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, h)
}

// Active returns the number of registered activities
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Advance moves virtual time forward by d, firing every callback that falls
// due in order. Callbacks run without the scheduler lock held, so they may
// schedule or cancel.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		e := s.nextDueLocked(target)
		if e == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = e.due
		e.due += e.interval
		fn := e.fn
		s.mu.Unlock()

		fn()
	}
}

func (s *ManualScheduler) nextDueLocked(target time.Duration) *manualEntry {
	due := make([]*manualEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.due <= target {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return nil
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].handle < due[j].handle
	})
	return due[0]
}
