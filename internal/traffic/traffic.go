// Package traffic keeps sliding windows of request outcomes. It is the single
// source for the health handler's error-rate check and the rate-limit gauges.
package traffic

import (
	"sync"
	"time"
)

// Outcome classifies a finished request.
type Outcome int

const (
	Success Outcome = iota
	Failure
	Denied
)

// DefaultRetention bounds how far back any window can look.
const DefaultRetention = 5 * time.Minute

var defaultTracker = NewTracker(DefaultRetention)

// RecordSuccess records a resource request that returned data.
func RecordSuccess() { defaultTracker.Record(Success) }

// RecordError records a resource request that failed in a component.
func RecordError() { defaultTracker.Record(Failure) }

// RecordDenied records a rate-limit denial (429).
func RecordDenied() { defaultTracker.Record(Denied) }

// RequestCount returns success + error + denied within the window.
func RequestCount(window time.Duration) int { return defaultTracker.RequestCount(window) }

// DenialCount returns denials within the window.
func DenialCount(window time.Duration) int { return defaultTracker.Count(Denied, window) }

// ErrorRate returns (errors, successes+errors) within the window.
func ErrorRate(window time.Duration) (errors, total int) { return defaultTracker.ErrorRate(window) }

// Reset clears the process-wide tracker. For tests only.
func Reset() { defaultTracker.Reset() }

type event struct {
	at      time.Time
	outcome Outcome
}

// Tracker records timestamped outcomes in arrival order.
type Tracker struct {
	mu        sync.Mutex
	events    []event
	retention time.Duration
	now       func() time.Time
}

func NewTracker(retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Tracker{retention: retention, now: time.Now}
}

func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.events = append(t.events, event{at: now, outcome: o})
	t.pruneLocked(now)
}

// Count returns the number of o outcomes not older than window.
func (t *Tracker) Count(o Outcome, window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := t.countLocked(window)
	return counts[o]
}

func (t *Tracker) RequestCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := t.countLocked(window)
	return counts[Success] + counts[Failure] + counts[Denied]
}

// ErrorRate excludes denials from the total.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := t.countLocked(window)
	return counts[Failure], counts[Failure] + counts[Success]
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

func (t *Tracker) countLocked(window time.Duration) [3]int {
	var counts [3]int
	cutoff := t.now().Add(-window)
	// events are appended in time order; walk back from the newest.
	for i := len(t.events) - 1; i >= 0; i-- {
		if t.events[i].at.Before(cutoff) {
			break
		}
		counts[t.events[i].outcome]++
	}
	return counts
}

func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.retention)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
