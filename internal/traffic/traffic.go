package traffic

import (
	"sync"
	"time"
)

// Tracker maintains sliding windows of per-city enrichment outcomes
// (real-time reading vs static fallback). The health handler uses it to
// report degraded when live data dries up across recent passes. A nil
// *Tracker is valid and records nothing.
type Tracker struct {
	mu            sync.Mutex
	realTimeTimes []time.Time
	staticTimes   []time.Time
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// RecordRealTime records a city served from a live reading.
func (t *Tracker) RecordRealTime() {
	if t == nil {
		return
	}
	t.record(&t.realTimeTimes)
}

// RecordStatic records a city degraded to static fallback.
func (t *Tracker) RecordStatic() {
	if t == nil {
		return
	}
	t.record(&t.staticTimes)
}

// Counts returns (realTime, static) outcome counts within the window.
func (t *Tracker) Counts(window time.Duration) (realTime, static int) {
	if t == nil {
		return 0, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	return countInWindow(t.realTimeTimes, cutoff), countInWindow(t.staticTimes, cutoff)
}

// RealTimePct returns the percentage of outcomes in the window that came
// from live readings, and the total outcome count. With no outcomes the
// percentage is reported as 100 so an idle service is not flagged degraded.
func (t *Tracker) RealTimePct(window time.Duration) (pct, total int) {
	live, static := t.Counts(window)
	total = live + static
	if total == 0 {
		return 100, 0
	}
	return live * 100 / total, total
}

// Reset clears all recorded outcomes. For tests only.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.realTimeTimes = nil
	t.staticTimes = nil
}

func (t *Tracker) record(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

func countInWindow(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops outcomes older than an hour so the slices stay
// bounded between enrichment passes. Must be called with the mutex held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Hour)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&t.realTimeTimes)
	prune(&t.staticTimes)
}
