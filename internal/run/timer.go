package run

import (
	"sync"
	"time"
)

// Timer records how long each pipeline phase took, in the order the
// phases first ran.
type Timer struct {
	mu     sync.Mutex
	order  []string
	phases map[string]time.Duration
}

// PhaseDuration is one named timing in run order.
type PhaseDuration struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

func NewTimer() *Timer {
	return &Timer{phases: make(map[string]time.Duration)}
}

// Phase starts timing a named phase and returns the stop function:
//
//	defer t.Phase("parse")()
func (t *Timer) Phase(name string) func() {
	start := time.Now()
	return func() {
		t.Add(name, time.Since(start))
	}
}

// Add accumulates a duration under name. Repeated phases sum.
func (t *Timer) Add(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.phases[name]; !ok {
		t.order = append(t.order, name)
	}
	t.phases[name] += d
}

// Durations returns the recorded phases in first-run order.
func (t *Timer) Durations() []PhaseDuration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PhaseDuration, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, PhaseDuration{Name: name, Duration: t.phases[name]})
	}
	return out
}

// Total sums all recorded phases.
func (t *Timer) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, d := range t.phases {
		total += d
	}
	return total
}
