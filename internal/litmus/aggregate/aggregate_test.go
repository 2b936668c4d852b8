package aggregate

import (
	"testing"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/outcome"
)

func stateOf(v int32) env.State {
	return env.State{AtomicInt32: []int32{v}}
}

func TestObserveCountsAndTotal(t *testing.T) {
	a := New(ExitPolicy{})
	for i := 1; i <= 5; i++ {
		if _, err := a.Observe(stateOf(1), outcome.Accepted, i); err != nil {
			t.Fatalf("Observe() error = %v", err)
		}
	}
	if a.Total() != 5 {
		t.Fatalf("Total() = %d, want 5", a.Total())
	}
	entries := a.Entries()
	if len(entries) != 1 || entries[0].Occurs != 5 {
		t.Fatalf("Entries() = %+v, want one entry with Occurs=5", entries)
	}
}

func TestObserveDistinctStates(t *testing.T) {
	a := New(ExitPolicy{})
	a.Observe(stateOf(1), outcome.Accepted, 1)
	a.Observe(stateOf(2), outcome.Rejected, 2)
	a.Observe(stateOf(1), outcome.Accepted, 3)

	if a.Total() != 3 {
		t.Fatalf("Total() = %d, want 3", a.Total())
	}
	if len(a.Entries()) != 2 {
		t.Fatalf("Entries() has %d buckets, want 2", len(a.Entries()))
	}
}

func TestObserveInconsistentOutcomeIsFatal(t *testing.T) {
	a := New(ExitPolicy{})
	if _, err := a.Observe(stateOf(1), outcome.Accepted, 1); err != nil {
		t.Fatalf("first Observe() error = %v", err)
	}
	if _, err := a.Observe(stateOf(1), outcome.Rejected, 2); err == nil {
		t.Fatalf("inconsistent outcome for the same state should error")
	}
}

func TestExitPolicyStopsOnMatchingOutcome(t *testing.T) {
	a := New(ExitPolicy{Enabled: true, On: outcome.Rejected})

	d, err := a.Observe(stateOf(1), outcome.Accepted, 1)
	if err != nil || d != Continue {
		t.Fatalf("Observe(Accepted) = (%v,%v), want (Continue,nil)", d, err)
	}

	d, err = a.Observe(stateOf(2), outcome.Rejected, 2)
	if err != nil || d != StopRejected {
		t.Fatalf("Observe(Rejected) = (%v,%v), want (StopRejected,nil)", d, err)
	}
}

func TestExitPolicyDisabledNeverStops(t *testing.T) {
	a := New(ExitPolicy{})
	for _, o := range outcome.All() {
		d, err := a.Observe(stateOf(int32(o)), o, 1)
		if err != nil || d != Continue {
			t.Fatalf("Observe(%v) = (%v,%v), want (Continue,nil)", o, d, err)
		}
	}
}
