// Package aggregate implements the histogram of observed final states
// and the decision logic that tells the runner whether to keep going,
// per spec.md §4.A.
package aggregate

import (
	"github.com/pkg/errors"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/outcome"
)

// Entry is one histogram bucket: a state's classification, the
// iteration it was first seen on, and how many times it has occurred.
type Entry struct {
	State     env.State
	Outcome   outcome.Outcome
	Iteration int
	Occurs    int
}

// Decision tells the runner what to do after an observation.
type Decision uint8

const (
	// Continue means keep running iterations.
	Continue Decision = iota
	// StopAccepted means a --check=exit-on-pass condition fired.
	StopAccepted
	// StopRejected means a --check=exit-on-fail condition fired.
	StopRejected
	// StopUnknown means a --check=exit-on-unknown condition fired.
	StopUnknown
)

// stopFor maps an Outcome to the Decision requesting a stop on it.
func stopFor(o outcome.Outcome) Decision {
	switch o {
	case outcome.Accepted:
		return StopAccepted
	case outcome.Rejected:
		return StopRejected
	default:
		return StopUnknown
	}
}

// ExitPolicy configures which, if any, outcome should halt the run
// when first observed.
type ExitPolicy struct {
	// Enabled is false for --check=report and --check=disable (no
	// policy-driven stop is ever requested).
	Enabled bool
	On      outcome.Outcome
}

// Aggregator accumulates a Histogram across a run's iterations.
//
// Per spec.md §4.A, Aggregator is only ever called by the current
// iteration's elected post-barrier leader, and leaders across
// iterations are serialised by the post-barrier itself, so no
// additional locking is needed here — a single goroutine calls
// Observe at a time, by construction of the caller (internal/litmus/worker).
type Aggregator struct {
	entries map[string]*Entry
	total   int
	policy  ExitPolicy
}

// New constructs an empty Aggregator with the given exit policy.
func New(policy ExitPolicy) *Aggregator {
	return &Aggregator{
		entries: make(map[string]*Entry),
		policy:  policy,
	}
}

// Observe records one observation of state with the given outcome,
// classified at the given 1-based iteration number, and returns the
// Decision the runner should act on.
//
// If state was seen before with a different outcome, this is a
// test-contract violation (spec.md §7.3: "check returns inconsistent
// classifications for the same state") and Observe returns a non-nil
// error; the returned Decision is meaningless in that case.
func (a *Aggregator) Observe(state env.State, o outcome.Outcome, iteration int) (Decision, error) {
	key := state.Key()
	entry, ok := a.entries[key]
	if !ok {
		entry = &Entry{State: state, Outcome: o, Iteration: iteration, Occurs: 0}
		a.entries[key] = entry
	} else if entry.Outcome != o {
		return Continue, errors.Errorf(
			"aggregate: inconsistent check result for a previously observed state: first classified %s, now %s",
			entry.Outcome, o,
		)
	}
	entry.Occurs++
	a.total++

	if a.policy.Enabled && o == a.policy.On {
		return stopFor(o), nil
	}
	return Continue, nil
}

// Total returns the number of observations recorded so far. This is
// the value spec.md P1 requires to equal the number of completed
// iterations at the end of a run.
func (a *Aggregator) Total() int { return a.total }

// Entries returns a snapshot slice of every histogram bucket recorded
// so far, in no particular order.
func (a *Aggregator) Entries() []Entry {
	out := make([]Entry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, *e)
	}
	return out
}
