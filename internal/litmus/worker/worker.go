// Package worker implements the per-thread loop a litmus test run
// drives its workers through: synchronise, run the test body,
// synchronise, and — for the one worker elected leader at the
// post-barrier — observe, apply halt policy, and reseed. See
// spec.md §4.W, grounded on original_source/src/run/thread.rs's
// Thread::run/observe/handle_env.
package worker

import (
	"github.com/pkg/errors"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/aggregate"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/halt"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/module"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/outcome"
	syncer "github.com/MattWindsor91/phenolphthalein/internal/litmus/sync"
)

// CheckMode tells the leader whether to actually invoke the module's
// checker, per spec.md §4.R's --check=disable behaviour.
type CheckMode uint8

const (
	// CheckEnabled invokes module.Check and records its real outcome.
	CheckEnabled CheckMode = iota
	// CheckDisabled skips module.Check; the state is still snapshotted
	// and recorded, with outcome.Unknown as a placeholder.
	CheckDisabled
)

// Signal is the shared, epoch-scoped word workers use to tell each
// other (and the runner, once the epoch's goroutines have been
// joined) that a halt was requested and why, or that a worker hit a
// fatal error. It is written exactly once, by whichever worker is
// leader on the iteration that decides to stop, and read by every
// worker at its next pre-barrier wake-up — the same "checked only at
// pre-barrier wake-up" rule spec.md §5 gives for cancellation.
type Signal struct {
	state   chan struct{}
	payload struct {
		halt halt.Type
		err  error
	}
	fired bool
	// iterations counts the epoch's observed iterations. Only the
	// post-barrier leader touches it, and leaders are serialised by the
	// post-barrier, so it needs no locking of its own.
	iterations int
}

// NewSignal constructs an unset Signal.
func NewSignal() *Signal {
	return &Signal{state: make(chan struct{})}
}

// Fire requests a halt of Type t. Only the first call has any effect;
// subsequent calls are no-ops, matching the "exactly one leader per
// phase" discipline that makes only one worker ever call Fire for a
// given epoch.
func (s *Signal) Fire(t halt.Type, err error) {
	if s.fired {
		return
	}
	s.fired = true
	s.payload.halt = t
	s.payload.err = err
	close(s.state)
}

// Check returns whether Fire has been called, and if so, with what.
// Workers call this immediately after returning from a pre-barrier
// wait, before running the test body.
func (s *Signal) Check() (halt.Type, error, bool) {
	select {
	case <-s.state:
		return s.payload.halt, s.payload.err, true
	default:
		return 0, nil, false
	}
}

// Cancellation is an external, engine-lifetime flag the runner uses to
// request a graceful drain. Unlike Signal, it is not scoped to one
// epoch and may be set at any time from outside the worker goroutines.
type Cancellation struct {
	ch chan struct{}
}

// NewCancellation constructs an unset Cancellation.
func NewCancellation() *Cancellation {
	return &Cancellation{ch: make(chan struct{})}
}

// Cancel requests cancellation. Safe to call multiple times.
func (c *Cancellation) Cancel() {
	select {
	case <-c.ch:
	default:
		close(c.ch)
	}
}

// Requested reports whether Cancel has been called.
func (c *Cancellation) Requested() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}

// ReleaseGate orders a round's participants onto the pre-barrier
// according to a permutation, so the runner's configured
// permute.Permuter governs which thread reaches the pre-barrier first
// rather than leaving it to goroutine scheduling. Nil means no
// ordering is imposed.
type ReleaseGate interface {
	Wait(tid int)
}

// Worker drives one test thread through the synchronise-run-
// synchronise-observe cycle until its Signal fires or Cancellation is
// requested.
type Worker struct {
	TID    int
	Handle *env.Handle
	Sync   syncer.Synchroniser
	Module module.Module
	Agg    *aggregate.Aggregator
	Halt   []halt.Condition
	Check  CheckMode
	Signal *Signal
	Cancel *Cancellation
	Gate   ReleaseGate
}

// Outcome is what a Worker's Run reports when it stops.
type Outcome struct {
	// Halt is the halt Type that stopped the epoch, if any worker
	// fired one.
	Halt halt.Type
	// Fatal is set if a worker's observation hit a test-contract
	// violation (spec.md §7.3).
	Fatal error
	// Cancelled is true if the stop was due to external cancellation
	// rather than a halt condition or fatal error.
	Cancelled bool
}

// Run executes the worker's loop until a halt fires, a fatal error is
// observed, or cancellation is requested. Workers must not allocate
// inside the hot portion of this loop (spec.md §4.W) — the snapshot
// buffer and outcome bookkeeping below only run on the elected leader,
// once per iteration, which is the same "only the observer pays for
// bookkeeping" discipline original_source/src/run/sync.rs documents for
// its own Synchroniser::obs.
func (w *Worker) Run() Outcome {
	for {
		if w.Gate != nil {
			w.Gate.Wait(w.TID)
		}
		w.Sync.Wait(w.TID)

		if t, err, fired := w.Signal.Check(); fired {
			return Outcome{Halt: t, Fatal: err}
		}
		if w.Cancel.Requested() {
			return Outcome{Cancelled: true}
		}

		w.Module.Test(w.TID, w.Handle.Env())

		leader := w.Sync.Wait(w.TID)
		if leader {
			w.observe()
		}
	}
}

// observe runs on the elected post-barrier leader only: snapshot,
// classify, record, apply halt policy, and reseed.
func (w *Worker) observe() {
	w.Signal.iterations++

	state := w.Handle.Snapshot()

	var oc outcome.Outcome
	if w.Check == CheckEnabled {
		oc = outcome.FromPassBool(w.Module.Check(w.Handle.Env()))
	} else {
		oc = outcome.Unknown
	}

	decision, err := w.Agg.Observe(state, oc, w.Agg.Total()+1)
	if err != nil {
		w.Signal.Fire(halt.Exit, errors.Wrap(err, "worker: fatal test-contract violation"))
		return
	}

	obs := halt.Observation{Iterations: w.Signal.iterations, Outcome: oc}
	t, fired := halt.Evaluate(w.Halt, obs)
	if decision != aggregate.Continue {
		// A --check=exit-on-* stop from the aggregator is an Exit, which
		// dominates any Rotate the halt conditions requested.
		t, fired = halt.Exit, true
	}
	if fired {
		w.Signal.Fire(t, nil)
		return
	}

	w.Handle.Reset()
}
