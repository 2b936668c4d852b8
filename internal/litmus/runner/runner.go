// Package runner drives a litmus test through repeated epochs: a
// thread group runs iterations against a shared environment until a
// halt condition fires, at which point the environment is either
// reseeded under a fresh worker group (Rotate) or the run ends
// (Exit). See spec.md §4.R, grounded on
// original_source/src/run/runner.rs's Builder/Runner::run/run_rotation.
package runner

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/aggregate"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/halt"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/manifest"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/module"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/permute"
	syncer "github.com/MattWindsor91/phenolphthalein/internal/litmus/sync"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/worker"
)

// Builder collects the configuration a Runner needs before it can
// start, mirroring the separate construction/validation step
// original_source/src/run/runner.rs's Builder performs before handing
// back a Runner.
type Builder struct {
	Module     module.Module
	SyncNew    syncer.Factory
	Permuter   permute.Permuter
	Check      worker.CheckMode
	ExitPolicy aggregate.ExitPolicy
	// RotatePeriod is the number of iterations per epoch before the
	// environment is reseeded under a fresh worker group; 0 disables
	// rotation (a single epoch runs until Exit or cancellation).
	RotatePeriod int
	// IterationCap, if nonzero, stops the run entirely after this many
	// total iterations (summed across every epoch).
	IterationCap int
}

// Build validates the Builder's configuration and constructs a Runner.
func (b Builder) Build() (*Runner, error) {
	if b.Module == nil {
		return nil, errors.New("runner: Builder.Module is required")
	}
	if b.SyncNew == nil {
		return nil, errors.New("runner: Builder.SyncNew is required")
	}
	m, err := b.Module.Manifest().ToManifest()
	if err != nil {
		return nil, errors.Wrap(err, "runner: invalid module manifest")
	}

	permuter := b.Permuter
	if permuter == nil {
		permuter = permute.Static{}
	}

	conditions := []halt.Condition{}
	if b.RotatePeriod > 0 {
		conditions = append(conditions, halt.EveryN{N: b.RotatePeriod, Type: halt.Rotate})
	}

	return &Runner{
		module:       b.Module,
		manifest:     m,
		syncNew:      b.SyncNew,
		permuter:     permuter,
		check:        b.Check,
		conditions:   conditions,
		iterationCap: b.IterationCap,
		agg:          aggregate.New(b.ExitPolicy),
		cancel:       worker.NewCancellation(),
	}, nil
}

// Runner executes epochs of a litmus test until a halt condition
// fires with Exit, the iteration cap is reached, or the run is
// cancelled.
type Runner struct {
	module       module.Module
	manifest     manifest.Manifest
	syncNew      syncer.Factory
	permuter     permute.Permuter
	check        worker.CheckMode
	conditions   []halt.Condition
	iterationCap int

	agg    *aggregate.Aggregator
	cancel *worker.Cancellation

	mu        sync.Mutex
	rotations int
}

// Cancel requests that the run stop at its next pre-barrier wake-up.
func (r *Runner) Cancel() { r.cancel.Cancel() }

// Result is the outcome of a completed Run.
type Result struct {
	Entries   []aggregate.Entry
	Total     int
	Rotations int
	HaltType  halt.Type
	FatalErr  error
	Cancelled bool
}

// Run drives the runner's epochs to completion and returns the
// accumulated histogram.
func (r *Runner) Run() (Result, error) {
	for {
		conditions := r.conditions
		if r.iterationCap > 0 {
			conditions = append(append([]halt.Condition{}, conditions...),
				halt.EveryN{N: r.iterationCap - r.agg.Total(), Type: halt.Exit})
		}

		outcome, err := r.runEpoch(conditions)
		if err != nil {
			return Result{}, err
		}

		r.mu.Lock()
		r.rotations++
		rotations := r.rotations
		r.mu.Unlock()

		if outcome.Fatal != nil {
			return Result{Entries: r.agg.Entries(), Total: r.agg.Total(), Rotations: rotations, FatalErr: outcome.Fatal}, nil
		}
		if outcome.Cancelled {
			return Result{Entries: r.agg.Entries(), Total: r.agg.Total(), Rotations: rotations, Cancelled: true}, nil
		}
		if outcome.Halt == halt.Exit {
			return Result{Entries: r.agg.Entries(), Total: r.agg.Total(), Rotations: rotations, HaltType: halt.Exit}, nil
		}
		if r.iterationCap > 0 && r.agg.Total() >= r.iterationCap {
			return Result{Entries: r.agg.Entries(), Total: r.agg.Total(), Rotations: rotations, HaltType: halt.Exit}, nil
		}
		// Rotate: loop around and start a fresh epoch.
	}
}

// epochOutcome summarises how one epoch's worker group stopped.
type epochOutcome struct {
	Halt      halt.Type
	Fatal     error
	Cancelled bool
}

func (r *Runner) runEpoch(conditions []halt.Condition) (epochOutcome, error) {
	handle, err := env.New(r.manifest)
	if err != nil {
		return epochOutcome{}, errors.Wrap(err, "runner: allocating epoch environment")
	}
	defer handle.Release()

	n := r.manifest.NThreads
	sc, err := r.syncNew(n)
	if err != nil {
		return epochOutcome{}, errors.Wrap(err, "runner: constructing synchroniser")
	}

	sig := worker.NewSignal()
	gate := newReleaseGate(n, r.permuter)

	workers := make([]*worker.Worker, n)
	for tid := 0; tid < n; tid++ {
		workers[tid] = &worker.Worker{
			TID:    tid,
			Handle: handle.Acquire(),
			Sync:   sc,
			Module: r.module,
			Agg:    r.agg,
			Halt:   conditions,
			Check:  r.check,
			Signal: sig,
			Cancel: r.cancel,
			Gate:   gate,
		}
	}

	outcomes := make([]worker.Outcome, n)
	var g errgroup.Group
	for tid := range workers {
		tid := tid
		g.Go(func() error {
			defer workers[tid].Handle.Release()
			outcomes[tid] = workers[tid].Run()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return epochOutcome{}, errors.Wrap(err, "runner: worker group")
	}

	var result epochOutcome
	for _, o := range outcomes {
		if o.Fatal != nil {
			result.Fatal = o.Fatal
		}
		if o.Cancelled {
			result.Cancelled = true
		}
		if o.Halt > result.Halt {
			result.Halt = o.Halt
		}
	}
	return result, nil
}
