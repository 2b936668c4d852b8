package runner

import (
	"testing"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/aggregate"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/halt"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/module"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/outcome"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/permute"
	syncer "github.com/MattWindsor91/phenolphthalein/internal/litmus/sync"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/worker"
)

// sbModule is a store-buffering style litmus test: two threads each
// write their own flag then read the other's. x/y are atomic cells
// because both threads touch them concurrently; r0/r1 are thread-local
// non-atomic result registers.
type sbModule struct{}

func (sbModule) Manifest() module.ManifestData {
	return module.ManifestData{
		NThreads:            2,
		AtomicInt32Names:    []string{"x", "y"},
		AtomicInt32Initials: []int32{0, 0},
		Int32Names:          []string{"r0", "r1"},
		Int32Initials:       []int32{0, 0},
	}
}

func (sbModule) Test(tid int, e *env.Env) {
	switch tid {
	case 0:
		e.SetAtomic(0, 1)
		e.SetInt32(1, e.GetAtomic(1))
	case 1:
		e.SetAtomic(1, 1)
		e.SetInt32(0, e.GetAtomic(0))
	}
}

func (sbModule) Check(e *env.Env) bool {
	// SB's classic weak behaviour: both reads observe 0.
	return e.GetInt32(0) == 0 && e.GetInt32(1) == 0
}

func TestRunnerStopsOnIterationCap(t *testing.T) {
	b := Builder{
		Module:       sbModule{},
		SyncNew:      syncer.NewBarrier,
		Permuter:     permute.Static{},
		Check:        worker.CheckEnabled,
		IterationCap: 20,
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	result, err := r.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Total != 20 {
		t.Fatalf("Total = %d, want 20", result.Total)
	}
	if result.HaltType != halt.Exit {
		t.Fatalf("HaltType = %v, want Exit", result.HaltType)
	}
}

func TestRunnerRotatesAndAccumulates(t *testing.T) {
	b := Builder{
		Module:       sbModule{},
		SyncNew:      syncer.NewSpinner,
		Permuter:     permute.Static{},
		Check:        worker.CheckEnabled,
		RotatePeriod: 5,
		IterationCap: 17,
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	result, err := r.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Total != 17 {
		t.Fatalf("Total = %d, want 17", result.Total)
	}
	if result.Rotations < 3 {
		t.Fatalf("Rotations = %d, want at least 3 rotations for a 17-iteration run with period 5", result.Rotations)
	}
}

func TestRunnerExitsOnOutcomePolicy(t *testing.T) {
	// env's atomics are all sequentially consistent, so SB's weak
	// behaviour (both reads 0) is never observed and every state this
	// module produces is rejected: exit-on-rejected must fire at once.
	b := Builder{
		Module:  sbModule{},
		SyncNew: syncer.NewBarrier,
		Check:   worker.CheckEnabled,
		ExitPolicy: aggregate.ExitPolicy{
			Enabled: true,
			On:      outcome.Rejected,
		},
		IterationCap: 10000,
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	result, err := r.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Total == 10000 {
		t.Fatalf("expected the run to stop well before the iteration cap once a rejected state is observed")
	}
}

func TestRunnerCancellation(t *testing.T) {
	b := Builder{
		Module:  sbModule{},
		SyncNew: syncer.NewBarrier,
		Check:   worker.CheckEnabled,
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	r.Cancel()
	result, err := r.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Cancelled {
		t.Fatalf("Result = %+v, want Cancelled", result)
	}
}
