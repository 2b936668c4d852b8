// Package builtin provides the in-process litmus test modules shipped
// with the engine: the store-buffering scenario and the single-thread
// reseed scenario spec.md §8 names as seeds for the test suite, plus
// two check-policy exercisers. They are registered into a
// module.Registry so the CLI and the engine's own tests can reach them
// without shelling out to `go build -buildmode=plugin` (spec.md's
// out-of-scope dynamic-library loading is exactly what this in-process
// path sidesteps).
package builtin

import (
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/env"
	"github.com/MattWindsor91/phenolphthalein/internal/litmus/module"
)

// Registry returns a module.Registry pre-populated with every
// built-in test module, under the names used by --module=builtin:NAME.
func Registry() *module.Registry {
	r := module.NewRegistry()
	r.Register("sb", sbModule{})
	r.Register("reseed", reseedModule{})
	r.Register("always-pass", alwaysModule{verdict: true})
	r.Register("always-fail", alwaysModule{verdict: false})
	return r
}

// sbModule is the classic store-buffering litmus test from spec.md
// §8.1: two threads each write their own flag then read the other's;
// the weak behaviour is both reads observing 0.
//
// Cell layout: atomic 0=x, 1=y (touched by both threads, so they must
// be genuine atomics — two goroutines racing on a plain non-atomic
// int32 would be a real Go memory-model data race, not merely an
// unexposed weak behaviour); non-atomic 0=0:r0, 1=1:r0 (thread-local
// result registers, never touched by more than one thread).
type sbModule struct{}

func (sbModule) Manifest() module.ManifestData {
	return module.ManifestData{
		NThreads:            2,
		AtomicInt32Names:    []string{"x", "y"},
		AtomicInt32Initials: []int32{0, 0},
		Int32Names:          []string{"0:r0", "1:r0"},
		Int32Initials:       []int32{0, 0},
	}
}

func (sbModule) Test(tid int, e *env.Env) {
	switch tid {
	case 0:
		e.SetAtomic(0, 1)
		e.SetInt32(0, e.GetAtomic(1))
	case 1:
		e.SetAtomic(1, 1)
		e.SetInt32(1, e.GetAtomic(0))
	}
}

func (sbModule) Check(e *env.Env) bool {
	x, y := e.GetAtomic(0), e.GetAtomic(1)
	r0, r1 := e.GetInt32(0), e.GetInt32(1)
	if x != 1 || y != 1 {
		return false
	}
	switch {
	case r0 == 0 && r1 == 0:
		return true
	case r0 == 0 && r1 == 1:
		return true
	case r0 == 1 && r1 == 0:
		return true
	default:
		return false
	}
}

// reseedModule is spec.md §8.4's single-thread reseed test: one
// atomic cell x, initially 42, incremented once per iteration; check
// accepts only x == 43, which holds iff the environment was correctly
// reseeded to 42 before every iteration (P2).
type reseedModule struct{}

func (reseedModule) Manifest() module.ManifestData {
	return module.ManifestData{
		NThreads:            1,
		AtomicInt32Names:    []string{"x"},
		AtomicInt32Initials: []int32{42},
	}
}

func (reseedModule) Test(_ int, e *env.Env) {
	e.SetAtomic(0, e.GetAtomic(0)+1)
}

func (reseedModule) Check(e *env.Env) bool {
	return e.GetAtomic(0) == 43
}

// alwaysModule is a trivial single-cell, single-thread test whose
// Check always returns the configured verdict, used to exercise
// --check=exit-on-* policy termination (spec.md §8 scenarios 2 and 3)
// without any real concurrency scenario getting in the way.
type alwaysModule struct {
	verdict bool
}

func (alwaysModule) Manifest() module.ManifestData {
	return module.ManifestData{
		NThreads:      1,
		Int32Names:    []string{"tick"},
		Int32Initials: []int32{0},
	}
}

func (alwaysModule) Test(_ int, e *env.Env) {
	e.SetInt32(0, e.GetInt32(0)+1)
}

func (m alwaysModule) Check(_ *env.Env) bool {
	return m.verdict
}
