// Package env implements the shared mutable environment a litmus test's
// threads race against: parallel arrays of atomic and non-atomic
// 32-bit signed integer cells, sized and named by a manifest.Manifest.
//
// The environment is handed out through a reference-counted Handle so
// the runner and an observer worker can both hold it across an
// iteration window without either one owning it outright; see Handle
// for the refcounting discipline. The refcount is kept out of the Env
// struct itself — the struct test code actually touches — because
// exposing bookkeeping fields across the test-module boundary risks a
// test treating them as part of its own observable state (spec.md §9,
// "Refcounted shared environment").
package env

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/manifest"
)

// Ordering selects the memory ordering of an atomic access. The test
// module chooses the ordering for each access it makes; the engine
// never chooses one on the test's behalf (spec.md §4.E).
//
// Go's sync/atomic only ever provides sequentially-consistent
// operations — there is no compiler-level relaxed or acquire/release
// atomic in the standard toolchain, unlike C11 or Rust's
// std::sync::atomic. AtomicCell therefore accepts all four Ordering
// values for ABI completeness with the original test-module contract,
// but every one of them currently compiles down to the same
// sequentially-consistent sync/atomic operation; a test asking for
// Relaxed gets at least as strong a guarantee as it asked for, never a
// weaker one.
type Ordering uint8

const (
	Relaxed Ordering = iota
	Acquire
	Release
	SeqCst
)

// AtomicCell is one atomic int32 slot in an Environment.
type AtomicCell struct {
	v atomic.Int32
}

// Load reads the cell's value under the given ordering.
func (c *AtomicCell) Load(_ Ordering) int32 { return c.v.Load() }

// Store writes the cell's value under the given ordering.
func (c *AtomicCell) Store(val int32, _ Ordering) { c.v.Store(val) }

// Env is the structure a test module's dispatcher and checker
// actually see: raw, directly addressable cell arrays and nothing
// else. It carries no refcount, no manifest, and no synchronisation of
// its own — those live in Handle.
type Env struct {
	// AtomicInt32 is the atomic cell array, indexed as the manifest
	// declared it.
	AtomicInt32 []AtomicCell
	// Int32 is the non-atomic cell array, indexed as the manifest
	// declared it.
	Int32 []int32
}

// GetAtomic reads the atomic cell at index i using SeqCst ordering, for
// use outside a running iteration (e.g. diagnostics). Out-of-range
// reads return the zero value rather than panicking, so a
// misbehaving test module cannot crash the engine through a bad index.
func (e *Env) GetAtomic(i int) int32 {
	if i < 0 || i >= len(e.AtomicInt32) {
		return 0
	}
	return e.AtomicInt32[i].Load(SeqCst)
}

// SetAtomic writes the atomic cell at index i, for use outside a
// running iteration. Out-of-range writes are silently ignored.
func (e *Env) SetAtomic(i int, v int32) {
	if i < 0 || i >= len(e.AtomicInt32) {
		return
	}
	e.AtomicInt32[i].Store(v, SeqCst)
}

// GetInt32 reads the non-atomic cell at index i, for use outside a
// running iteration. Out-of-range reads return the zero value.
func (e *Env) GetInt32(i int) int32 {
	if i < 0 || i >= len(e.Int32) {
		return 0
	}
	return e.Int32[i]
}

// SetInt32 writes the non-atomic cell at index i, for use outside a
// running iteration. Out-of-range writes are silently ignored.
func (e *Env) SetInt32(i int, v int32) {
	if i < 0 || i >= len(e.Int32) {
		return
	}
	e.Int32[i] = v
}

// State is a snapshot of every cell's value in an Env, taken at a
// post-barrier. States compare by value and are usable as histogram
// keys via Key.
type State struct {
	AtomicInt32 []int32
	Int32       []int32
}

// Key returns a comparable, hashable encoding of the state suitable
// for use as a Go map key. Two States with equal cell values in equal
// positions always produce equal Keys, and vice versa, because the
// positions are fixed by a single Manifest for the lifetime of a run.
func (s State) Key() string {
	buf := make([]byte, 0, 4*(len(s.AtomicInt32)+len(s.Int32))+1)
	for _, v := range s.AtomicInt32 {
		buf = appendInt32(buf, v)
	}
	buf = append(buf, '|')
	for _, v := range s.Int32 {
		buf = appendInt32(buf, v)
	}
	return string(buf)
}

func appendInt32(buf []byte, v int32) []byte {
	u := uint32(v)
	return append(buf, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

// Handle is a reference-counted, shared handle onto an Env. All
// workers in an epoch share the same Handle; it stays alive for as
// long as any of them (or the runner) holds a reference.
//
// The refcount is a private atomic counter, never a field of Env
// itself — see the package doc comment.
type Handle struct {
	env      *Env
	manifest manifest.Manifest
	refs     *int32
}

// New allocates a fresh Handle sized and seeded according to m. The
// returned Handle starts with a reference count of 1.
func New(m manifest.Manifest) (*Handle, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "env.New: invalid manifest")
	}
	res := m.Reserve()
	e := &Env{
		AtomicInt32: make([]AtomicCell, res.NAtomicInt32),
		Int32:       make([]int32, res.NInt32),
	}
	h := &Handle{
		env:      e,
		manifest: m,
		refs:     new(int32),
	}
	*h.refs = 1
	h.reset()
	return h, nil
}

// Acquire increments the handle's reference count and returns it, so
// the caller can pass the same *Handle to another owner without racing
// the original holder's eventual Release.
func (h *Handle) Acquire() *Handle {
	atomic.AddInt32(h.refs, 1)
	return h
}

// Release decrements the handle's reference count. When it reaches
// zero, the backing cell arrays are dropped so they can be garbage
// collected; further use of the Handle after this point is a bug in
// the caller, matching the "dead at refcount 0" contract of the
// original C environment.
func (h *Handle) Release() {
	if atomic.AddInt32(h.refs, -1) == 0 {
		h.env = nil
	}
}

// Env returns the raw environment struct for use by worker code during
// a running iteration. It is valid only while the Handle has not been
// fully released.
func (h *Handle) Env() *Env { return h.env }

// Manifest returns the manifest this handle's environment was built
// from.
func (h *Handle) Manifest() manifest.Manifest { return h.manifest }

// Reset reseeds every cell to its manifest initial value. Callers must
// ensure no worker is inside a running iteration when calling Reset —
// the invariant in spec.md §3 is that between the post-barrier of
// iteration i and the pre-barrier of iteration i+1, exactly one thread
// (the reseeder) may mutate the environment.
func (h *Handle) Reset() { h.reset() }

func (h *Handle) reset() {
	for i, rec := range h.manifest.AtomicInt32s {
		h.env.AtomicInt32[i].Store(rec.Initial, SeqCst)
	}
	for i, rec := range h.manifest.Int32s {
		h.env.Int32[i] = rec.Initial
	}
}

// Snapshot captures the current value of every cell as a State. Like
// Reset, this must only be called when no worker is inside a running
// iteration (i.e. at a post-barrier, by the elected leader) — it
// allocates two fresh slices per call, which is acceptable since it
// runs once per iteration on the leader rather than inside the hot
// racing section (see DESIGN.md).
func (h *Handle) Snapshot() State {
	s := State{
		AtomicInt32: make([]int32, len(h.env.AtomicInt32)),
		Int32:       make([]int32, len(h.env.Int32)),
	}
	for i := range h.env.AtomicInt32 {
		s.AtomicInt32[i] = h.env.AtomicInt32[i].Load(SeqCst)
	}
	copy(s.Int32, h.env.Int32)
	return s
}

// Named pairs each cell name from the manifest with its value in s,
// atomic cells first, in manifest declaration order. It is used by
// reporting code, never on the hot path.
func (s State) Named(m manifest.Manifest) []NamedValue {
	out := make([]NamedValue, 0, len(s.AtomicInt32)+len(s.Int32))
	for i, rec := range m.AtomicInt32s {
		out = append(out, NamedValue{Name: rec.Name, Value: s.AtomicInt32[i]})
	}
	for i, rec := range m.Int32s {
		out = append(out, NamedValue{Name: rec.Name, Value: s.Int32[i]})
	}
	return out
}

// NamedValue is a single cell's name and observed value.
type NamedValue struct {
	Name  string
	Value int32
}
