// Package permute decides the order in which threads are released into
// a given iteration's pre-barrier, per spec.md §4.P. On a perfect
// barrier this order would not matter, but real barriers have
// staggered wake-up, so varying it can surface different weak
// behaviours across iterations.
package permute

import "math/rand/v2"

// Permuter produces, for each iteration, a permutation of [0, n) that
// the runner uses to order thread releases.
type Permuter interface {
	// Permute returns a permutation of [0, n). Implementations may
	// return the same slice contents across calls (Static) or a fresh
	// shuffle each time (Random).
	Permute(n int) []int
}

// Static is the identity permuter: every iteration releases threads in
// tid order. original_source/src/run/permute.rs calls the equivalent
// type Nop.
type Static struct{}

// Permute implements Permuter.
func (Static) Permute(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Random uniformly shuffles [0, n) on every call, using an
// engine-seeded PRNG private to this Permuter (so the PRNG is owned by
// a single goroutine, per spec.md §5's "PRNG inside the Permuter is
// owned by the runner thread").
type Random struct {
	rng *rand.Rand
}

// NewRandom constructs a Random permuter seeded from seed1/seed2. Two
// Random permuters built from the same seed pair produce the same
// sequence of permutations, which is useful for reproducing a run.
func NewRandom(seed1, seed2 uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Permute implements Permuter.
func (r *Random) Permute(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	r.rng.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
