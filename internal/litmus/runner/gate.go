package runner

import (
	"sync"

	"github.com/MattWindsor91/phenolphthalein/internal/litmus/permute"
)

// releaseGate orders every round's participants onto the pre-barrier
// according to the runner's permute.Permuter, so which thread gets
// there first is governed by configuration rather than left purely to
// goroutine scheduling (DESIGN.md's resolution of spec.md §9's
// permuter-semantics open question).
type releaseGate struct {
	mu       sync.Mutex
	cond     *sync.Cond
	n        int
	permuter permute.Permuter
	position map[int]int
	released int
}

func newReleaseGate(n int, p permute.Permuter) *releaseGate {
	g := &releaseGate{n: n, permuter: p}
	g.cond = sync.NewCond(&g.mu)
	g.newRound()
	return g
}

func (g *releaseGate) newRound() {
	order := g.permuter.Permute(g.n)
	position := make(map[int]int, g.n)
	for i, tid := range order {
		position[tid] = i
	}
	g.position = position
	g.released = 0
}

// Wait blocks tid until every thread the current round's permutation
// places ahead of it has already called Wait, then lets tid through.
// Every one of the n participants must call Wait exactly once per
// round.
func (g *releaseGate) Wait(tid int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos := g.position[tid]
	for pos != g.released {
		g.cond.Wait()
	}
	g.released++
	if g.released == g.n {
		g.newRound()
	}
	g.cond.Broadcast()
}
