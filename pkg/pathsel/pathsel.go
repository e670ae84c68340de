// Package pathsel implements the path selection discipline from
// spec.md §4.5: a work list of unexplored paths whose save/resume
// operations strictly nest with the solver's scope push/pop, so that at
// any moment the solver's active constraints equal those of the single
// running path.
package pathsel

import "github.com/archsymex/symex/pkg/state"

// WorkList is the interface every discipline (DFS, BFS, priority-guided)
// implements. Save and Next MUST preserve push/pop symmetry on each
// path's own solver - see DFS for the canonical implementation.
type WorkList interface {
	// Save enqueues p, pushing its solver's constraint scope by one so
	// the path's asserted constraints stay intact while it is not the
	// active one.
	Save(p *state.Path)
	// Next dequeues a path, popping its solver's constraint scope by
	// one before returning it. ok is false when the work list is empty.
	Next() (p *state.Path, ok bool)
	Len() int
}

// DFS is a LIFO work list: the default discipline spec.md §4.5 names.
type DFS struct {
	stack []*state.Path
}

func NewDFS() *DFS { return &DFS{} }

func (d *DFS) Save(p *state.Path) {
	p.State.Solver.Push(1)
	d.stack = append(d.stack, p)
}

func (d *DFS) Next() (*state.Path, bool) {
	if len(d.stack) == 0 {
		return nil, false
	}
	p := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	p.State.Solver.Pop(1)
	return p, true
}

func (d *DFS) Len() int { return len(d.stack) }

// BFS is a FIFO work list honoring the same push/pop symmetry contract.
type BFS struct {
	queue []*state.Path
}

func NewBFS() *BFS { return &BFS{} }

func (b *BFS) Save(p *state.Path) {
	p.State.Solver.Push(1)
	b.queue = append(b.queue, p)
}

func (b *BFS) Next() (*state.Path, bool) {
	if len(b.queue) == 0 {
		return nil, false
	}
	p := b.queue[0]
	b.queue = b.queue[1:]
	p.State.Solver.Pop(1)
	return p, true
}

func (b *BFS) Len() int { return len(b.queue) }

// Priority is a priority-guided work list: Next always returns the
// highest-scored path (ties broken LIFO). Still preserves push/pop
// symmetry per path.
type Priority struct {
	entries []priorityEntry
	score   func(*state.Path) int
}

type priorityEntry struct {
	path  *state.Path
	score int
}

func NewPriority(score func(*state.Path) int) *Priority {
	return &Priority{score: score}
}

func (p *Priority) Save(path *state.Path) {
	path.State.Solver.Push(1)
	p.entries = append(p.entries, priorityEntry{path: path, score: p.score(path)})
}

func (p *Priority) Next() (*state.Path, bool) {
	if len(p.entries) == 0 {
		return nil, false
	}
	best := len(p.entries) - 1
	for i := len(p.entries) - 1; i >= 0; i-- {
		if p.entries[i].score > p.entries[best].score {
			best = i
		}
	}
	chosen := p.entries[best]
	p.entries = append(p.entries[:best], p.entries[best+1:]...)
	chosen.path.State.Solver.Pop(1)
	return chosen.path, true
}

func (p *Priority) Len() int { return len(p.entries) }
