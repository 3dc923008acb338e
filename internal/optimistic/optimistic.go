// ABOUTME: Optimistic boolean toggles with per-mutation rollback
// ABOUTME: Backs like/unlike and follow/unfollow so the UI flips before the server answers

package optimistic

import (
	"context"
	"slices"
	"sync"
)

// State is the visible value of a toggle: whether it is on and the associated counter
type State struct {
	On    bool
	Count int
}

func (s State) flipped() State {
	if s.On {
		return State{On: false, Count: max(s.Count-1, 0)}
	}
	return State{On: true, Count: s.Count + 1}
}

// Mutation is one optimistic flip waiting for the server
type Mutation struct {
	seq uint64
	// Prev is the state to return to if this mutation fails
	Prev State
	// Applied is the state the flip produced
	Applied State
}

// Toggle holds a visible state and the mutations not yet confirmed.
// Safe for concurrent use.
type Toggle struct {
	mu      sync.Mutex
	state   State
	pending []*Mutation
	seq     uint64
}

// NewToggle returns a toggle showing initial
func NewToggle(initial State) *Toggle {
	return &Toggle{state: initial}
}

// State returns the visible state
func (t *Toggle) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Pending returns how many mutations are awaiting a response
func (t *Toggle) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Reset replaces the visible state with server truth. Ignored while mutations are
// pending so a refresh cannot clobber an in-flight flip.
func (t *Toggle) Reset(s State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) > 0 {
		return false
	}
	t.state = s
	return true
}

// Flip applies the opposite state immediately and records the mutation
func (t *Toggle) Flip() *Mutation {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	m := &Mutation{seq: t.seq, Prev: t.state, Applied: t.state.flipped()}
	t.state = m.Applied
	t.pending = append(t.pending, m)
	return m
}

// Settle resolves m. On failure only m's own effect is undone: the newest mutation
// restores its Prev, while a superseded one hands its Prev to its successor so a
// later rollback lands on confirmed state. Returns the visible state.
func (t *Toggle) Settle(m *Mutation, err error) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := slices.Index(t.pending, m)
	if i < 0 {
		return t.state
	}
	newest := i == len(t.pending)-1
	t.pending = slices.Delete(t.pending, i, i+1)

	if err == nil {
		return t.state
	}
	if newest {
		t.state = m.Prev
	} else {
		t.pending[i].Prev = m.Prev
	}
	return t.state
}

// Op is a server call backing one direction of a toggle
type Op func(ctx context.Context) error

// Result reports how a mutation settled
type Result struct {
	Mutation *Mutation
	State    State
	Err      error
}

// Do flips the toggle and runs set when the flip turned it on, unset otherwise.
// The call runs on its own goroutine; the returned channel receives exactly one Result.
func (t *Toggle) Do(ctx context.Context, set, unset Op) <-chan Result {
	m := t.Flip()
	op := unset
	if m.Applied.On {
		op = set
	}

	out := make(chan Result, 1)
	go func() {
		err := op(ctx)
		out <- Result{Mutation: m, State: t.Settle(m, err), Err: err}
	}()
	return out
}

// Group keeps one Toggle per key, such as a post ID or username
type Group[K comparable] struct {
	mu      sync.Mutex
	toggles map[K]*Toggle
}

// NewGroup returns an empty Group
func NewGroup[K comparable]() *Group[K] {
	return &Group[K]{toggles: map[K]*Toggle{}}
}

// Get returns the toggle for k, creating it with initial on first use.
// An existing idle toggle is resynced to initial.
func (g *Group[K]) Get(k K, initial State) *Toggle {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t, ok := g.toggles[k]; ok {
		t.Reset(initial)
		return t
	}
	t := NewToggle(initial)
	g.toggles[k] = t
	return t
}

// Lookup returns the toggle for k if one exists
func (g *Group[K]) Lookup(k K) (*Toggle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.toggles[k]
	return t, ok
}
