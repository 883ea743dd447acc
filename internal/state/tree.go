// internal/state/tree.go
package state

import (
	"fmt"
	"sync"

	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

/*
 * Attached tree handle.
 *
 * Tree holds the evolving "current" State and the listener set. Nodes never
 * point back at it; leaf mutation goes through the Index (Leaf handles carry an
 * id, not a node-held state reference).
 *
 * Concurrency: the current State is swapped under the mutex, computed from the
 * value it replaces, so concurrent leaf reports serialize into a sequence of
 * discrete transitions and no reader sees a torn tree/statuses/snapshot.
 *
 * Every transition is queued under the same lock. Whichever caller finds no
 * dispatch in progress drains the queue, outside the lock, so listeners see
 * events in transition order and the last event always carries the current
 * State. A caller arriving during a dispatch returns once its State is
 * installed; its event follows on the dispatching goroutine. Listeners may
 * call back into the Tree. A listener removed while a dispatch is in flight
 * is not invoked for the rest of that dispatch.
 */

// Event is delivered to listeners whenever the current State changes.
type Event struct {
	Tree             *Tree
	Snapshot         *eval.Snapshot
	PreviousSnapshot *eval.Snapshot
	Diffs            []eval.Change
	State            *State
}

// Listener receives state replacement events.
type Listener func(Event)

type transition struct {
	ids        []uint64
	prev, next *State
}

// Tree is a Root with an attached, replaceable State.
type Tree struct {
	mu        sync.Mutex
	current   *State
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64

	queue       []transition
	dispatching bool
}

// Attach creates an all-PENDING state for root and binds it.
func Attach(root *tree.Root) (*Tree, error) {
	st, err := New(root)
	if err != nil {
		return nil, err
	}
	return AttachState(st), nil
}

// AttachState binds an existing State, e.g. one restored from a document.
func AttachState(st *State) *Tree {
	return &Tree{current: st, listeners: make(map[uint64]Listener)}
}

// State returns the current container.
func (t *Tree) State() *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Root returns the currently bound root.
func (t *Tree) Root() *tree.Root { return t.State().Root() }

// Status returns the current root status.
func (t *Tree) Status() types.Status { return t.State().Status() }

// Snapshot returns the current snapshot.
func (t *Tree) Snapshot() *eval.Snapshot { return t.State().Snapshot() }

// Diffs returns the changes of the latest transition.
func (t *Tree) Diffs() []eval.Change { return t.State().Diffs() }

func (t *Tree) IsFulfilled() bool { return t.State().IsFulfilled() }
func (t *Tree) IsRejected() bool  { return t.State().IsRejected() }
func (t *Tree) IsPending() bool   { return t.State().IsPending() }

// Subscribe registers fn and returns a function removing it. Calling the
// returned function more than once is harmless.
func (t *Tree) Subscribe(fn Listener) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.order = append(t.order, id)
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.listeners[id]; !ok {
			return
		}
		delete(t.listeners, id)
		for i, v := range t.order {
			if v == id {
				t.order = append(t.order[:i:i], t.order[i+1:]...)
				break
			}
		}
	}
}

// apply computes the next State from the current one, swaps it in and queues
// its event.
func (t *Tree) apply(next func(*State) (*State, error)) error {
	t.mu.Lock()
	prev := t.current
	st, err := next(prev)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if st == prev {
		t.mu.Unlock()
		return nil
	}
	t.current = st
	t.queue = append(t.queue, transition{
		ids:  append([]uint64(nil), t.order...),
		prev: prev,
		next: st,
	})
	if t.dispatching {
		t.mu.Unlock()
		return nil
	}
	t.dispatching = true
	t.mu.Unlock()

	t.dispatch()
	return nil
}

func (t *Tree) dispatch() {
	for {
		t.mu.Lock()
		if len(t.queue) == 0 {
			t.dispatching = false
			t.mu.Unlock()
			return
		}
		tr := t.queue[0]
		t.queue[0] = transition{}
		t.queue = t.queue[1:]
		t.mu.Unlock()

		t.notify(tr.ids, tr.prev, tr.next)
	}
}

func (t *Tree) notify(ids []uint64, prev, next *State) {
	ev := Event{
		Tree:             t,
		Snapshot:         next.Snapshot(),
		PreviousSnapshot: prev.Snapshot(),
		State:            next,
	}
	// Replace may install a state derived from something other than prev.
	if next.PreviousSnapshot() == prev.Snapshot() {
		ev.Diffs = next.Diffs()
	} else {
		ev.Diffs = eval.Diff(prev.Snapshot(), next.Snapshot())
	}
	for _, id := range ids {
		t.mu.Lock()
		fn, ok := t.listeners[id]
		t.mu.Unlock()
		if ok {
			fn(ev)
		}
	}
}

// Replace swaps in st unconditionally (history restore, imports).
func (t *Tree) Replace(st *State) error {
	if st == nil {
		return types.ErrNoState
	}
	return t.apply(func(*State) (*State, error) { return st, nil })
}

// SetStatus assigns status to leaf id.
func (t *Tree) SetStatus(id types.NodeID, status types.Status) error {
	return t.apply(func(s *State) (*State, error) { return s.SetStatus(id, status) })
}

// Update assigns several leaf statuses in one transition.
func (t *Tree) Update(updates map[types.NodeID]types.Status) error {
	return t.apply(func(s *State) (*State, error) { return s.Update(updates) })
}

func (t *Tree) Fulfill(id types.NodeID) error { return t.SetStatus(id, types.StatusPassed) }
func (t *Tree) Reject(id types.NodeID) error  { return t.SetStatus(id, types.StatusFailed) }
func (t *Tree) Reset(id types.NodeID) error   { return t.SetStatus(id, types.StatusPending) }

// Rebind moves the current statuses onto root.
func (t *Tree) Rebind(root *tree.Root) error {
	return t.apply(func(s *State) (*State, error) { return s.Rebind(root) })
}

// Leaf resolves a string selector (id, alias, #tag, @group) to the first
// matching leaf of the current root.
func (t *Tree) Leaf(selector string) (*Leaf, error) {
	leaf, ok := t.Root().FindOne(tree.ParseSelector(selector))
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownNode, selector)
	}
	return &Leaf{tree: t, node: leaf}, nil
}

// Leaves wraps every leaf matching sel.
func (t *Tree) Leaves(sel tree.Selector) []*Leaf {
	found := t.Root().Find(sel)
	out := make([]*Leaf, 0, len(found))
	for _, e := range found {
		out = append(out, &Leaf{tree: t, node: e})
	}
	return out
}

// AllLeaves wraps every leaf of the current root in depth-first order.
func (t *Tree) AllLeaves() []*Leaf {
	return t.Leaves(tree.Where(func(*tree.Expectation) bool { return true }))
}
