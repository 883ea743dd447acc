// internal/state/history.go
package state

import (
	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/tree"
)

// Checkpoint is a restorable view of one State.
type Checkpoint struct {
	Root     *tree.Root
	Statuses eval.StatusMap
	Snapshot *eval.Snapshot
}

// Checkpoint captures s.
func (s *State) Checkpoint() Checkpoint {
	return Checkpoint{Root: s.root, Statuses: s.statuses.Clone(), Snapshot: s.snapshot}
}

// FromCheckpoint rebuilds a State; the snapshot is re-evaluated, not trusted.
func FromCheckpoint(cp Checkpoint) (*State, error) {
	return build(cp.Root, cp.Statuses, nil)
}

// History is an undo/redo log of checkpoints. It is a value: every method
// returns the updated History and leaves the receiver untouched.
type History struct {
	past   []Checkpoint
	future []Checkpoint
}

// NewHistory starts a log at st.
func NewHistory(st *State) History {
	return History{past: []Checkpoint{st.Checkpoint()}}
}

// Record appends st and clears the redo stack.
func (h History) Record(st *State) History {
	past := make([]Checkpoint, len(h.past), len(h.past)+1)
	copy(past, h.past)
	return History{past: append(past, st.Checkpoint())}
}

// CanUndo reports whether an earlier checkpoint exists.
func (h History) CanUndo() bool { return len(h.past) > 1 }

// CanRedo reports whether an undone checkpoint can be re-applied.
func (h History) CanRedo() bool { return len(h.future) > 0 }

// Len returns the number of recorded checkpoints, including the current one.
func (h History) Len() int { return len(h.past) }

// Undo steps back one checkpoint. ok is false when there is nothing to undo.
func (h History) Undo() (History, *State, bool, error) {
	if !h.CanUndo() {
		return h, nil, false, nil
	}
	last := len(h.past) - 1
	st, err := FromCheckpoint(h.past[last-1])
	if err != nil {
		return h, nil, false, err
	}
	future := make([]Checkpoint, 0, len(h.future)+1)
	future = append(future, h.past[last])
	future = append(future, h.future...)
	return History{past: h.past[:last:last], future: future}, st, true, nil
}

// Redo re-applies the most recently undone checkpoint.
func (h History) Redo() (History, *State, bool, error) {
	if !h.CanRedo() {
		return h, nil, false, nil
	}
	st, err := FromCheckpoint(h.future[0])
	if err != nil {
		return h, nil, false, err
	}
	past := make([]Checkpoint, len(h.past), len(h.past)+1)
	copy(past, h.past)
	return History{past: append(past, h.future[0]), future: h.future[1:]}, st, true, nil
}
