// internal/state/state.go
package state

import (
	"fmt"
	"sync"

	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

/*
 * Immutable state container.
 *
 * A State binds one Root to one leaf-status assignment and the snapshot that
 * assignment produces. Every transition returns a new *State; the receiver is
 * never modified, so older values stay valid for readers, history and diffing.
 *
 * Transitions that change nothing return the receiver itself. Callers rely on
 * pointer identity to suppress redundant notifications.
 *
 * Diffs against the previous snapshot are computed on first access and cached
 * (sync.Once keeps that safe when a State is shared between goroutines).
 */

// State is one immutable {tree, statuses, snapshot} bundle.
type State struct {
	root     *tree.Root
	statuses eval.StatusMap
	snapshot *eval.Snapshot
	previous *eval.Snapshot

	diffOnce sync.Once
	diffs    []eval.Change
}

// New creates an all-PENDING state for root.
func New(root *tree.Root) (*State, error) {
	return build(root, nil, nil)
}

func build(root *tree.Root, carried eval.StatusMap, previous *eval.Snapshot) (*State, error) {
	if root == nil {
		return nil, types.ErrEmptyTree
	}
	leaves := root.Leaves()
	statuses := make(eval.StatusMap, len(leaves))
	for _, leaf := range leaves {
		status, ok := carried[leaf.ID()]
		if !ok {
			status = types.StatusPending
		}
		statuses[leaf.ID()] = status
	}
	snapshot, err := eval.Evaluate(root, statuses)
	if err != nil {
		return nil, err
	}
	return &State{root: root, statuses: statuses, snapshot: snapshot, previous: previous}, nil
}

// Root returns the bound tree.
func (s *State) Root() *tree.Root { return s.root }

// Snapshot returns the snapshot of the current assignment.
func (s *State) Snapshot() *eval.Snapshot { return s.snapshot }

// PreviousSnapshot returns the snapshot this state was derived from, or nil.
func (s *State) PreviousSnapshot() *eval.Snapshot { return s.previous }

// Status returns the root status.
func (s *State) Status() types.Status { return s.snapshot.Status }

// IsFulfilled reports whether the root PASSED.
func (s *State) IsFulfilled() bool { return s.Status() == types.StatusPassed }

// IsRejected reports whether the root FAILED.
func (s *State) IsRejected() bool { return s.Status() == types.StatusFailed }

// IsPending reports whether the root is still PENDING.
func (s *State) IsPending() bool { return s.Status() == types.StatusPending }

// NodeStatus returns the assigned status of leaf id. This is the caller's
// assignment, not the evaluated status; see Snapshot for SKIPPED.
func (s *State) NodeStatus(id types.NodeID) (types.Status, bool) {
	st, ok := s.statuses[id]
	return st, ok
}

// Statuses returns a copy of the leaf-status assignment.
func (s *State) Statuses() eval.StatusMap { return s.statuses.Clone() }

// Diffs returns the leaf changes relative to PreviousSnapshot.
func (s *State) Diffs() []eval.Change {
	s.diffOnce.Do(func() {
		if s.previous != nil {
			s.diffs = eval.Diff(s.previous, s.snapshot)
		}
	})
	return append([]eval.Change(nil), s.diffs...)
}

// Fulfill marks id PASSED.
func (s *State) Fulfill(id types.NodeID) (*State, error) {
	return s.SetStatus(id, types.StatusPassed)
}

// Reject marks id FAILED.
func (s *State) Reject(id types.NodeID) (*State, error) {
	return s.SetStatus(id, types.StatusFailed)
}

// Reset marks id PENDING.
func (s *State) Reset(id types.NodeID) (*State, error) {
	return s.SetStatus(id, types.StatusPending)
}

// SetStatus assigns status to leaf id.
func (s *State) SetStatus(id types.NodeID, status types.Status) (*State, error) {
	return s.Update(map[types.NodeID]types.Status{id: status})
}

// Update assigns several statuses at once and evaluates the tree once.
// Every entry is validated before anything is applied.
func (s *State) Update(updates map[types.NodeID]types.Status) (*State, error) {
	changed := false
	for id, status := range updates {
		if err := s.validate(id, status); err != nil {
			return nil, err
		}
		if s.statuses[id] != status {
			changed = true
		}
	}
	if !changed {
		return s, nil
	}

	next := s.statuses.Clone()
	for id, status := range updates {
		next[id] = status
	}
	snapshot, err := eval.Evaluate(s.root, next)
	if err != nil {
		return nil, err
	}
	return &State{root: s.root, statuses: next, snapshot: snapshot, previous: s.snapshot}, nil
}

func (s *State) validate(id types.NodeID, status types.Status) error {
	if !status.Settable() {
		return fmt.Errorf("%w: %q cannot be assigned to %s", types.ErrInvalidStatus, status, id)
	}
	if _, ok := s.statuses[id]; !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownNode, id)
	}
	return nil
}

// Rebind moves the assignment onto a structurally different tree. Statuses
// carry over by id; new leaves start PENDING; leaves that disappeared are
// dropped. The old snapshot becomes the previous one, so Diffs reports the
// ADDED and REMOVED leaves. Rebinding to the same root returns s.
func (s *State) Rebind(root *tree.Root) (*State, error) {
	if root == s.root {
		return s, nil
	}
	return build(root, s.statuses, s.snapshot)
}
