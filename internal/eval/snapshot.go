// Package eval computes status snapshots for expectation trees and diffs them.
//
// Evaluate is a pure function of (root, statuses). It never consults or caches
// anything on the nodes themselves, so the same tree can be evaluated against
// any number of status assignments concurrently.
package eval

import (
	"github.com/solatis/expectree/internal/types"
)

// StatusMap assigns a status to every leaf id of a tree.
type StatusMap map[types.NodeID]types.Status

// Clone returns an independent copy.
func (m StatusMap) Clone() StatusMap {
	out := make(StatusMap, len(m))
	for id, s := range m {
		out[id] = s
	}
	return out
}

// Snapshot is a read-only mirror of a tree with a computed status per node.
// Leaves also carry their id. Binary nodes fill Left/Right, unary nodes and
// the root fill Child. Snapshots are never mutated after Evaluate returns.
type Snapshot struct {
	Type   types.NodeType `json:"type" yaml:"type"`
	Status types.Status   `json:"status" yaml:"status"`
	ID     types.NodeID   `json:"id,omitempty" yaml:"id,omitempty"`
	Left   *Snapshot      `json:"left,omitempty" yaml:"left,omitempty"`
	Right  *Snapshot      `json:"right,omitempty" yaml:"right,omitempty"`
	Child  *Snapshot      `json:"child,omitempty" yaml:"child,omitempty"`
}

// Children returns the non-nil sub-snapshots in evaluation order.
func (s *Snapshot) Children() []*Snapshot {
	switch {
	case s.Left != nil || s.Right != nil:
		return []*Snapshot{s.Left, s.Right}
	case s.Child != nil:
		return []*Snapshot{s.Child}
	default:
		return nil
	}
}

// Walk visits s and its descendants depth-first, pre-order.
func (s *Snapshot) Walk(fn func(*Snapshot)) {
	if s == nil {
		return
	}
	fn(s)
	for _, c := range s.Children() {
		c.Walk(fn)
	}
}

// Flatten maps leaf ids to their leaf snapshots.
func Flatten(s *Snapshot) map[types.NodeID]*Snapshot {
	out := make(map[types.NodeID]*Snapshot)
	s.Walk(func(n *Snapshot) {
		if n.Type == types.NodeExpectation {
			out[n.ID] = n
		}
	})
	return out
}

// LeafStatus returns the status a snapshot recorded for leaf id.
func (s *Snapshot) LeafStatus(id types.NodeID) (types.Status, bool) {
	var (
		found  types.Status
		exists bool
	)
	s.Walk(func(n *Snapshot) {
		if !exists && n.Type == types.NodeExpectation && n.ID == id {
			found, exists = n.Status, true
		}
	})
	return found, exists
}
