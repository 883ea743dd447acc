package eval

import (
	"github.com/solatis/expectree/internal/types"
)

// ChangeKind classifies a leaf difference between two snapshots.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "ADDED"
	ChangeRemoved ChangeKind = "REMOVED"
	ChangeStatus  ChangeKind = "STATUS"
)

// Change is one leaf difference. OldStatus/NewStatus are set for ChangeStatus only.
type Change struct {
	ID        types.NodeID `json:"id" yaml:"id"`
	Kind      ChangeKind   `json:"change" yaml:"change"`
	OldStatus types.Status `json:"old_status,omitempty" yaml:"old_status,omitempty"`
	NewStatus types.Status `json:"new_status,omitempty" yaml:"new_status,omitempty"`
}

// Diff compares the leaves of two snapshots. The order of the result is
// unspecified; callers must treat it as a set. A nil prev means every leaf in
// next is reported as ADDED.
func Diff(prev, next *Snapshot) []Change {
	prevLeaves := Flatten(prev)
	nextLeaves := Flatten(next)

	var changes []Change
	for id, p := range prevLeaves {
		n, ok := nextLeaves[id]
		switch {
		case !ok:
			changes = append(changes, Change{ID: id, Kind: ChangeRemoved})
		case p.Status != n.Status:
			changes = append(changes, Change{ID: id, Kind: ChangeStatus, OldStatus: p.Status, NewStatus: n.Status})
		}
	}
	for id := range nextLeaves {
		if _, ok := prevLeaves[id]; !ok {
			changes = append(changes, Change{ID: id, Kind: ChangeAdded})
		}
	}
	return changes
}
