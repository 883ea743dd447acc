package state

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

func leaf(id, alias string) *tree.Expectation {
	return tree.NewExpectation(types.NodeID(id), types.NewSpec("test", nil), types.Metadata{Alias: alias})
}

// andRoot is a AND b.
func andRoot() *tree.Root {
	return tree.MustRoot(tree.NewAnd(leaf("a", "first"), leaf("b", "second")))
}

func mustState(t *testing.T, root *tree.Root) *State {
	t.Helper()
	st, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return st
}

func sortChanges(cs []eval.Change) []eval.Change {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
	return cs
}

func TestNew_AllPending(t *testing.T) {
	st := mustState(t, andRoot())
	if !st.IsPending() {
		t.Errorf("Status() = %v, want PENDING", st.Status())
	}
	want := eval.StatusMap{"a": types.StatusPending, "b": types.StatusPending}
	if diff := cmp.Diff(want, st.Statuses()); diff != "" {
		t.Errorf("Statuses() mismatch (-want +got):\n%s", diff)
	}
	if st.PreviousSnapshot() != nil || len(st.Diffs()) != 0 {
		t.Error("a fresh state should have no previous snapshot and no diffs")
	}
	if _, err := New(nil); !errors.Is(err, types.ErrEmptyTree) {
		t.Errorf("New(nil) error = %v, want ErrEmptyTree", err)
	}
}

func TestState_Transitions(t *testing.T) {
	s0 := mustState(t, andRoot())
	s1, err := s0.Fulfill("a")
	if err != nil {
		t.Fatalf("Fulfill() error = %v", err)
	}
	s2, err := s1.Fulfill("b")
	if err != nil {
		t.Fatalf("Fulfill() error = %v", err)
	}

	if s0.Status() != types.StatusPending || s1.Status() != types.StatusPending || s2.Status() != types.StatusPassed {
		t.Errorf("statuses = %v, %v, %v, want PENDING, PENDING, PASSED", s0.Status(), s1.Status(), s2.Status())
	}
	if st, _ := s0.NodeStatus("a"); st != types.StatusPending {
		t.Errorf("earlier state was modified: a = %v", st)
	}
	if s2.PreviousSnapshot() != s1.Snapshot() {
		t.Error("PreviousSnapshot() should be the snapshot transitioned from")
	}
	want := []eval.Change{{ID: "b", Kind: eval.ChangeStatus, OldStatus: types.StatusPending, NewStatus: types.StatusPassed}}
	if diff := cmp.Diff(want, s2.Diffs()); diff != "" {
		t.Errorf("Diffs() mismatch (-want +got):\n%s", diff)
	}

	s3, err := s2.Reject("a")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if !s3.IsRejected() {
		t.Errorf("Status() = %v, want FAILED", s3.Status())
	}
	if got, _ := s3.Snapshot().LeafStatus("b"); got != types.StatusSkipped {
		t.Errorf("b in snapshot = %v, want SKIPPED", got)
	}
	if got, _ := s3.NodeStatus("b"); got != types.StatusPassed {
		t.Errorf("NodeStatus(b) = %v, want the assigned PASSED", got)
	}
	s4, err := s3.Reset("a")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !s4.IsPending() {
		t.Errorf("Status() = %v, want PENDING", s4.Status())
	}
}

func TestState_NoOpReturnsReceiver(t *testing.T) {
	s0 := mustState(t, andRoot())
	s1, err := s0.Reset("a")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if s1 != s0 {
		t.Error("a transition that changes nothing should return the receiver")
	}
	s2, err := s0.Update(nil)
	if err != nil || s2 != s0 {
		t.Errorf("Update(nil) = %p, %v, want receiver", s2, err)
	}
}

func TestState_UpdateValidation(t *testing.T) {
	s0 := mustState(t, andRoot())

	tests := []struct {
		name    string
		updates map[types.NodeID]types.Status
		wantErr error
	}{
		{"unknown id", map[types.NodeID]types.Status{"z": types.StatusPassed}, types.ErrUnknownNode},
		{"skipped is not assignable", map[types.NodeID]types.Status{"a": types.StatusSkipped}, types.ErrInvalidStatus},
		{"removed is not assignable", map[types.NodeID]types.Status{"a": types.StatusRemoved}, types.ErrInvalidStatus},
		{"one bad entry rejects the batch", map[types.NodeID]types.Status{"a": types.StatusPassed, "z": types.StatusPassed}, types.ErrUnknownNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s0.Update(tt.updates); !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
			}
			if st, _ := s0.NodeStatus("a"); st != types.StatusPending {
				t.Errorf("failed update modified the state: a = %v", st)
			}
		})
	}

	s1, err := s0.Update(map[types.NodeID]types.Status{"a": types.StatusPassed, "b": types.StatusPassed})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !s1.IsFulfilled() || len(s1.Diffs()) != 2 {
		t.Errorf("batch update: status %v, %d diffs, want PASSED and 2", s1.Status(), len(s1.Diffs()))
	}
}

func TestState_Rebind(t *testing.T) {
	s0 := mustState(t, andRoot())
	s1, err := s0.Fulfill("a")
	if err != nil {
		t.Fatal(err)
	}

	next := tree.MustRoot(tree.NewOr(leaf("a", ""), leaf("c", "")))
	s2, err := s1.Rebind(next)
	if err != nil {
		t.Fatalf("Rebind() error = %v", err)
	}
	if s2.Root() != next {
		t.Error("Rebind() did not bind the new root")
	}
	if !s2.IsFulfilled() {
		t.Errorf("Status() = %v, want PASSED carried by a", s2.Status())
	}
	want := []eval.Change{
		{ID: "b", Kind: eval.ChangeRemoved},
		{ID: "c", Kind: eval.ChangeAdded},
	}
	if diff := cmp.Diff(want, sortChanges(s2.Diffs())); diff != "" {
		t.Errorf("Diffs() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s2.NodeStatus("b"); ok {
		t.Error("removed leaf kept a status")
	}
	if st, _ := s2.NodeStatus("c"); st != types.StatusPending {
		t.Errorf("new leaf status = %v, want PENDING", st)
	}

	same, err := s2.Rebind(next)
	if err != nil || same != s2 {
		t.Errorf("Rebind(same root) = %p, %v, want receiver", same, err)
	}
}

func TestState_ConcurrentDiffs(t *testing.T) {
	s0 := mustState(t, andRoot())
	s1, _ := s0.Fulfill("a")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if len(s1.Diffs()) != 1 {
				t.Error("Diffs() returned the wrong number of changes")
			}
		}()
	}
	wg.Wait()
}

func TestHistory(t *testing.T) {
	s0 := mustState(t, andRoot())
	s1, _ := s0.Fulfill("a")
	s2, _ := s1.Fulfill("b")

	h := NewHistory(s0).Record(s1).Record(s2)
	if h.Len() != 3 || !h.CanUndo() || h.CanRedo() {
		t.Fatalf("history: len %d, undo %v, redo %v", h.Len(), h.CanUndo(), h.CanRedo())
	}

	h2, st, ok, err := h.Undo()
	if err != nil || !ok {
		t.Fatalf("Undo() = %v, %v", ok, err)
	}
	if diff := cmp.Diff(s1.Statuses(), st.Statuses()); diff != "" {
		t.Errorf("Undo() statuses mismatch (-want +got):\n%s", diff)
	}
	if h.Len() != 3 {
		t.Error("Undo() modified the receiver")
	}

	h3, st, ok, err := h2.Redo()
	if err != nil || !ok {
		t.Fatalf("Redo() = %v, %v", ok, err)
	}
	if !st.IsFulfilled() || h3.CanRedo() {
		t.Errorf("Redo(): status %v, can redo %v", st.Status(), h3.CanRedo())
	}

	// Recording after an undo drops the redo stack.
	alt, _ := s1.Reject("b")
	h4 := h2.Record(alt)
	if h4.CanRedo() {
		t.Error("Record() should clear the redo stack")
	}

	first := NewHistory(s0)
	if _, _, ok, _ := first.Undo(); ok {
		t.Error("Undo() on a single checkpoint should report nothing to undo")
	}
	if _, _, ok, _ := first.Redo(); ok {
		t.Error("Redo() with nothing undone should report nothing to redo")
	}
}

func TestFromCheckpoint(t *testing.T) {
	s0 := mustState(t, andRoot())
	s1, _ := s0.Fulfill("a")
	cp := s1.Checkpoint()
	cp.Statuses["a"] = types.StatusFailed // the checkpoint holds a copy

	if st, _ := s1.NodeStatus("a"); st != types.StatusPassed {
		t.Error("Checkpoint() shares its status map with the state")
	}
	restored, err := FromCheckpoint(cp)
	if err != nil {
		t.Fatalf("FromCheckpoint() error = %v", err)
	}
	if !restored.IsRejected() {
		t.Errorf("restored status = %v, want FAILED (re-evaluated)", restored.Status())
	}
}
