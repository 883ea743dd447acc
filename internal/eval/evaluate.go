// internal/eval/evaluate.go
package eval

import (
	"fmt"

	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

/*
 * Tree evaluation.
 *
 * Computes a Snapshot for a Root under a leaf-status assignment.
 *
 * Rules:
 *   - Expectation: looked up in the map; a missing entry is an error.
 *   - And(l, r): l FAILED short-circuits to FAILED and r is skipped. Otherwise
 *     FAILED if r FAILED, PASSED if both PASSED, else PENDING.
 *   - Or(l, r): l PASSED short-circuits to PASSED and r is skipped. Otherwise
 *     PASSED if r PASSED, FAILED if both FAILED, else PENDING.
 *   - Not: swaps PASSED and FAILED; every other status passes through.
 *   - Group, Root: mirror the child. An empty root is PENDING.
 *
 * Skip stamps SKIPPED on an entire subtree without reading the map, so a
 * skipped branch never fails on a missing entry.
 *
 * A SKIPPED operand that reaches combineAnd/combineOr (only possible when a
 * caller evaluates a snapshot-derived map) falls through to PENDING. That is
 * the observed contract and is kept as is.
 */

// Evaluate computes the snapshot of root under statuses.
func Evaluate(root *tree.Root, statuses StatusMap) (*Snapshot, error) {
	if root == nil || root.IsEmpty() {
		return &Snapshot{Type: types.NodeRoot, Status: types.StatusPending}, nil
	}
	child, err := EvaluateNode(root.Child(), statuses)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Type: types.NodeRoot, Status: child.Status, Child: child}, nil
}

// EvaluateNode evaluates an arbitrary subtree.
func EvaluateNode(node tree.Node, statuses StatusMap) (*Snapshot, error) {
	switch n := node.(type) {
	case *tree.Expectation:
		status, ok := statuses[n.ID()]
		if !ok {
			return nil, fmt.Errorf("%w %s", types.ErrStatusMissing, n.ID())
		}
		return &Snapshot{Type: types.NodeExpectation, Status: status, ID: n.ID()}, nil

	case *tree.And:
		left, err := EvaluateNode(n.Left(), statuses)
		if err != nil {
			return nil, err
		}
		if left.Status == types.StatusFailed {
			return &Snapshot{Type: types.NodeAnd, Status: types.StatusFailed, Left: left, Right: Skip(n.Right())}, nil
		}
		right, err := EvaluateNode(n.Right(), statuses)
		if err != nil {
			return nil, err
		}
		return &Snapshot{Type: types.NodeAnd, Status: combineAnd(left.Status, right.Status), Left: left, Right: right}, nil

	case *tree.Or:
		left, err := EvaluateNode(n.Left(), statuses)
		if err != nil {
			return nil, err
		}
		if left.Status == types.StatusPassed {
			return &Snapshot{Type: types.NodeOr, Status: types.StatusPassed, Left: left, Right: Skip(n.Right())}, nil
		}
		right, err := EvaluateNode(n.Right(), statuses)
		if err != nil {
			return nil, err
		}
		return &Snapshot{Type: types.NodeOr, Status: combineOr(left.Status, right.Status), Left: left, Right: right}, nil

	case *tree.Not:
		child, err := EvaluateNode(n.Child(), statuses)
		if err != nil {
			return nil, err
		}
		return &Snapshot{Type: types.NodeNot, Status: negate(child.Status), Child: child}, nil

	case *tree.Group:
		child, err := EvaluateNode(n.Child(), statuses)
		if err != nil {
			return nil, err
		}
		return &Snapshot{Type: types.NodeGroup, Status: child.Status, Child: child}, nil

	case *tree.Root:
		return Evaluate(n, statuses)

	default:
		panic(fmt.Sprintf("eval: unexpected node type %T", node))
	}
}

// Skip mirrors node with every status SKIPPED.
func Skip(node tree.Node) *Snapshot {
	switch n := node.(type) {
	case *tree.Expectation:
		return &Snapshot{Type: types.NodeExpectation, Status: types.StatusSkipped, ID: n.ID()}
	case *tree.And:
		return &Snapshot{Type: types.NodeAnd, Status: types.StatusSkipped, Left: Skip(n.Left()), Right: Skip(n.Right())}
	case *tree.Or:
		return &Snapshot{Type: types.NodeOr, Status: types.StatusSkipped, Left: Skip(n.Left()), Right: Skip(n.Right())}
	case *tree.Not:
		return &Snapshot{Type: types.NodeNot, Status: types.StatusSkipped, Child: Skip(n.Child())}
	case *tree.Group:
		return &Snapshot{Type: types.NodeGroup, Status: types.StatusSkipped, Child: Skip(n.Child())}
	case *tree.Root:
		s := &Snapshot{Type: types.NodeRoot, Status: types.StatusSkipped}
		if !n.IsEmpty() {
			s.Child = Skip(n.Child())
		}
		return s
	default:
		panic(fmt.Sprintf("eval: unexpected node type %T", node))
	}
}

func negate(s types.Status) types.Status {
	switch s {
	case types.StatusPassed:
		return types.StatusFailed
	case types.StatusFailed:
		return types.StatusPassed
	default:
		return s
	}
}

func combineAnd(left, right types.Status) types.Status {
	if right == types.StatusFailed {
		return types.StatusFailed
	}
	if left == types.StatusPassed && right == types.StatusPassed {
		return types.StatusPassed
	}
	return types.StatusPending
}

func combineOr(left, right types.Status) types.Status {
	if right == types.StatusPassed {
		return types.StatusPassed
	}
	if left == types.StatusFailed && right == types.StatusFailed {
		return types.StatusFailed
	}
	return types.StatusPending
}
