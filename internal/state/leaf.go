// internal/state/leaf.go
package state

import (
	"context"
	"errors"

	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

// Leaf is a handle on one expectation of an attached Tree. It holds the id,
// not a status; every read and write goes through the Tree's current State,
// so a handle stays usable across Rebind as long as the id survives.
type Leaf struct {
	tree *Tree
	node *tree.Expectation
}

// ID returns the leaf identifier.
func (l *Leaf) ID() types.NodeID { return l.node.ID() }

// Node returns the expectation the handle was resolved from.
func (l *Leaf) Node() *tree.Expectation { return l.node }

// Status returns the assigned status, or REMOVED when the leaf is no longer
// part of the bound tree.
func (l *Leaf) Status() types.Status {
	st, ok := l.tree.State().NodeStatus(l.node.ID())
	if !ok {
		return types.StatusRemoved
	}
	return st
}

func (l *Leaf) IsFulfilled() bool { return l.Status() == types.StatusPassed }
func (l *Leaf) IsRejected() bool  { return l.Status() == types.StatusFailed }
func (l *Leaf) IsPending() bool   { return l.Status() == types.StatusPending }

func (l *Leaf) Fulfill() error { return l.tree.Fulfill(l.node.ID()) }
func (l *Leaf) Reject() error  { return l.tree.Reject(l.node.ID()) }
func (l *Leaf) Reset() error   { return l.tree.Reset(l.node.ID()) }

// FulfillAsync runs fn and marks the leaf PASSED when it returns nil. A
// failing fn marks the leaf FAILED and its error is returned unchanged.
func (l *Leaf) FulfillAsync(ctx context.Context, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return l.fail(err)
	}
	return l.Fulfill()
}

// RejectAsync runs fn and marks the leaf FAILED whether or not fn succeeds.
// The error of fn, if any, is returned.
func (l *Leaf) RejectAsync(ctx context.Context, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return l.fail(err)
	}
	return l.Reject()
}

// EvaluateAsync runs a predicate and records its verdict, PASSED for true and
// FAILED for false. An error marks the leaf FAILED and is returned.
func (l *Leaf) EvaluateAsync(ctx context.Context, fn func(context.Context) (bool, error)) error {
	return l.Observe(ctx, func(ctx context.Context) (types.Status, error) {
		ok, err := fn(ctx)
		if ok {
			return types.StatusPassed, err
		}
		return types.StatusFailed, err
	})
}

// Observe runs fn and assigns the status it returns, which may be PENDING
// when fn could not reach a verdict. An error marks the leaf FAILED and is
// returned.
func (l *Leaf) Observe(ctx context.Context, fn func(context.Context) (types.Status, error)) error {
	status, err := fn(ctx)
	if err != nil {
		return l.fail(err)
	}
	return l.tree.SetStatus(l.node.ID(), status)
}

func (l *Leaf) fail(cause error) error {
	if err := l.Reject(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
