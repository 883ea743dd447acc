package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for expectree operations.
var (
	// ErrMissingOperand indicates AND/OR/NOT was issued with nothing on the stack.
	ErrMissingOperand = errors.New("missing operand")

	// ErrExpectationCombination indicates a node was added next to an unconsumed
	// node without an operator in between.
	ErrExpectationCombination = errors.New("cannot add another expectation without a logical operator; use And() or Or() between expectations")

	// ErrEmptyGroup indicates a group callback produced no node.
	ErrEmptyGroup = errors.New("group must contain at least one node")

	// ErrIncompleteOperation indicates Build was called with a pending operator.
	ErrIncompleteOperation = errors.New("incomplete operation")

	// ErrMultipleNodes indicates Build found more than one unconsumed node.
	ErrMultipleNodes = errors.New("multiple nodes in stack; use Group() to combine them")

	// ErrEmptyTree indicates an attempt to build or evaluate a tree with no child.
	ErrEmptyTree = errors.New("cannot build or evaluate an empty tree; add at least one expectation")

	// ErrDuplicateID indicates two leaves share an identifier.
	ErrDuplicateID = errors.New("duplicate expectation id")

	// ErrDuplicateAlias indicates two leaves resolve to the same alias key.
	ErrDuplicateAlias = errors.New("duplicate expectation alias")

	// ErrStatusMissing indicates the evaluator met a leaf with no status entry.
	ErrStatusMissing = errors.New("status missing for expectation")

	// ErrInvalidStatus indicates an unknown status, or one a caller may not assign.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrUnknownNode indicates an id or selector that matches no leaf.
	ErrUnknownNode = errors.New("unknown expectation")

	// ErrNoState indicates an operation that needs an attached state container.
	ErrNoState = errors.New("tree has no state attached")

	// ErrUnsupportedVersion indicates a document schema version this build cannot read.
	ErrUnsupportedVersion = errors.New("unsupported expectation document version")

	// ErrInvalidSpec indicates a malformed expectation payload.
	ErrInvalidSpec = errors.New("invalid expectation spec")

	// ErrNilNode indicates a nil child handed to a node constructor or the builder.
	ErrNilNode = errors.New("nil node")
)

// MissingOperandError names which operand was missing ("left" or "NOT").
type MissingOperandError struct {
	Operand string
}

func (e *MissingOperandError) Error() string {
	return fmt.Sprintf("no %s operand provided", e.Operand)
}

func (e *MissingOperandError) Unwrap() error { return ErrMissingOperand }

// IncompleteOperationError names the operator left pending at build time.
type IncompleteOperationError struct {
	Operator Operator
}

func (e *IncompleteOperationError) Error() string {
	return fmt.Sprintf("incomplete %s operation; add another expectation", e.Operator)
}

func (e *IncompleteOperationError) Unwrap() error { return ErrIncompleteOperation }

// DuplicateIDError carries the colliding identifier.
type DuplicateIDError struct {
	ID NodeID
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate expectation id detected: %q; ids must be unique", e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// DuplicateAliasError carries the colliding alias key.
type DuplicateAliasError struct {
	Alias string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("duplicate expectation alias detected: %q; aliases must be unique", e.Alias)
}

func (e *DuplicateAliasError) Unwrap() error { return ErrDuplicateAlias }
