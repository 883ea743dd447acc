// internal/builder/builder.go
package builder

import (
	"errors"
	"fmt"

	"github.com/solatis/expectree/internal/render"
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

/*
 * Stack-machine tree builder.
 *
 * Each AddExpectation pushes a node; And/Or arm a pending operator which the
 * next AddExpectation or Group consumes by popping one operand; Not wraps the
 * top of the stack; Build finalizes the single remaining node into a Root.
 *
 * Binding is strictly left-to-right in call order. There is no precedence:
 *
 *   a.And(); b.Or(); c   =>   OR(AND(a, b), c)
 *
 * Group runs a callback on a fresh nested Builder (same id generator) and
 * folds the resulting subtree in as a single operand.
 *
 * Visualize runs the same finalization on a copy of the stack, so a preview
 * never consumes in-progress construction.
 */

// Builder assembles a tree from an imperative call sequence. Not safe for
// concurrent use.
type Builder struct {
	ids     types.IDGenerator
	stack   []tree.Node
	pending types.Operator
	root    *tree.Root
}

// Option configures a Builder.
type Option func(*Builder)

// WithIDGenerator sets the generator used by Expect and NewLeaf.
func WithIDGenerator(ids types.IDGenerator) Option {
	return func(b *Builder) { b.ids = ids }
}

// New creates an empty Builder. Without WithIDGenerator, ids are "exp_0",
// "exp_1", ... counted per builder.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.ids == nil {
		b.ids = types.NewIncrementalIDs(types.DefaultIDPrefix)
	}
	return b
}

// IDs returns the builder's id generator.
func (b *Builder) IDs() types.IDGenerator { return b.ids }

// AddExpectation folds node into the stack. Any node variant is accepted,
// which is how prebuilt subtrees enter a builder.
func (b *Builder) AddExpectation(node tree.Node) error {
	if node == nil {
		return types.ErrNilNode
	}
	if b.pending == "" && len(b.stack) > 0 {
		return types.ErrExpectationCombination
	}
	b.fold(node)
	return nil
}

// fold combines node with the top of the stack under the pending operator, or
// pushes it when no operator is armed.
func (b *Builder) fold(node tree.Node) {
	if b.pending == "" || len(b.stack) == 0 {
		b.stack = append(b.stack, node)
		return
	}
	left := b.pop()
	switch b.pending {
	case types.OperatorAnd:
		b.stack = append(b.stack, tree.NewAnd(left, node))
	case types.OperatorOr:
		b.stack = append(b.stack, tree.NewOr(left, node))
	default:
		panic(fmt.Sprintf("builder: unexpected operator %q", b.pending))
	}
	b.pending = ""
}

func (b *Builder) pop() tree.Node {
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return n
}

// And arms AND for the next operand.
func (b *Builder) And() error { return b.arm(types.OperatorAnd) }

// Or arms OR for the next operand.
func (b *Builder) Or() error { return b.arm(types.OperatorOr) }

func (b *Builder) arm(op types.Operator) error {
	if len(b.stack) == 0 {
		return &types.MissingOperandError{Operand: "left"}
	}
	b.pending = op
	return nil
}

// Not negates the node on top of the stack.
func (b *Builder) Not() error {
	if len(b.stack) == 0 {
		return &types.MissingOperandError{Operand: "NOT"}
	}
	b.stack = append(b.stack, tree.NewNot(b.pop()))
	return nil
}

// Group builds a subtree with fn on a nested Builder and folds it in wrapped
// in a Group node. An empty subtree is ErrEmptyGroup.
func (b *Builder) Group(fn func(*Builder) error, alias string) error {
	nested := New(WithIDGenerator(b.ids))
	if err := fn(nested); err != nil {
		return err
	}
	sub, err := nested.BuildRoot()
	if errors.Is(err, types.ErrEmptyTree) {
		return types.ErrEmptyGroup
	}
	if err != nil {
		return err
	}
	if sub.IsEmpty() {
		return types.ErrEmptyGroup
	}
	b.fold(tree.NewGroup(sub.Child(), alias))
	return nil
}

// Build finalizes the stack and attaches an all-PENDING state.
func (b *Builder) Build() (*state.Tree, error) {
	root, err := b.BuildRoot()
	if err != nil {
		return nil, err
	}
	return state.Attach(root)
}

// BuildRoot finalizes the stack without attaching state. Calling it again
// with an empty stack returns the previously built root.
func (b *Builder) BuildRoot() (*tree.Root, error) {
	root, err := b.finalize(b.stack)
	if err != nil {
		return nil, err
	}
	b.stack = b.stack[:0]
	b.root = root
	return root, nil
}

func (b *Builder) finalize(stack []tree.Node) (*tree.Root, error) {
	if b.pending != "" {
		return nil, &types.IncompleteOperationError{Operator: b.pending}
	}
	switch len(stack) {
	case 0:
		if b.root == nil {
			return nil, types.ErrEmptyTree
		}
		return b.root, nil
	case 1:
		return tree.NewRoot(stack[0])
	default:
		return nil, types.ErrMultipleNodes
	}
}

// Visualize renders what Build would produce without consuming the builder.
func (b *Builder) Visualize() (string, error) {
	stack := append([]tree.Node(nil), b.stack...)
	root, err := b.finalize(stack)
	if err != nil {
		return "", err
	}
	return render.ASCII(root, nil), nil
}
