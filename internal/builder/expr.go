package builder

import (
	"github.com/solatis/expectree/internal/tree"
)

// Expr composes nodes directly, without the stack machine. Each method
// returns a new Expr; the receiver is unchanged.
//
//	root, err := builder.Of(a).And(b).Or(c).Not().Group("checks").Root()
type Expr struct {
	node tree.Node
}

// Of starts an expression at node.
func Of(node tree.Node) Expr { return Expr{node: node} }

func (e Expr) And(other Expr) Expr { return Expr{node: tree.NewAnd(e.node, other.node)} }
func (e Expr) Or(other Expr) Expr  { return Expr{node: tree.NewOr(e.node, other.node)} }
func (e Expr) Not() Expr           { return Expr{node: tree.NewNot(e.node)} }

// Group wraps the expression in a Group node with alias (may be empty).
func (e Expr) Group(alias string) Expr { return Expr{node: tree.NewGroup(e.node, alias)} }

// Node returns the composed node.
func (e Expr) Node() tree.Node { return e.node }

// Root indexes the expression as a tree.
func (e Expr) Root() (*tree.Root, error) { return tree.NewRoot(e.node) }
