// internal/tree/node.go
package tree

import (
	"github.com/solatis/expectree/internal/types"
)

/*
 * Expectation tree node model.
 *
 * Closed variant set: Root, Group, And, Or, Not, Expectation. Every variant
 * implements Node through an unexported marker method, so no package outside
 * this one can add a variant. Type switches over Node therefore list all six
 * cases and panic in the default branch.
 *
 * Ownership is tree-shaped: constructors take their children by value and never
 * hand out a way to mutate them. Structural change always means building new
 * nodes; only the Root is ever replaced, and replacing it rebuilds the Index.
 *
 * Nodes carry no status and no reference to a state container. Evaluation and
 * mutation take (root, statuses) pairs explicitly (see internal/eval and
 * internal/state).
 */

// Node is one of *Root, *Group, *And, *Or, *Not, *Expectation.
type Node interface {
	Type() types.NodeType
	Children() []Node
	sealed()
}

// Group is a transparent wrapper with an optional dot-separated alias.
type Group struct {
	child Node
	alias string
}

// NewGroup wraps child. Panics on nil child; the builder never passes one.
func NewGroup(child Node, alias string) *Group {
	mustNode(child)
	return &Group{child: child, alias: alias}
}

func (g *Group) Type() types.NodeType { return types.NodeGroup }
func (g *Group) Children() []Node     { return []Node{g.child} }
func (g *Group) Child() Node          { return g.child }
func (g *Group) Alias() string        { return g.alias }
func (*Group) sealed()                {}

// And combines two children; left is evaluated first.
type And struct {
	left, right Node
}

func NewAnd(left, right Node) *And {
	mustNode(left)
	mustNode(right)
	return &And{left: left, right: right}
}

func (a *And) Type() types.NodeType { return types.NodeAnd }
func (a *And) Children() []Node     { return []Node{a.left, a.right} }
func (a *And) Left() Node           { return a.left }
func (a *And) Right() Node          { return a.right }
func (*And) sealed()                {}

// Or combines two children; left is evaluated first.
type Or struct {
	left, right Node
}

func NewOr(left, right Node) *Or {
	mustNode(left)
	mustNode(right)
	return &Or{left: left, right: right}
}

func (o *Or) Type() types.NodeType { return types.NodeOr }
func (o *Or) Children() []Node     { return []Node{o.left, o.right} }
func (o *Or) Left() Node           { return o.left }
func (o *Or) Right() Node          { return o.right }
func (*Or) sealed()                {}

// Not negates its child.
type Not struct {
	child Node
}

func NewNot(child Node) *Not {
	mustNode(child)
	return &Not{child: child}
}

func (n *Not) Type() types.NodeType { return types.NodeNot }
func (n *Not) Children() []Node     { return []Node{n.child} }
func (n *Not) Child() Node          { return n.child }
func (*Not) sealed()                {}

// Expectation is a leaf: an externally observed boolean condition.
type Expectation struct {
	id    types.NodeID
	spec  types.Spec
	alias string
	tags  []string
	group string
}

// NewExpectation copies spec and metadata; tags are deduplicated.
func NewExpectation(id types.NodeID, spec types.Spec, meta types.Metadata) *Expectation {
	return &Expectation{
		id:    id,
		spec:  spec.Clone(),
		alias: meta.Alias,
		tags:  types.DedupeTags(meta.Tags),
		group: meta.Group,
	}
}

func (e *Expectation) Type() types.NodeType { return types.NodeExpectation }
func (e *Expectation) Children() []Node     { return nil }
func (*Expectation) sealed()                {}

func (e *Expectation) ID() types.NodeID { return e.id }
func (e *Expectation) Alias() string    { return e.alias }
func (e *Expectation) Group() string    { return e.group }

// Kind is shorthand for Spec().Kind().
func (e *Expectation) Kind() string { return e.spec.Kind() }

// Spec returns a copy of the payload.
func (e *Expectation) Spec() types.Spec { return e.spec.Clone() }

// Tags returns a copy of the tag set.
func (e *Expectation) Tags() []string {
	if len(e.tags) == 0 {
		return nil
	}
	return append([]string(nil), e.tags...)
}

// HasTag reports whether tag is among the leaf's tags.
func (e *Expectation) HasTag(tag string) bool {
	for _, t := range e.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Metadata reassembles the leaf's metadata.
func (e *Expectation) Metadata() types.Metadata {
	return types.Metadata{Alias: e.alias, Tags: e.Tags(), Group: e.group}
}

func mustNode(n Node) {
	if n == nil {
		panic(types.ErrNilNode)
	}
}
