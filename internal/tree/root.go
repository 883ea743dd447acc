package tree

import (
	"github.com/solatis/expectree/internal/types"
)

// Root is the top of a tree. It optionally owns one child and the Index
// derived from that child. A Root is never mutated; binding a new child means
// constructing a new Root.
type Root struct {
	child Node
	index *Index
}

// NewRoot builds the Index for child and returns the new Root. A nil child
// yields an empty root. Duplicate ids or alias keys are reported here.
func NewRoot(child Node) (*Root, error) {
	if r, ok := child.(*Root); ok {
		child = r.child
	}
	idx, err := BuildIndex(child)
	if err != nil {
		return nil, err
	}
	return &Root{child: child, index: idx}, nil
}

// MustRoot is NewRoot for trees known to be well formed (tests, fixtures).
func MustRoot(child Node) *Root {
	r, err := NewRoot(child)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Root) Type() types.NodeType { return types.NodeRoot }
func (*Root) sealed()                {}

func (r *Root) Children() []Node {
	if r.child == nil {
		return nil
	}
	return []Node{r.child}
}

// Child returns the root's child, nil when empty.
func (r *Root) Child() Node { return r.child }

// IsEmpty reports whether the root has no child.
func (r *Root) IsEmpty() bool { return r.child == nil }

// Index exposes the structural index built at construction.
func (r *Root) Index() *Index { return r.index }

// NodeByID looks a leaf up by exact identifier.
func (r *Root) NodeByID(id types.NodeID) (*Expectation, bool) {
	return r.index.ByID(id)
}

// NodeByAlias looks a leaf up by any of its alias keys.
func (r *Root) NodeByAlias(alias string) (*Expectation, bool) {
	return r.index.ByAlias(alias)
}

// AliasesFor returns every alias key resolving to leaf, sorted.
func (r *Root) AliasesFor(leaf *Expectation) []string {
	return r.index.AliasesFor(leaf)
}

// Leaves returns all leaves in depth-first order.
func (r *Root) Leaves() []*Expectation {
	return r.index.Leaves()
}
