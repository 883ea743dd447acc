// internal/render/ascii.go
package render

import (
	"fmt"
	"strings"

	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

const (
	indentBranch   = "|  "
	indentNoBranch = "   "
)

// StatusLookup reports the status of the root or of a leaf. Either argument
// may be ignored; ok=false omits the status from the label.
type StatusLookup interface {
	RootStatus() (types.Status, bool)
	LeafStatus(id types.NodeID) (types.Status, bool)
}

// ASCII renders root as a plain-text tree. A nil lookup renders structure only.
func ASCII(root *tree.Root, lookup StatusLookup) string {
	if root == nil || root.IsEmpty() {
		return "ROOT (empty)"
	}
	var b strings.Builder
	b.WriteString(label(root, lookup))
	children(&b, root.Children(), "", lookup)
	return b.String()
}

func children(b *strings.Builder, nodes []tree.Node, prefix string, lookup StatusLookup) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		connector, next := "+-", prefix+indentBranch
		if last {
			connector, next = `\-`, prefix+indentNoBranch
		}
		fmt.Fprintf(b, "\n%s%s %s", prefix, connector, label(n, lookup))
		if kids := n.Children(); len(kids) > 0 {
			children(b, kids, next, lookup)
		}
	}
}

func label(node tree.Node, lookup StatusLookup) string {
	switch n := node.(type) {
	case *tree.Root:
		if lookup != nil {
			if st, ok := lookup.RootStatus(); ok {
				return fmt.Sprintf("ROOT [status=%s]", st)
			}
		}
		return "ROOT"
	case *tree.Group:
		if n.Alias() != "" {
			return fmt.Sprintf("GROUP (alias=%s)", n.Alias())
		}
		return "GROUP"
	case *tree.And, *tree.Or, *tree.Not:
		return string(n.Type())
	case *tree.Expectation:
		name := n.Alias()
		if name == "" {
			name = string(n.ID())
		}
		parts := []string{name}
		if kind := n.Kind(); kind != "" {
			parts = append(parts, "kind="+kind)
		}
		if n.Group() != "" {
			parts = append(parts, "group="+n.Group())
		}
		if tags := n.Tags(); len(tags) > 0 {
			parts = append(parts, "tags="+strings.Join(tags, ","))
		}
		if lookup != nil {
			if st, ok := lookup.LeafStatus(n.ID()); ok {
				parts = append(parts, "status="+string(st))
			}
		}
		return fmt.Sprintf("EXPECTATION (%s)", strings.Join(parts, " | "))
	default:
		panic(fmt.Sprintf("render: unexpected node type %T", node))
	}
}

// FromSnapshot adapts an evaluated snapshot to StatusLookup, so rendered
// leaves show SKIPPED where the evaluator short-circuited.
func FromSnapshot(s *eval.Snapshot) StatusLookup {
	return snapshotLookup{s}
}

type snapshotLookup struct{ s *eval.Snapshot }

func (l snapshotLookup) RootStatus() (types.Status, bool) {
	if l.s == nil {
		return "", false
	}
	return l.s.Status, true
}

func (l snapshotLookup) LeafStatus(id types.NodeID) (types.Status, bool) {
	return l.s.LeafStatus(id)
}
