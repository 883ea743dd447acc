// internal/codec/document.go
package codec

import (
	"fmt"

	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

/*
 * Plain structural documents.
 *
 * A Document is the serialization boundary of a tree: node type, leaf
 * id/spec/metadata, group aliases, and optionally the leaf-status assignment.
 *
 * Import rules:
 *   - version must be 1.
 *   - ids are kept when PreserveIDs is set or the document carries statuses;
 *     otherwise every leaf gets a fresh id from the injected generator.
 *   - without statuses every leaf starts PENDING; with statuses, entries for
 *     ids that survived the import are restored exactly and the rest ignored.
 */

// Version is the only document schema version this package reads and writes.
const Version = 1

// Document is a serialized tree.
type Document struct {
	Version  int                           `json:"version" yaml:"version"`
	Root     *NodeDoc                      `json:"root" yaml:"root"`
	Statuses map[types.NodeID]types.Status `json:"statuses,omitempty" yaml:"statuses,omitempty"`
}

// NodeDoc is one serialized node. Which fields are set depends on Type.
type NodeDoc struct {
	Type     types.NodeType  `json:"type" yaml:"type"`
	ID       types.NodeID    `json:"id,omitempty" yaml:"id,omitempty"`
	Spec     types.Spec      `json:"spec,omitempty" yaml:"spec,omitempty"`
	Metadata *types.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Alias    string          `json:"alias,omitempty" yaml:"alias,omitempty"`
	Left     *NodeDoc        `json:"left,omitempty" yaml:"left,omitempty"`
	Right    *NodeDoc        `json:"right,omitempty" yaml:"right,omitempty"`
	Child    *NodeDoc        `json:"child,omitempty" yaml:"child,omitempty"`
}

// ExportOptions controls Export.
type ExportOptions struct {
	IncludeStatuses bool
}

// Export serializes root. Statuses are read from st, which must be non-nil
// when IncludeStatuses is set.
func Export(root *tree.Root, st *state.State, opts ExportOptions) (*Document, error) {
	doc := &Document{Version: Version}
	if root != nil && !root.IsEmpty() {
		doc.Root = exportNode(root.Child())
	}
	if opts.IncludeStatuses {
		if st == nil {
			return nil, fmt.Errorf("cannot export statuses: %w", types.ErrNoState)
		}
		doc.Statuses = st.Statuses()
	}
	return doc, nil
}

// ExportTree serializes an attached tree from its current state.
func ExportTree(t *state.Tree, opts ExportOptions) (*Document, error) {
	st := t.State()
	return Export(st.Root(), st, opts)
}

func exportNode(node tree.Node) *NodeDoc {
	switch n := node.(type) {
	case *tree.Expectation:
		d := &NodeDoc{Type: types.NodeExpectation, ID: n.ID(), Spec: n.Spec()}
		if meta := n.Metadata(); !meta.IsZero() {
			d.Metadata = &meta
		}
		return d
	case *tree.And:
		return &NodeDoc{Type: types.NodeAnd, Left: exportNode(n.Left()), Right: exportNode(n.Right())}
	case *tree.Or:
		return &NodeDoc{Type: types.NodeOr, Left: exportNode(n.Left()), Right: exportNode(n.Right())}
	case *tree.Not:
		return &NodeDoc{Type: types.NodeNot, Child: exportNode(n.Child())}
	case *tree.Group:
		return &NodeDoc{Type: types.NodeGroup, Alias: n.Alias(), Child: exportNode(n.Child())}
	case *tree.Root:
		if n.IsEmpty() {
			return nil
		}
		return exportNode(n.Child())
	default:
		panic(fmt.Sprintf("codec: unexpected node type %T", node))
	}
}

// ImportOptions controls Import and ImportRoot.
type ImportOptions struct {
	// PreserveIDs keeps document ids. Implied when the document has statuses.
	PreserveIDs bool
	// IgnoreStatuses starts every leaf PENDING even if the document has statuses.
	IgnoreStatuses bool
	// IDs generates ids for leaves that are not preserved. Defaults to
	// incremental "exp_" ids.
	IDs types.IDGenerator
}

// ImportRoot rebuilds the tree of doc without attaching state.
func ImportRoot(doc *Document, opts ImportOptions) (*tree.Root, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", types.ErrUnsupportedVersion)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", types.ErrUnsupportedVersion, doc.Version)
	}
	if opts.IDs == nil {
		opts.IDs = types.NewIncrementalIDs(types.DefaultIDPrefix)
	}
	preserve := opts.PreserveIDs || len(doc.Statuses) > 0

	var child tree.Node
	if doc.Root != nil {
		n, err := importNode(doc.Root, preserve, opts.IDs)
		if err != nil {
			return nil, err
		}
		child = n
	}
	return tree.NewRoot(child)
}

// ImportState rebuilds doc into a State, applying document statuses unless
// IgnoreStatuses is set.
func ImportState(doc *Document, opts ImportOptions) (*state.State, error) {
	root, err := ImportRoot(doc, opts)
	if err != nil {
		return nil, err
	}
	st, err := state.New(root)
	if err != nil {
		return nil, err
	}
	if opts.IgnoreStatuses || len(doc.Statuses) == 0 {
		return st, nil
	}
	surviving := make(map[types.NodeID]types.Status, len(doc.Statuses))
	for id, status := range doc.Statuses {
		if _, ok := root.NodeByID(id); ok {
			surviving[id] = status
		}
	}
	st, err = st.Update(surviving)
	if err != nil {
		return nil, fmt.Errorf("apply document statuses: %w", err)
	}
	return st, nil
}

// Import rebuilds doc into an attached Tree.
func Import(doc *Document, opts ImportOptions) (*state.Tree, error) {
	st, err := ImportState(doc, opts)
	if err != nil {
		return nil, err
	}
	return state.AttachState(st), nil
}

func importNode(d *NodeDoc, preserve bool, ids types.IDGenerator) (tree.Node, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: missing node", types.ErrNilNode)
	}
	switch d.Type {
	case types.NodeExpectation:
		if err := d.Spec.Validate(); err != nil {
			return nil, err
		}
		id := d.ID
		if !preserve || id == "" {
			id = ids.Next()
		}
		var meta types.Metadata
		if d.Metadata != nil {
			meta = *d.Metadata
		}
		return tree.NewExpectation(id, d.Spec, meta), nil

	case types.NodeAnd, types.NodeOr:
		left, err := importNode(d.Left, preserve, ids)
		if err != nil {
			return nil, err
		}
		right, err := importNode(d.Right, preserve, ids)
		if err != nil {
			return nil, err
		}
		if d.Type == types.NodeAnd {
			return tree.NewAnd(left, right), nil
		}
		return tree.NewOr(left, right), nil

	case types.NodeNot, types.NodeGroup:
		child, err := importNode(d.Child, preserve, ids)
		if err != nil {
			return nil, err
		}
		if d.Type == types.NodeNot {
			return tree.NewNot(child), nil
		}
		return tree.NewGroup(child, d.Alias), nil

	default:
		return nil, fmt.Errorf("unexpected serialized node type %q", d.Type)
	}
}
