// internal/tree/index.go
package tree

import (
	"sort"
	"strings"

	"github.com/solatis/expectree/internal/types"
)

/*
 * Structural index over a tree's leaves.
 *
 * Built wholesale by one depth-first traversal whenever a Root is constructed;
 * never patched incrementally and never rebuilt on status changes.
 *
 * Alias keys: a leaf aliased "isLoggedIn" under Group("User") is reachable as
 * both "isLoggedIn" and "User.isLoggedIn". With nested groups A > B > leaf "x",
 * the keys are "x", "A.B.x" and "B.x": every suffix of the enclosing group
 * path joined with the leaf alias. Group aliases may themselves be dotted;
 * they contribute one stack segment per dot-separated part.
 *
 * Collisions: the same key resolving to two distinct leaves is an error; a leaf
 * producing the same key twice (e.g. alias "a.b" under no groups) is not.
 */

// Index maps identifiers and alias keys to leaves.
type Index struct {
	byID    map[types.NodeID]*Expectation
	byAlias map[string]*Expectation
	aliases map[*Expectation][]string
	leaves  []*Expectation
}

// BuildIndex traverses node (nil allowed) and indexes every leaf.
func BuildIndex(node Node) (*Index, error) {
	idx := &Index{
		byID:    make(map[types.NodeID]*Expectation),
		byAlias: make(map[string]*Expectation),
		aliases: make(map[*Expectation][]string),
	}
	if node == nil {
		return idx, nil
	}
	var stack []string
	if err := idx.visit(node, &stack); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) visit(node Node, stack *[]string) error {
	added := 0
	if g, ok := node.(*Group); ok && g.alias != "" {
		segs := splitAlias(g.alias)
		*stack = append(*stack, segs...)
		added = len(segs)
	}

	if leaf, ok := node.(*Expectation); ok {
		if err := idx.add(leaf, *stack); err != nil {
			return err
		}
	}

	for _, child := range node.Children() {
		if err := idx.visit(child, stack); err != nil {
			return err
		}
	}

	if added > 0 {
		*stack = (*stack)[:len(*stack)-added]
	}
	return nil
}

func (idx *Index) add(leaf *Expectation, stack []string) error {
	if _, dup := idx.byID[leaf.id]; dup {
		return &types.DuplicateIDError{ID: leaf.id}
	}
	idx.byID[leaf.id] = leaf
	idx.leaves = append(idx.leaves, leaf)

	keys := aliasKeys(leaf.alias, stack)
	for _, key := range keys {
		if existing, ok := idx.byAlias[key]; ok && existing != leaf {
			return &types.DuplicateAliasError{Alias: key}
		}
		idx.byAlias[key] = leaf
	}
	if len(keys) > 0 {
		idx.aliases[leaf] = keys
	}
	return nil
}

// aliasKeys returns the sorted, distinct lookup keys for a leaf alias under the
// given group-alias stack.
func aliasKeys(alias string, stack []string) []string {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil
	}
	segs := splitAlias(alias)
	set := map[string]struct{}{alias: {}}
	if len(segs) > 0 {
		set[strings.Join(segs, ".")] = struct{}{}
		for start := 0; start < len(stack); start++ {
			parts := make([]string, 0, len(stack)-start+len(segs))
			parts = append(parts, stack[start:]...)
			parts = append(parts, segs...)
			set[strings.Join(parts, ".")] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// splitAlias splits on dots, trims, and drops empty segments.
func splitAlias(alias string) []string {
	raw := strings.Split(alias, ".")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// ByID returns the leaf with the given identifier.
func (idx *Index) ByID(id types.NodeID) (*Expectation, bool) {
	leaf, ok := idx.byID[id]
	return leaf, ok
}

// ByAlias returns the leaf reachable under key.
func (idx *Index) ByAlias(key string) (*Expectation, bool) {
	leaf, ok := idx.byAlias[strings.TrimSpace(key)]
	return leaf, ok
}

// AliasesFor returns a copy of the keys resolving to leaf.
func (idx *Index) AliasesFor(leaf *Expectation) []string {
	return append([]string(nil), idx.aliases[leaf]...)
}

// Leaves returns a copy of the leaves in depth-first order.
func (idx *Index) Leaves() []*Expectation {
	return append([]*Expectation(nil), idx.leaves...)
}

// Len is the number of indexed leaves.
func (idx *Index) Len() int { return len(idx.leaves) }

// Has reports whether id belongs to an indexed leaf.
func (idx *Index) Has(id types.NodeID) bool {
	_, ok := idx.byID[id]
	return ok
}
