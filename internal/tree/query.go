package tree

import (
	"strings"

	"github.com/solatis/expectree/internal/types"
)

// Selector matches leaves. Exact id and alias selectors go through the Index;
// tag, group and predicate selectors scan the leaves, since tags and group
// labels are not unique.
type Selector interface {
	find(r *Root) []*Expectation
}

type idSelector types.NodeID
type aliasSelector string
type tagSelector []string
type groupSelector string
type predicateSelector func(*Expectation) bool

// ByID selects the leaf with the given identifier.
func ByID(id types.NodeID) Selector { return idSelector(id) }

// ByAlias selects the leaf reachable under an alias key (dot path).
func ByAlias(alias string) Selector { return aliasSelector(alias) }

// ByTag selects every leaf carrying any of the given tags.
func ByTag(tags ...string) Selector { return tagSelector(tags) }

// ByGroup selects every leaf whose group label equals group.
func ByGroup(group string) Selector { return groupSelector(group) }

// Where selects every leaf satisfying pred.
func Where(pred func(*Expectation) bool) Selector { return predicateSelector(pred) }

func (s idSelector) find(r *Root) []*Expectation {
	if leaf, ok := r.NodeByID(types.NodeID(s)); ok {
		return []*Expectation{leaf}
	}
	return nil
}

func (s aliasSelector) find(r *Root) []*Expectation {
	if leaf, ok := r.NodeByAlias(string(s)); ok {
		return []*Expectation{leaf}
	}
	return nil
}

func (s tagSelector) find(r *Root) []*Expectation {
	return r.FindFunc(func(e *Expectation) bool {
		for _, t := range s {
			if e.HasTag(t) {
				return true
			}
		}
		return false
	})
}

func (s groupSelector) find(r *Root) []*Expectation {
	return r.FindFunc(func(e *Expectation) bool { return e.group == string(s) })
}

func (s predicateSelector) find(r *Root) []*Expectation {
	return r.FindFunc(s)
}

// idOrAlias is the default string selector: exact id first, then alias.
type idOrAlias string

func (s idOrAlias) find(r *Root) []*Expectation {
	if leaf, ok := r.NodeByID(types.NodeID(s)); ok {
		return []*Expectation{leaf}
	}
	if leaf, ok := r.NodeByAlias(string(s)); ok {
		return []*Expectation{leaf}
	}
	return nil
}

// ParseSelector reads the string selector syntax:
//
//	#tag    leaves tagged "tag"
//	@group  leaves in group "group"
//	other   exact id, falling back to alias
func ParseSelector(s string) Selector {
	switch {
	case strings.HasPrefix(s, "#"):
		return ByTag(s[1:])
	case strings.HasPrefix(s, "@"):
		return ByGroup(s[1:])
	default:
		return idOrAlias(s)
	}
}

// Find returns every leaf matching sel, in depth-first order for scans.
func (r *Root) Find(sel Selector) []*Expectation {
	if sel == nil {
		return nil
	}
	return sel.find(r)
}

// FindOne returns the first match of sel.
func (r *Root) FindOne(sel Selector) (*Expectation, bool) {
	found := r.Find(sel)
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// FindByTag returns leaves carrying tag.
func (r *Root) FindByTag(tag string) []*Expectation { return r.Find(ByTag(tag)) }

// FindByAnyTag returns leaves carrying at least one of tags.
func (r *Root) FindByAnyTag(tags ...string) []*Expectation { return r.Find(ByTag(tags...)) }

// FindByGroup returns leaves whose group label is exactly group.
func (r *Root) FindByGroup(group string) []*Expectation { return r.Find(ByGroup(group)) }

// FindFunc returns leaves satisfying pred.
func (r *Root) FindFunc(pred func(*Expectation) bool) []*Expectation {
	var out []*Expectation
	for _, leaf := range r.index.leaves {
		if pred(leaf) {
			out = append(out, leaf)
		}
	}
	return out
}
