// Package types provides domain models shared across expectree components.
//
// Zero-dependency design: types.go, status.go and errors.go use only the standard
// library so the node model, evaluator and state container stay importable
// without pulling in CLI or transport deps. ID generation in ids.go imports uuid
// but is isolated so the incremental generator can be used on its own.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// NodeID identifies an expectation leaf. Unique within a tree.
type NodeID string

// NodeType is the discriminator of the closed node variant set.
type NodeType string

const (
	NodeRoot        NodeType = "ROOT"
	NodeGroup       NodeType = "GROUP"
	NodeAnd         NodeType = "AND"
	NodeOr          NodeType = "OR"
	NodeNot         NodeType = "NOT"
	NodeExpectation NodeType = "EXPECTATION"
)

// Operator is the pending combination slot of the builder.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// Spec is the opaque payload of an expectation. Only the "kind" key is required;
// everything else belongs to whatever produces the leaf's outcome.
type Spec map[string]any

// KindKey is the discriminator key of a Spec.
const KindKey = "kind"

// NewSpec builds a Spec with the given kind and extra fields.
func NewSpec(kind string, fields map[string]any) Spec {
	s := make(Spec, len(fields)+1)
	for k, v := range fields {
		s[k] = v
	}
	s[KindKey] = kind
	return s
}

// Kind returns the discriminator, or "" when absent or not a string.
func (s Spec) Kind() string {
	k, _ := s[KindKey].(string)
	return k
}

// Validate checks the required kind field.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Kind()) == "" {
		return fmt.Errorf("%w: missing %q", ErrInvalidSpec, KindKey)
	}
	return nil
}

// Clone returns a deep copy of the nested maps and slices decoded from JSON
// or YAML, so callers cannot mutate a leaf's payload. Other values are
// copied as is.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	out := make(Spec, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Spec:
		return v.Clone()
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// Metadata is the optional lookup information carried by a leaf.
type Metadata struct {
	Alias string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Group string   `json:"group,omitempty" yaml:"group,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m.Alias == "" && len(m.Tags) == 0 && m.Group == ""
}

// DedupeTags drops empty and repeated tags, keeping first-seen order.
func DedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedIDs returns the keys of a status map in lexical order.
// Used wherever output must be deterministic (CLI, documents).
func SortedIDs[V any](m map[NodeID]V) []NodeID {
	ids := make([]NodeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
