package builder

import (
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

// LeafOption sets leaf metadata or overrides the generated id.
type LeafOption func(*leafConfig)

type leafConfig struct {
	id   types.NodeID
	meta types.Metadata
}

// WithID uses id instead of drawing one from the generator.
func WithID(id types.NodeID) LeafOption {
	return func(c *leafConfig) { c.id = id }
}

// WithAlias sets the lookup alias (a dot path is allowed).
func WithAlias(alias string) LeafOption {
	return func(c *leafConfig) { c.meta.Alias = alias }
}

// WithTags appends tags; duplicates are dropped.
func WithTags(tags ...string) LeafOption {
	return func(c *leafConfig) { c.meta.Tags = append(c.meta.Tags, tags...) }
}

// WithGroup sets the group label.
func WithGroup(group string) LeafOption {
	return func(c *leafConfig) { c.meta.Group = group }
}

// NewLeaf creates an expectation node, drawing its id from ids unless WithID
// is given.
func NewLeaf(ids types.IDGenerator, spec types.Spec, opts ...LeafOption) (*tree.Expectation, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	var cfg leafConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = ids.Next()
	}
	return tree.NewExpectation(cfg.id, spec, cfg.meta), nil
}

// Factory creates leaves of one kind from their extra fields.
type Factory func(ids types.IDGenerator, fields map[string]any, opts ...LeafOption) (*tree.Expectation, error)

// Define returns a Factory for kind.
//
//	userCheck := builder.Define("user")
//	leaf, err := userCheck(ids, map[string]any{"role": "admin"}, builder.WithAlias("user.isAdmin"))
func Define(kind string) Factory {
	return func(ids types.IDGenerator, fields map[string]any, opts ...LeafOption) (*tree.Expectation, error) {
		return NewLeaf(ids, types.NewSpec(kind, fields), opts...)
	}
}

// Expect creates a leaf with the builder's id generator and adds it.
func (b *Builder) Expect(spec types.Spec, opts ...LeafOption) (*tree.Expectation, error) {
	leaf, err := NewLeaf(b.ids, spec, opts...)
	if err != nil {
		return nil, err
	}
	if err := b.AddExpectation(leaf); err != nil {
		return nil, err
	}
	return leaf, nil
}
