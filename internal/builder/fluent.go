package builder

import (
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

// Fluent chains builder calls and keeps the first error, reporting it from
// Build. Calls after an error are no-ops.
//
//	t, err := builder.NewFluent().
//		Expect(types.NewSpec("cursor.at", nil)).
//		And().
//		Expect(types.NewSpec("cursor.at", nil)).
//		Build()
type Fluent struct {
	b   *Builder
	err error
}

// NewFluent wraps a new Builder.
func NewFluent(opts ...Option) *Fluent {
	return &Fluent{b: New(opts...)}
}

// Wrap chains calls on an existing Builder.
func Wrap(b *Builder) *Fluent { return &Fluent{b: b} }

func (f *Fluent) do(fn func() error) *Fluent {
	if f.err == nil {
		f.err = fn()
	}
	return f
}

// Expect creates a leaf from spec and adds it.
func (f *Fluent) Expect(spec types.Spec, opts ...LeafOption) *Fluent {
	return f.do(func() error {
		_, err := f.b.Expect(spec, opts...)
		return err
	})
}

// Add adds a prebuilt node of any variant.
func (f *Fluent) Add(node tree.Node) *Fluent {
	return f.do(func() error { return f.b.AddExpectation(node) })
}

func (f *Fluent) And() *Fluent { return f.do(f.b.And) }
func (f *Fluent) Or() *Fluent  { return f.do(f.b.Or) }
func (f *Fluent) Not() *Fluent { return f.do(f.b.Not) }

// Group builds a nested expression with fn.
func (f *Fluent) Group(fn func(*Fluent), alias string) *Fluent {
	return f.do(func() error {
		return f.b.Group(func(nested *Builder) error {
			inner := Wrap(nested)
			fn(inner)
			return inner.err
		}, alias)
	})
}

// Err returns the first error recorded so far.
func (f *Fluent) Err() error { return f.err }

// Build finalizes and attaches state.
func (f *Fluent) Build() (*state.Tree, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.b.Build()
}

// BuildRoot finalizes without state.
func (f *Fluent) BuildRoot() (*tree.Root, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.b.BuildRoot()
}

// Visualize previews the tree without consuming the builder.
func (f *Fluent) Visualize() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.b.Visualize()
}
