package builder

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/solatis/expectree/internal/render"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

var check = Define("check")

func newLeaf(t *testing.T, b *Builder, opts ...LeafOption) *tree.Expectation {
	t.Helper()
	l, err := check(b.IDs(), nil, opts...)
	if err != nil {
		t.Fatalf("NewLeaf() error = %v", err)
	}
	return l
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuilder_LeftToRight(t *testing.T) {
	b := New()
	a, bb, c := newLeaf(t, b), newLeaf(t, b), newLeaf(t, b)

	must(t, b.AddExpectation(a))
	must(t, b.And())
	must(t, b.AddExpectation(bb))
	must(t, b.Or())
	must(t, b.AddExpectation(c))

	root, err := b.BuildRoot()
	if err != nil {
		t.Fatalf("BuildRoot() error = %v", err)
	}
	or, ok := root.Child().(*tree.Or)
	if !ok {
		t.Fatalf("child = %T, want *tree.Or", root.Child())
	}
	and, ok := or.Left().(*tree.And)
	if !ok || and.Left() != tree.Node(a) || and.Right() != tree.Node(bb) || or.Right() != tree.Node(c) {
		t.Errorf("tree = %s, want OR(AND(a, b), c)", render.ASCII(root, nil))
	}
	if got := []types.NodeID{a.ID(), bb.ID(), c.ID()}; !cmp.Equal(got, []types.NodeID{"exp_0", "exp_1", "exp_2"}) {
		t.Errorf("ids = %v", got)
	}
}

func TestBuilder_Not(t *testing.T) {
	b := New()
	a := newLeaf(t, b)
	must(t, b.AddExpectation(a))
	must(t, b.Not())
	must(t, b.Not())
	root, err := b.BuildRoot()
	if err != nil {
		t.Fatal(err)
	}
	outer, ok := root.Child().(*tree.Not)
	if !ok {
		t.Fatalf("child = %T, want *tree.Not", root.Child())
	}
	if inner, ok := outer.Child().(*tree.Not); !ok || inner.Child() != tree.Node(a) {
		t.Errorf("tree = %s, want NOT(NOT(a))", render.ASCII(root, nil))
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		run     func(b *Builder) error
		wantErr error
	}{
		{"and on empty", func(b *Builder) error { return b.And() }, types.ErrMissingOperand},
		{"or on empty", func(b *Builder) error { return b.Or() }, types.ErrMissingOperand},
		{"not on empty", func(b *Builder) error { return b.Not() }, types.ErrMissingOperand},
		{"build empty", func(b *Builder) error { _, err := b.Build(); return err }, types.ErrEmptyTree},
		{"nil node", func(b *Builder) error { return b.AddExpectation(nil) }, types.ErrNilNode},
		{"two leaves without operator", func(b *Builder) error {
			if _, err := b.Expect(types.NewSpec("check", nil)); err != nil {
				return err
			}
			_, err := b.Expect(types.NewSpec("check", nil))
			return err
		}, types.ErrExpectationCombination},
		{"dangling operator", func(b *Builder) error {
			if _, err := b.Expect(types.NewSpec("check", nil)); err != nil {
				return err
			}
			if err := b.And(); err != nil {
				return err
			}
			_, err := b.BuildRoot()
			return err
		}, types.ErrIncompleteOperation},
		{"group next to a leaf", func(b *Builder) error {
			if _, err := b.Expect(types.NewSpec("check", nil)); err != nil {
				return err
			}
			if err := b.Group(func(g *Builder) error {
				_, err := g.Expect(types.NewSpec("check", nil))
				return err
			}, ""); err != nil {
				return err
			}
			_, err := b.BuildRoot()
			return err
		}, types.ErrMultipleNodes},
		{"empty group", func(b *Builder) error {
			return b.Group(func(*Builder) error { return nil }, "g")
		}, types.ErrEmptyGroup},
		{"duplicate alias across groups", func(b *Builder) error {
			if _, err := b.Expect(types.NewSpec("check", nil), WithAlias("ready")); err != nil {
				return err
			}
			if err := b.And(); err != nil {
				return err
			}
			if err := b.Group(func(g *Builder) error {
				_, err := g.Expect(types.NewSpec("check", nil), WithAlias("ready"))
				return err
			}, "svc"); err != nil {
				return err
			}
			_, err := b.BuildRoot()
			return err
		}, types.ErrDuplicateAlias},
		{"invalid spec", func(b *Builder) error {
			_, err := b.Expect(types.Spec{})
			return err
		}, types.ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(New()); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_ErrorDetails(t *testing.T) {
	var missing *types.MissingOperandError
	if err := New().Not(); !errors.As(err, &missing) || missing.Operand != "NOT" {
		t.Errorf("Not() error = %v, want MissingOperandError{NOT}", err)
	}
	if err := New().And(); !errors.As(err, &missing) || missing.Operand != "left" {
		t.Errorf("And() error = %v, want MissingOperandError{left}", err)
	}

	b := New()
	if _, err := b.Expect(types.NewSpec("check", nil)); err != nil {
		t.Fatal(err)
	}
	must(t, b.Or())
	var incomplete *types.IncompleteOperationError
	if _, err := b.BuildRoot(); !errors.As(err, &incomplete) || incomplete.Operator != types.OperatorOr {
		t.Errorf("BuildRoot() error = %v, want IncompleteOperationError{OR}", err)
	}
}

func TestBuilder_Group(t *testing.T) {
	b := New()
	_, err := b.Expect(types.NewSpec("check", nil), WithAlias("base"))
	must(t, err)
	must(t, b.And())
	must(t, b.Group(func(g *Builder) error {
		if _, err := g.Expect(types.NewSpec("check", nil), WithAlias("isLoggedIn")); err != nil {
			return err
		}
		if err := g.Or(); err != nil {
			return err
		}
		_, err := g.Expect(types.NewSpec("check", nil), WithAlias("isGuest"))
		return err
	}, "User"))

	tr, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	root := tr.Root()
	if _, ok := root.NodeByAlias("User.isLoggedIn"); !ok {
		t.Error("NodeByAlias(User.isLoggedIn) not found")
	}
	// Nested builders share the id generator.
	got := make([]types.NodeID, 0, 3)
	for _, l := range root.Leaves() {
		got = append(got, l.ID())
	}
	if diff := cmp.Diff([]types.NodeID{"exp_0", "exp_1", "exp_2"}, got); diff != "" {
		t.Errorf("leaf ids mismatch (-want +got):\n%s", diff)
	}
	if !tr.IsPending() {
		t.Errorf("Status() = %v, want PENDING", tr.Status())
	}
	if err := tr.Fulfill("exp_0"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Fulfill("exp_2"); err != nil {
		t.Fatal(err)
	}
	if !tr.IsFulfilled() {
		t.Errorf("Status() = %v, want PASSED", tr.Status())
	}
}

func TestBuilder_GroupErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	if err := New().Group(func(*Builder) error { return boom }, ""); err != boom {
		t.Errorf("Group() error = %v, want %v", err, boom)
	}
}

func TestBuilder_Visualize(t *testing.T) {
	b := New()
	_, err := b.Expect(types.NewSpec("check", nil), WithAlias("a"))
	must(t, err)
	must(t, b.And())
	_, err = b.Expect(types.NewSpec("check", nil), WithAlias("b"))
	must(t, err)

	first, err := b.Visualize()
	if err != nil {
		t.Fatalf("Visualize() error = %v", err)
	}
	second, err := b.Visualize()
	if err != nil || first != second {
		t.Errorf("Visualize() is not repeatable: %q, %v", second, err)
	}
	if !strings.Contains(first, "AND") || !strings.Contains(first, "EXPECTATION (a | kind=check)") {
		t.Errorf("Visualize() = %q", first)
	}
	root, err := b.BuildRoot()
	if err != nil {
		t.Fatalf("BuildRoot() after Visualize() error = %v", err)
	}
	if render.ASCII(root, nil) != first {
		t.Error("Visualize() and BuildRoot() disagree")
	}

	// The built root stays available.
	again, err := b.BuildRoot()
	if err != nil || again != root {
		t.Errorf("BuildRoot() again = %v, %v, want the same root", again, err)
	}
}

func TestNewLeaf_Options(t *testing.T) {
	ids := types.NewIncrementalIDs("x-")
	l, err := NewLeaf(ids, types.NewSpec("http", map[string]any{"url": "u"}),
		WithID("custom"), WithAlias("svc.up"), WithTags("net", "net", "fast"), WithGroup("health"))
	if err != nil {
		t.Fatalf("NewLeaf() error = %v", err)
	}
	want := types.Metadata{Alias: "svc.up", Tags: []string{"net", "fast"}, Group: "health"}
	if diff := cmp.Diff(want, l.Metadata()); diff != "" {
		t.Errorf("Metadata() mismatch (-want +got):\n%s", diff)
	}
	if l.ID() != "custom" || l.Kind() != "http" {
		t.Errorf("leaf = %v/%v", l.ID(), l.Kind())
	}
	if next := ids.Next(); next != "x-0" {
		t.Errorf("WithID consumed a generated id: next = %v", next)
	}
}

func TestFluent(t *testing.T) {
	tr, err := NewFluent().
		Expect(types.NewSpec("check", nil), WithAlias("a")).
		And().
		Group(func(f *Fluent) {
			f.Expect(types.NewSpec("check", nil), WithAlias("b")).
				Or().
				Expect(types.NewSpec("check", nil), WithAlias("c"))
		}, "inner").
		Not().
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, ok := tr.Root().Child().(*tree.Not); !ok {
		t.Errorf("child = %T, want *tree.Not wrapping the AND", tr.Root().Child())
	}

	f := NewFluent().And().Expect(types.NewSpec("check", nil))
	if !errors.Is(f.Err(), types.ErrMissingOperand) {
		t.Errorf("Err() = %v, want ErrMissingOperand", f.Err())
	}
	if _, err := f.Build(); !errors.Is(err, types.ErrMissingOperand) {
		t.Errorf("Build() error = %v, want the first error", err)
	}
	if _, err := f.Visualize(); !errors.Is(err, types.ErrMissingOperand) {
		t.Errorf("Visualize() error = %v, want the first error", err)
	}

	inner := NewFluent().Group(func(f *Fluent) { f.Not() }, "")
	if !errors.Is(inner.Err(), types.ErrMissingOperand) {
		t.Errorf("nested error = %v, want ErrMissingOperand", inner.Err())
	}
}

func TestExpr(t *testing.T) {
	ids := types.NewIncrementalIDs("e")
	a, _ := NewLeaf(ids, types.NewSpec("check", nil))
	b, _ := NewLeaf(ids, types.NewSpec("check", nil))
	c, _ := NewLeaf(ids, types.NewSpec("check", nil))

	e := Of(a).And(Of(b))
	root, err := e.Or(Of(c)).Not().Group("g").Root()
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}
	want := `ROOT
\- GROUP (alias=g)
   \- NOT
      \- OR
         +- AND
         |  +- EXPECTATION (e0 | kind=check)
         |  \- EXPECTATION (e1 | kind=check)
         \- EXPECTATION (e2 | kind=check)`
	if diff := cmp.Diff(want, render.ASCII(root, nil)); diff != "" {
		t.Errorf("Root() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := e.Node().(*tree.And); !ok {
		t.Error("Expr methods must not modify the receiver")
	}

	// Builders accept prebuilt subtrees.
	b2 := New()
	must(t, b2.AddExpectation(e.Node()))
	if _, err := b2.BuildRoot(); err != nil {
		t.Errorf("BuildRoot() error = %v", err)
	}
}
