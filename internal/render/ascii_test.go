package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/tree"
	"github.com/solatis/expectree/internal/types"
)

func sample() *tree.Root {
	a := tree.NewExpectation("a", types.NewSpec("user", nil), types.Metadata{Alias: "isAdmin", Tags: []string{"x", "y"}})
	b := tree.NewExpectation("b", types.NewSpec("t", nil), types.Metadata{Group: "g"})
	c := tree.NewExpectation("c", types.NewSpec("t", nil), types.Metadata{})
	return tree.MustRoot(tree.NewOr(tree.NewGroup(tree.NewAnd(a, b), "User"), tree.NewNot(c)))
}

func TestASCII_Structure(t *testing.T) {
	want := `ROOT
\- OR
   +- GROUP (alias=User)
   |  \- AND
   |     +- EXPECTATION (isAdmin | kind=user | tags=x,y)
   |     \- EXPECTATION (b | kind=t | group=g)
   \- NOT
      \- EXPECTATION (c | kind=t)`
	if diff := cmp.Diff(want, ASCII(sample(), nil)); diff != "" {
		t.Errorf("ASCII() mismatch (-want +got):\n%s", diff)
	}
}

func TestASCII_Statuses(t *testing.T) {
	root := sample()
	snap, err := eval.Evaluate(root, eval.StatusMap{
		"a": types.StatusFailed,
		"b": types.StatusPassed,
		"c": types.StatusFailed,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	want := `ROOT [status=PASSED]
\- OR
   +- GROUP (alias=User)
   |  \- AND
   |     +- EXPECTATION (isAdmin | kind=user | tags=x,y | status=FAILED)
   |     \- EXPECTATION (b | kind=t | group=g | status=SKIPPED)
   \- NOT
      \- EXPECTATION (c | kind=t | status=FAILED)`
	if diff := cmp.Diff(want, ASCII(root, FromSnapshot(snap))); diff != "" {
		t.Errorf("ASCII() mismatch (-want +got):\n%s", diff)
	}
}

func TestASCII_Empty(t *testing.T) {
	if got := ASCII(tree.MustRoot(nil), nil); got != "ROOT (empty)" {
		t.Errorf("ASCII(empty) = %q", got)
	}
	if got := ASCII(nil, FromSnapshot(nil)); got != "ROOT (empty)" {
		t.Errorf("ASCII(nil) = %q", got)
	}
}
