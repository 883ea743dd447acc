package check

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/solatis/expectree/internal/builder"
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/types"
)

// buildTree returns (age >= 18 AND role is admin) OR manual.
func buildTree(t *testing.T) *state.Tree {
	t.Helper()
	tr, err := builder.NewFluent().
		Group(func(f *builder.Fluent) {
			f.Expect(fieldSpec(map[string]any{"path": "user.age", "op": "gte", "type": "numeric", "value": 18}),
				builder.WithAlias("user.adult")).
				And().
				Expect(celSpec("'admin' in facts.user.roles"), builder.WithAlias("user.admin"))
		}, "access").
		Or().
		Expect(types.NewSpec("manual", nil), builder.WithAlias("override")).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tr
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry() error = %v", err)
	}
	return &Runner{Registry: r, Concurrency: 2}
}

func TestRunner_Run(t *testing.T) {
	tr := buildTree(t)
	runner := newRunner(t)

	var mu sync.Mutex
	observed := map[string]int{}
	runner.Observe = func(kind string, _ Outcome, _ error, _ time.Duration) {
		mu.Lock()
		observed[kind]++
		mu.Unlock()
	}

	facts := Facts{"user": map[string]any{"age": 21.0, "roles": []any{"admin"}}}
	summary, err := runner.Run(context.Background(), tr, facts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Passed != 2 || summary.Unsupported != 1 {
		t.Errorf("Run() summary = %+v, want 2 passed and 1 unsupported", summary)
	}
	if observed[KindField] != 1 || observed[KindCEL] != 1 {
		t.Errorf("observed = %v, want one call per kind", observed)
	}
	if tr.Status() != types.StatusPassed {
		t.Errorf("root status = %v, want PASSED", tr.Status())
	}
	leaf, err := tr.Leaf("override")
	if err != nil {
		t.Fatalf("Leaf(override) error = %v", err)
	}
	if !leaf.IsPending() {
		t.Errorf("unsupported leaf status = %v, want PENDING", leaf.Status())
	}
}

func TestRunner_FailingCheckMarksLeafFailed(t *testing.T) {
	tr := buildTree(t)
	runner := newRunner(t)

	// roles is missing, so the cel expression errors.
	facts := Facts{"user": map[string]any{"age": 21.0}}
	summary, err := runner.Run(context.Background(), tr, facts)
	if err == nil {
		t.Fatal("Run() error = nil, want the cel error")
	}
	if summary.Errored != 1 || summary.Passed != 1 {
		t.Errorf("Run() summary = %+v, want 1 errored and 1 passed", summary)
	}
	leaf, _ := tr.Leaf("user.admin")
	if !leaf.IsRejected() {
		t.Errorf("errored leaf status = %v, want FAILED", leaf.Status())
	}
	if tr.Status() != types.StatusPending {
		t.Errorf("root status = %v, want PENDING while override is open", tr.Status())
	}
}

func TestRunner_UnknownResetsLeaf(t *testing.T) {
	tr := buildTree(t)
	runner := newRunner(t)

	adult, _ := tr.Leaf("user.adult")
	if err := adult.Fulfill(); err != nil {
		t.Fatalf("Fulfill() error = %v", err)
	}
	// No age fact: on_missing=skip yields unknown.
	summary, _ := runner.Run(context.Background(), tr, Facts{"user": map[string]any{"roles": []any{}}})
	if summary.Unknown != 1 {
		t.Errorf("Run() summary = %+v, want 1 unknown", summary)
	}
	if !adult.IsPending() {
		t.Errorf("leaf status = %v, want PENDING", adult.Status())
	}
}

type blockingChecker struct{}

func (blockingChecker) Validate(types.Spec) error { return nil }
func (blockingChecker) Cost(types.Spec) int       { return 1 }
func (blockingChecker) Check(ctx context.Context, _ types.Spec, _ Facts) (Outcome, error) {
	<-ctx.Done()
	return OutcomeUnknown, ctx.Err()
}

func TestRunner_Cancelled(t *testing.T) {
	tr, err := builder.NewFluent().Expect(types.NewSpec("slow", nil)).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	reg := NewRegistry()
	reg.Register("slow", blockingChecker{})
	runner := &Runner{Registry: reg}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = runner.Run(ctx, tr, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want DeadlineExceeded", err)
	}
	if !tr.IsRejected() {
		t.Errorf("root status = %v, want FAILED after the check errored", tr.Status())
	}
}
