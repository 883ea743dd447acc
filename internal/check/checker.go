// Package check produces leaf outcomes from facts.
//
// A Checker interprets the spec payload of one kind of expectation. The
// Runner walks an attached tree, hands each leaf to the checker registered
// for its kind, and reports the verdict back through the leaf handle.
package check

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/solatis/expectree/internal/types"
)

// Facts is the decoded document checks are evaluated against.
type Facts = map[string]any

// Outcome is the verdict of one check.
type Outcome int

const (
	// OutcomeUnknown leaves the leaf PENDING (e.g. on_missing=skip).
	OutcomeUnknown Outcome = iota
	OutcomePass
	OutcomeFail
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Status maps the outcome onto the leaf status it produces.
func (o Outcome) Status() types.Status {
	switch o {
	case OutcomePass:
		return types.StatusPassed
	case OutcomeFail:
		return types.StatusFailed
	default:
		return types.StatusPending
	}
}

// Checker evaluates leaves of one kind.
type Checker interface {
	// Validate reports whether spec is well formed, without evaluating it.
	Validate(spec types.Spec) error
	// Cost estimates the evaluation cost of spec; lower runs first.
	Cost(spec types.Spec) int
	Check(ctx context.Context, spec types.Spec, facts Facts) (Outcome, error)
}

// Registry maps spec kinds to checkers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// DefaultRegistry registers the field and cel checkers.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	r.Register(KindField, FieldChecker{})
	celChecker, err := NewCELChecker()
	if err != nil {
		return nil, err
	}
	r.Register(KindCEL, celChecker)
	return r, nil
}

// Register installs c for kind, replacing any previous checker.
func (r *Registry) Register(kind string, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[kind] = c
}

// Lookup returns the checker for kind.
func (r *Registry) Lookup(kind string) (Checker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checkers[kind]
	return c, ok
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.checkers))
	for k := range r.checkers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Validate checks spec against the checker of its kind.
func (r *Registry) Validate(spec types.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	c, ok := r.Lookup(spec.Kind())
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKind, spec.Kind())
	}
	return c.Validate(spec)
}
