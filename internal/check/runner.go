// internal/check/runner.go
package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/types"
)

/*
 * Concurrent check runner.
 *
 * Run dispatches every leaf whose kind has a registered checker onto a
 * bounded errgroup, cheapest first. Each verdict lands through Leaf.Observe,
 * so every leaf report is its own atomic state transition and a crashed
 * check leaves the leaf FAILED instead of PENDING.
 *
 * Check errors do not cancel the other checks; they are collected and
 * returned joined once the group drains. Leaves of unregistered kinds are
 * logged and left alone.
 */

// DefaultConcurrency is used when Runner.Concurrency is not positive.
const DefaultConcurrency = 4

// Observer receives one call per completed check.
type Observer func(kind string, outcome Outcome, err error, elapsed time.Duration)

// Runner evaluates the leaves of an attached tree.
type Runner struct {
	Registry    *Registry
	Concurrency int
	Logger      *slog.Logger
	Observe     Observer
}

// Summary counts the outcomes of one Run.
type Summary struct {
	Passed      int `json:"passed" yaml:"passed"`
	Failed      int `json:"failed" yaml:"failed"`
	Unknown     int `json:"unknown" yaml:"unknown"`
	Errored     int `json:"errored" yaml:"errored"`
	Unsupported int `json:"unsupported" yaml:"unsupported"`
}

type job struct {
	leaf    *state.Leaf
	checker Checker
	cost    int
}

// Run checks every supported leaf of t against facts.
func (r *Runner) Run(ctx context.Context, t *state.Tree, facts Facts) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		summary Summary
		jobs    []job
	)
	for _, leaf := range t.AllLeaves() {
		kind := leaf.Node().Kind()
		c, ok := r.Registry.Lookup(kind)
		if !ok {
			summary.Unsupported++
			logger.Warn("no checker for expectation kind", "id", leaf.ID(), "kind", kind)
			continue
		}
		jobs = append(jobs, job{leaf: leaf, checker: c, cost: c.Cost(leaf.Node().Spec())})
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].cost < jobs[j].cost })

	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		j := j
		g.Go(func() error {
			outcome, err := r.runOne(ctx, j, facts)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Errored++
				errs = append(errs, fmt.Errorf("check %s: %w", j.leaf.ID(), err))
				logger.Error("check failed", "id", j.leaf.ID(), "kind", j.leaf.Node().Kind(), "error", err)
			case outcome == OutcomePass:
				summary.Passed++
			case outcome == OutcomeFail:
				summary.Failed++
			default:
				summary.Unknown++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	logger.Debug("checks complete",
		"passed", summary.Passed,
		"failed", summary.Failed,
		"unknown", summary.Unknown,
		"errored", summary.Errored,
		"unsupported", summary.Unsupported,
		"status", t.Status())
	return summary, errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, j job, facts Facts) (Outcome, error) {
	spec := j.leaf.Node().Spec()
	start := time.Now()
	var outcome Outcome
	err := j.leaf.Observe(ctx, func(ctx context.Context) (types.Status, error) {
		var err error
		outcome, err = j.checker.Check(ctx, spec, facts)
		return outcome.Status(), err
	})
	if r.Observe != nil {
		r.Observe(spec.Kind(), outcome, err, time.Since(start))
	}
	return outcome, err
}
