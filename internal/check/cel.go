// internal/check/cel.go
package check

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/solatis/expectree/internal/types"
)

// KindCEL is the spec kind handled by CELChecker. The expression lives under
// "expr" and sees the facts document as the dynamic variable "facts":
//
//	{kind: cel, expr: "facts.user.age >= 18 && 'admin' in facts.user.roles"}
const KindCEL = "cel"

// celCostLimit bounds runaway expressions.
const celCostLimit = 1000000

// CELChecker compiles expressions once and caches the programs by source.
type CELChecker struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELChecker creates a checker with a single dyn variable "facts".
func NewCELChecker() (*CELChecker, error) {
	env, err := cel.NewEnv(cel.Variable("facts", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &CELChecker{env: env, programs: make(map[string]cel.Program)}, nil
}

func expression(spec types.Spec) (string, error) {
	expr, _ := spec["expr"].(string)
	if strings.TrimSpace(expr) == "" {
		return "", fmt.Errorf("%w: cel check requires \"expr\"", types.ErrInvalidSpec)
	}
	return expr, nil
}

func (c *CELChecker) program(expr string) (cel.Program, error) {
	c.mu.RLock()
	prog, ok := c.programs[expr]
	c.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prog, err := c.env.Program(ast,
		cel.CostLimit(celCostLimit),
		cel.InterruptCheckFrequency(100),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	c.mu.Lock()
	c.programs[expr] = prog
	c.mu.Unlock()
	return prog, nil
}

func (c *CELChecker) Validate(spec types.Spec) error {
	expr, err := expression(spec)
	if err != nil {
		return err
	}
	_, err = c.program(expr)
	return err
}

func (c *CELChecker) Cost(types.Spec) int { return CostCEL }

func (c *CELChecker) Check(ctx context.Context, spec types.Spec, facts Facts) (Outcome, error) {
	expr, err := expression(spec)
	if err != nil {
		return OutcomeUnknown, err
	}
	prog, err := c.program(expr)
	if err != nil {
		return OutcomeUnknown, err
	}
	if facts == nil {
		facts = Facts{}
	}
	out, _, err := prog.ContextEval(ctx, map[string]any{"facts": facts})
	if err != nil {
		return OutcomeUnknown, err
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return OutcomeUnknown, fmt.Errorf("%w: got %s", ErrNotBool, out.Type().TypeName())
	}
	if matched {
		return OutcomePass, nil
	}
	return OutcomeFail, nil
}
