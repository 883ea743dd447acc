// internal/check/field.go
package check

import (
	"context"
	"errors"

	"github.com/solatis/expectree/internal/types"
)

/*
 * Field check evaluation.
 *
 * resolve path -> coerce -> compare, with the two policies:
 *   - missing or null field: on_missing (skip => unknown, match => pass, fail => fail)
 *   - coercion failure: on_coercion (skip => unknown, match => pass, error => error)
 *
 * Unknown leaves the leaf PENDING, so a fact that shows up later can still
 * settle it on the next run.
 */

// FieldChecker handles KindField leaves.
type FieldChecker struct{}

func (FieldChecker) Validate(spec types.Spec) error {
	_, err := CompileField(spec)
	return err
}

func (FieldChecker) Cost(spec types.Spec) int {
	cond, err := CompileField(spec)
	if err != nil {
		return 0
	}
	return cond.Cost
}

func (FieldChecker) Check(_ context.Context, spec types.Spec, facts Facts) (Outcome, error) {
	cond, err := CompileField(spec)
	if err != nil {
		return OutcomeUnknown, err
	}
	return cond.Evaluate(facts)
}

// Evaluate runs a compiled condition against facts.
func (c *FieldCondition) Evaluate(facts Facts) (Outcome, error) {
	resolved, err := Resolve(c.Path, facts)
	if errors.Is(err, ErrFieldNotFound) {
		return c.missing(), nil
	}
	if err != nil {
		return OutcomeUnknown, err
	}

	coerced, err := Coerce(resolved.Value, c.FieldType)
	if errors.Is(err, ErrCoercionFailed) {
		return c.coercionFailed()
	}
	if err != nil {
		return OutcomeUnknown, err
	}
	if coerced.IsNull {
		if c.Operator == OpIsNull {
			return OutcomePass, nil
		}
		return c.missing(), nil
	}

	var target any
	switch {
	case len(c.FieldRef) > 0:
		ref, err := Resolve(c.FieldRef, facts)
		if err != nil || !ref.Found {
			return c.missing(), nil
		}
		refCoerced, err := Coerce(ref.Value, c.FieldType)
		if err != nil || refCoerced.IsNull {
			return c.missing(), nil
		}
		target = refCoerced.Value
	case c.Operator == OpIn:
		target = c.Values
	default:
		target = c.Value
	}

	if Compare(c.Operator, coerced.Value, target) {
		return OutcomePass, nil
	}
	return OutcomeFail, nil
}

func (c *FieldCondition) missing() Outcome {
	switch c.OnMissing {
	case OnMissingMatch:
		return OutcomePass
	case OnMissingFail:
		return OutcomeFail
	default:
		return OutcomeUnknown
	}
}

func (c *FieldCondition) coercionFailed() (Outcome, error) {
	switch c.OnCoercion {
	case OnCoercionMatch:
		return OutcomePass, nil
	case OnCoercionError:
		return OutcomeUnknown, ErrCoercionFailed
	default:
		return OutcomeUnknown, nil
	}
}
