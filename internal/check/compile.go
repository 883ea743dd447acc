// internal/check/compile.go
package check

import (
	"fmt"
	"strings"

	"github.com/solatis/expectree/internal/types"
)

/*
 * Field check compilation.
 *
 * Turns the payload of a "field" leaf into a FieldCondition with a parsed
 * path, validated resource limits, and a cost used by the Runner to dispatch
 * cheap checks first.
 *
 * Spec keys:
 *   path         required, see ParsePath
 *   op           eq (default), neq, lt, lte, gt, gte, prefix, suffix, in, exists, is_null
 *   type         any (default), numeric, text, boolean
 *   value        comparison value
 *   values       list for in
 *   ref          path of a second fact to compare against instead of value; no wildcards
 *   on_missing   skip (default), match, fail
 *   on_coercion  skip (default), match, error
 *
 * Limits are enforced here so a bad leaf is reported once, at compile time,
 * instead of on every run.
 */

// KindField is the spec kind handled by FieldChecker.
const KindField = "field"

// OnMissingField is the policy for a missing or null field.
type OnMissingField int

const (
	OnMissingSkip OnMissingField = iota
	OnMissingMatch
	OnMissingFail
)

// OnCoercionPolicy is the policy for a value that cannot be coerced.
type OnCoercionPolicy int

const (
	OnCoercionSkip OnCoercionPolicy = iota
	OnCoercionMatch
	OnCoercionError
)

// FieldCondition is a compiled field check.
type FieldCondition struct {
	Path       []PathSegment
	Operator   Operator
	FieldType  FieldType
	Value      any   // nil for exists/is_null
	Values     []any // for in
	FieldRef   []PathSegment
	OnMissing  OnMissingField
	OnCoercion OnCoercionPolicy
	Cost       int
}

// CompileField validates a field spec.
func CompileField(spec types.Spec) (*FieldCondition, error) {
	pathStr, _ := spec["path"].(string)
	path, err := ParsePath(pathStr)
	if err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}

	op := OpEq
	if s, ok := spec["op"].(string); ok && s != "" {
		if op, err = ParseOperator(s); err != nil {
			return nil, err
		}
	}

	typeStr, _ := spec["type"].(string)
	ft, err := ParseFieldType(typeStr)
	if err != nil {
		return nil, err
	}

	cond := &FieldCondition{
		Path:      path,
		Operator:  op,
		FieldType: ft,
		Value:     spec["value"],
	}

	if refStr, ok := spec["ref"].(string); ok && refStr != "" {
		ref, err := ParsePath(refStr)
		if err != nil {
			return nil, err
		}
		for _, seg := range ref {
			if seg.Wildcard {
				return nil, ErrWildcardInFieldRef
			}
		}
		cond.FieldRef = ref
	}

	if op == OpIn {
		values, ok := toSlice(spec["values"])
		if !ok {
			return nil, fmt.Errorf("%w: in requires a list of values", types.ErrInvalidSpec)
		}
		if len(values) > MaxInOperatorValues {
			return nil, ErrTooManyInValues
		}
		cond.Values = values
	}

	if cond.OnMissing, err = parseMissing(spec["on_missing"]); err != nil {
		return nil, err
	}
	if cond.OnCoercion, err = parseCoercion(spec["on_coercion"]); err != nil {
		return nil, err
	}

	cond.Cost = FieldCost(path, op, ft)
	return cond, nil
}

func parseMissing(v any) (OnMissingField, error) {
	s, _ := v.(string)
	switch strings.ToLower(s) {
	case "", "skip":
		return OnMissingSkip, nil
	case "match":
		return OnMissingMatch, nil
	case "fail":
		return OnMissingFail, nil
	default:
		return 0, fmt.Errorf("%w: on_missing %q", ErrInvalidPolicy, s)
	}
}

func parseCoercion(v any) (OnCoercionPolicy, error) {
	s, _ := v.(string)
	switch strings.ToLower(s) {
	case "", "skip":
		return OnCoercionSkip, nil
	case "match":
		return OnCoercionMatch, nil
	case "error":
		return OnCoercionError, nil
	default:
		return 0, fmt.Errorf("%w: on_coercion %q", ErrInvalidPolicy, s)
	}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}
