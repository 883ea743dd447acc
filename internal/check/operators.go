// internal/check/operators.go
package check

import (
	"fmt"
	"strings"
)

/*
 * Comparison operators.
 *
 * Values are coerced via Coerce before reaching Compare.
 *
 *   - exists/is_null: null checks
 *   - eq/neq: equality, numbers compared as float64
 *   - lt/lte/gt/gte: numeric only; incomparable operands compare equal
 *   - prefix/suffix: strings only, false otherwise
 *   - in: membership with eq semantics
 *
 * A switch over 11 operators reads better than 11 interface implementations
 * with almost no behaviour between them.
 */

// Operator is a field check comparison.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpPrefix
	OpSuffix
	OpIn
	OpExists
	OpIsNull
)

var operatorNames = map[string]Operator{
	"eq":      OpEq,
	"neq":     OpNeq,
	"lt":      OpLt,
	"lte":     OpLte,
	"gt":      OpGt,
	"gte":     OpGte,
	"prefix":  OpPrefix,
	"suffix":  OpSuffix,
	"in":      OpIn,
	"exists":  OpExists,
	"is_null": OpIsNull,
}

// ParseOperator reads the spec's "op" value.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorNames[strings.ToLower(s)]
	if !ok {
		return OpUnspecified, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
	return op, nil
}

// Compare applies op to value and target.
func Compare(op Operator, value, target any) bool {
	switch op {
	case OpExists:
		return value != nil
	case OpIsNull:
		return value == nil
	case OpEq:
		return compareEqual(value, target)
	case OpNeq:
		return !compareEqual(value, target)
	case OpLt:
		return compareNumeric(value, target) < 0
	case OpLte:
		return compareNumeric(value, target) <= 0
	case OpGt:
		return compareNumeric(value, target) > 0
	case OpGte:
		return compareNumeric(value, target) >= 0
	case OpPrefix:
		vs, ok1 := value.(string)
		ps, ok2 := target.(string)
		return ok1 && ok2 && strings.HasPrefix(vs, ps)
	case OpSuffix:
		vs, ok1 := value.(string)
		ss, ok2 := target.(string)
		return ok1 && ok2 && strings.HasSuffix(vs, ss)
	case OpIn:
		set, ok := target.([]any)
		if !ok {
			return false
		}
		for _, elem := range set {
			if compareEqual(value, elem) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	switch a.(type) {
	case string, bool:
		return a == b
	default:
		// maps and slices are not comparable with ==
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
}

// compareNumeric performs a three-way comparison; 0 for incomparable types.
func compareNumeric(a, b any) int {
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return 0
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}
