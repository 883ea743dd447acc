// internal/check/coercion.go
package check

import (
	"fmt"
	"strconv"
	"strings"
)

/*
 * Type coercion for field checks.
 *
 * Null values and coercion failures trigger different policies. A nil value
 * defers to on_missing; a value that cannot be coerced (e.g. "abc" to numeric)
 * defers to on_coercion.
 *
 * Type modes:
 *   - numeric: strict; numbers and numeric strings become float64, booleans are rejected
 *   - text: lenient; everything is rendered as a string
 *   - boolean: strict; bool only
 *   - any: lenient; the original value is kept
 */

// FieldType selects the coercion mode of a field check.
type FieldType int

const (
	FieldTypeAny FieldType = iota
	FieldTypeNumeric
	FieldTypeText
	FieldTypeBoolean
)

// ParseFieldType reads the spec's "type" value; empty means any.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return FieldTypeAny, nil
	case "numeric", "number":
		return FieldTypeNumeric, nil
	case "text", "string":
		return FieldTypeText, nil
	case "boolean", "bool":
		return FieldTypeBoolean, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil
}

// Coerce converts value to fieldType. Returns ErrCoercionFailed for impossible
// coercions.
func Coerce(value any, fieldType FieldType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}
	switch fieldType {
	case FieldTypeNumeric:
		return coerceNumeric(value)
	case FieldTypeText:
		return coerceText(value)
	case FieldTypeBoolean:
		if v, ok := value.(bool); ok {
			return CoercionResult{Value: v}, nil
		}
		// no string-to-boolean coercion ("true" vs 1 ambiguity)
		return CoercionResult{}, ErrCoercionFailed
	default:
		return CoercionResult{Value: value}, nil
	}
}

func coerceNumeric(value any) (CoercionResult, error) {
	if f, ok := toFloat64(value); ok {
		return CoercionResult{Value: f}, nil
	}
	s, ok := value.(string)
	if !ok {
		return CoercionResult{}, ErrCoercionFailed
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return CoercionResult{}, ErrCoercionFailed
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return CoercionResult{}, ErrCoercionFailed
	}
	return CoercionResult{Value: f}, nil
}

func coerceText(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case string:
		return CoercionResult{Value: v}, nil
	case bool:
		return CoercionResult{Value: strconv.FormatBool(v)}, nil
	}
	if f, ok := toFloat64(value); ok {
		return CoercionResult{Value: strconv.FormatFloat(f, 'f', -1, 64)}, nil
	}
	return CoercionResult{Value: fmt.Sprintf("%v", value)}, nil
}

// toFloat64 converts the number types produced by encoding/json and yaml.v3.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
