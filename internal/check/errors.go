package check

import "errors"

// Resource limits for field checks.
const (
	// MaxPathDepth prevents stack overflow during recursive path resolution.
	MaxPathDepth = 16

	// MaxNestedWildcards bounds fanout: each wildcard multiplies work.
	MaxNestedWildcards = 2

	// MaxInOperatorValues bounds the linear scan of the in operator.
	MaxInOperatorValues = 64
)

var (
	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyWildcards indicates a field path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("field path has too many wildcards")

	// ErrWildcardInFieldRef indicates a wildcard in a ref path.
	ErrWildcardInFieldRef = errors.New("wildcards not allowed in ref")

	// ErrTooManyInValues indicates an in operator exceeds MaxInOperatorValues.
	ErrTooManyInValues = errors.New("in operator has too many values")

	// ErrInvalidPath indicates a path string that does not parse.
	ErrInvalidPath = errors.New("invalid field path")

	// ErrInvalidOperator indicates an unknown operator name.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrInvalidPolicy indicates an unknown on_missing/on_coercion value.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrUnknownKind indicates no checker is registered for a leaf's kind.
	ErrUnknownKind = errors.New("no checker registered for kind")

	// ErrNotBool indicates a cel expression that did not yield a bool.
	ErrNotBool = errors.New("expression did not evaluate to a bool")
)
