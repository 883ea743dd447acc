// internal/check/cost.go
package check

/*
 * Dispatch cost of a check.
 *
 * Runner starts cheap checks first, so with a bounded worker pool the leaves
 * most likely to short-circuit an AND/OR settle early. A field check pays
 * for each key it looks up plus one comparison per element it may visit;
 * every [*] level multiplies the comparisons by eight.
 */

const (
	// costPerKey is charged per object key in a path.
	costPerKey = 128
	// wildcardFanout is the assumed element count behind each [*].
	wildcardFanout = 8

	// CostCEL is the flat cost of a cel check; programs are opaque here.
	CostCEL = 4096
)

var comparisonCost = map[Operator]int{
	OpExists: 1,
	OpIsNull: 1,
	OpEq:     5,
	OpNeq:    5,
	OpLt:     7,
	OpLte:    7,
	OpGt:     7,
	OpGte:    7,
	OpIn:     8,
	OpPrefix: 10,
	OpSuffix: 10,
}

// Text comparisons allocate; "any" may end up comparing either.
var typeWeight = map[FieldType]int{
	FieldTypeBoolean: 1,
	FieldTypeNumeric: 4,
	FieldTypeText:    48,
	FieldTypeAny:     128,
}

// FieldCost prices one field condition.
func FieldCost(path []PathSegment, op Operator, ft FieldType) int {
	lookups, visits := 0, 1
	for _, seg := range path {
		if seg.Key != "" {
			lookups += costPerKey
		}
		if seg.Wildcard {
			visits *= wildcardFanout
		}
	}
	per, ok := comparisonCost[op]
	if !ok {
		per = comparisonCost[OpEq]
	}
	return lookups + per*typeWeight[ft]*visits
}
