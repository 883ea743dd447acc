// internal/check/fieldpath.go
package check

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

/*
 * Field path resolution over decoded facts.
 *
 * Paths are written "user.roles[0]", "orders[*].items[*].price" or "*.value".
 * A "*" segment (or "[*]") is a wildcard with ANY semantics: the first
 * element, in index or sorted-key order, that resolves the rest of the path
 * wins. MaxPathDepth and MaxNestedWildcards are enforced on every Resolve.
 *
 * Facts come from JSON (numbers are float64) or YAML (numbers are int), so
 * resolution works on plain Go values and leaves number handling to Coerce.
 */

// PathSegment is one component of a field path.
type PathSegment struct {
	Key      string // object key (mutually exclusive with Index/Wildcard)
	Index    int    // array index (mutually exclusive with Key/Wildcard)
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool
}

func (s PathSegment) String() string {
	switch {
	case s.Wildcard:
		return "[*]"
	case s.IsIndex:
		return "[" + strconv.Itoa(s.Index) + "]"
	default:
		return s.Key
	}
}

// FormatPath renders a path back into its string form.
func FormatPath(path []PathSegment) string {
	var b strings.Builder
	for i, seg := range path {
		if !seg.IsIndex && !seg.Wildcard && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// ParsePath reads the dot/bracket path syntax.
func ParsePath(s string) ([]PathSegment, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	var path []PathSegment
	for _, part := range strings.Split(s, ".") {
		key, rest, _ := strings.Cut(part, "[")
		if key == "*" {
			path = append(path, PathSegment{Wildcard: true})
		} else if key != "" {
			path = append(path, PathSegment{Key: key})
		} else if rest == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
		for rest != "" {
			idx, tail, ok := strings.Cut(rest, "]")
			if !ok {
				return nil, fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidPath, s)
			}
			if idx == "*" {
				path = append(path, PathSegment{Wildcard: true})
			} else {
				n, err := strconv.Atoi(idx)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: bad index %q in %q", ErrInvalidPath, idx, s)
				}
				path = append(path, PathSegment{Index: n, IsIndex: true})
			}
			if tail == "" {
				break
			}
			if !strings.HasPrefix(tail, "[") {
				return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidPath, tail, s)
			}
			rest = tail[1:]
		}
	}
	return path, nil
}

// ResolveResult contains the resolved value and the actual path taken.
type ResolveResult struct {
	Value        any           // resolved value (nil if not found)
	ResolvedPath []PathSegment // path with wildcards replaced by actual indices
	Found        bool
}

func validatePath(path []PathSegment) error {
	if len(path) > MaxPathDepth {
		return ErrPathTooDeep
	}
	wildcards := 0
	for _, seg := range path {
		if seg.Wildcard {
			wildcards++
		}
	}
	if wildcards > MaxNestedWildcards {
		return ErrTooManyWildcards
	}
	return nil
}

// Resolve traverses data following path.
// Returns ErrPathTooDeep, ErrTooManyWildcards, or ErrFieldNotFound.
func Resolve(path []PathSegment, data any) (ResolveResult, error) {
	if err := validatePath(path); err != nil {
		return ResolveResult{}, err
	}
	return resolveRecursive(path, data, nil)
}

func resolveRecursive(path []PathSegment, current any, resolvedSoFar []PathSegment) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{Value: current, ResolvedPath: resolvedSoFar, Found: true}, nil
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				resolved := append(resolvedSoFar[:len(resolvedSoFar):len(resolvedSoFar)], PathSegment{Key: key})
				if result, err := resolveRecursive(remaining, v[key], resolved); err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, ErrFieldNotFound
		}
		if seg.IsIndex {
			return ResolveResult{}, ErrFieldNotFound
		}
		val, ok := v[seg.Key]
		if !ok {
			return ResolveResult{}, ErrFieldNotFound
		}
		return resolveRecursive(remaining, val, append(resolvedSoFar, seg))

	case []any:
		if seg.Wildcard {
			for i, elem := range v {
				resolved := append(resolvedSoFar[:len(resolvedSoFar):len(resolvedSoFar)], PathSegment{Index: i, IsIndex: true})
				if result, err := resolveRecursive(remaining, elem, resolved); err == nil && result.Found {
					return result, nil
				}
			}
			// Empty array: every element is missing, defer to on_missing.
			return ResolveResult{}, ErrFieldNotFound
		}
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(v) {
			return ResolveResult{}, ErrFieldNotFound
		}
		return resolveRecursive(remaining, v[seg.Index], append(resolvedSoFar, seg))

	default:
		// nil or a scalar with path left over
		return ResolveResult{}, ErrFieldNotFound
	}
}
