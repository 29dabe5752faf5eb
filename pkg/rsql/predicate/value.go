package predicate

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup resolves a dotted selector in r. found is false if any segment is
// missing or not an object.
func Lookup(r Record, selector string) (value any, found bool) {
	var cur any = r
	for _, part := range strings.Split(selector, ".") {
		obj, ok := cur.(Record)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// anyEqual reports whether v, or any element of v if it is a list, equals arg.
func anyEqual(v any, arg string) bool {
	if list, ok := v.([]any); ok {
		for _, elem := range list {
			if equal(elem, arg) {
				return true
			}
		}
		return false
	}
	return equal(v, arg)
}

func anyIn(v any, args []string) bool {
	for _, arg := range args {
		if anyEqual(v, arg) {
			return true
		}
	}
	return false
}

// equal compares a record value with an argument. Numbers compare
// numerically, strings support '*' wildcards.
func equal(v any, arg string) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		if strings.Contains(arg, "*") {
			return matchWildcard(arg, val)
		}
		return val == arg
	case bool:
		b, err := strconv.ParseBool(arg)
		return err == nil && b == val
	}

	if num, err := convertToFloat64(v); err == nil {
		expected, err := strconv.ParseFloat(arg, 64)
		return err == nil && num == expected
	}
	return fmt.Sprint(v) == arg
}

// ordered builds an ordering operator from a test on the comparison result.
func ordered(test func(int) bool) Func {
	return func(v any, found bool, args []string) bool {
		if !found {
			return false
		}
		c, ok := compare(v, args[0])
		return ok && test(c)
	}
}

// compare orders a record value against an argument: numerically when both
// are numbers, lexically for strings (which orders ISO 8601 timestamps).
func compare(v any, arg string) (int, bool) {
	if num, err := convertToFloat64(v); err == nil {
		expected, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, false
		}
		switch {
		case num < expected:
			return -1, true
		case num > expected:
			return 1, true
		}
		return 0, true
	}

	if s, ok := v.(string); ok {
		return strings.Compare(s, arg), true
	}
	return 0, false
}

// matchWildcard matches s against pattern where '*' matches any run of
// characters, including none.
func matchWildcard(pattern, s string) bool {
	return matchSegments(strings.Split(pattern, "*"), s)
}

func matchSegments(parts []string, s string) bool {
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := len(parts) - 1
	for _, part := range parts[1:last] {
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}
	return strings.HasSuffix(s, parts[last])
}

// convertToFloat64 converts a numeric value to float64.
func convertToFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}
