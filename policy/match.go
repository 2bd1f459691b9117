package policy

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Matches reports whether rule applies to action under context: at
// least one action pattern matches (exact, universal "*", or a
// trailing-"*" prefix glob) and every condition evaluates true.
func (r Rule) Matches(action string, ctx Context) bool {
	actionMatches := false
	for _, a := range r.Actions {
		if a == "*" || a == action {
			actionMatches = true
			break
		}
		if strings.HasSuffix(a, "*") && strings.HasPrefix(action, strings.TrimSuffix(a, "*")) {
			actionMatches = true
			break
		}
	}
	if !actionMatches {
		return false
	}
	for _, cond := range r.Conditions {
		if !cond.Evaluate(ctx) {
			return false
		}
	}
	return true
}

// Evaluate resolves the condition's field against ctx (synthetic
// fields first, then a metadata lookup) and applies the operator. A
// field that can't be resolved, or an operator/value type mismatch,
// makes the condition false rather than raising — per spec.md §4.2's
// failure model.
func (c Condition) Evaluate(ctx Context) bool {
	value, ok := resolveField(c.Field, ctx)
	if !ok {
		return false
	}
	switch c.Operator {
	case Equals:
		return reflect.DeepEqual(value, c.Value)
	case NotEquals:
		return !reflect.DeepEqual(value, c.Value)
	case In:
		return containsValue(c.Value, value)
	case NotIn:
		return !containsValue(c.Value, value)
	case GreaterThan:
		v1, ok1 := asFloat(value)
		v2, ok2 := asFloat(c.Value)
		return ok1 && ok2 && v1 > v2
	case LessThan:
		v1, ok1 := asFloat(value)
		v2, ok2 := asFloat(c.Value)
		return ok1 && ok2 && v1 < v2
	case Contains:
		s1, ok1 := value.(string)
		s2, ok2 := c.Value.(string)
		return ok1 && ok2 && strings.Contains(s1, s2)
	case ContainsAny:
		s1, ok1 := value.(string)
		if !ok1 {
			return false
		}
		rv := reflect.ValueOf(c.Value)
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			needle, ok := rv.Index(i).Interface().(string)
			if ok && strings.Contains(s1, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// resolveField implements the field-resolution order from spec.md
// §4.2: the synthetic fields agent_id/time_of_day/resource_type/
// environment first, then a literal lookup in ctx.Metadata.
func resolveField(field string, ctx Context) (interface{}, bool) {
	switch field {
	case "agent_id":
		return ctx.AgentID, true
	case "time_of_day":
		hour := time.Now().UTC().Hour()
		return float64(hour), true
	case "resource_type":
		v, ok := ctx.Metadata["resource_type"]
		return v, ok
	case "environment":
		v, ok := ctx.Metadata["environment"]
		return v, ok
	default:
		v, ok := ctx.Metadata[field]
		return v, ok
	}
}

// containsValue reports whether needle appears in haystack, which must
// be a slice for In/NotIn to mean anything; a non-slice haystack makes
// the condition false (In) or true (NotIn) per the Rust original.
func containsValue(haystack interface{}, needle interface{}) bool {
	rv := reflect.ValueOf(haystack)
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if reflect.DeepEqual(rv.Index(i).Interface(), needle) {
			return true
		}
	}
	return false
}

// asFloat coerces ints, floats, and numeric strings to float64 for
// GreaterThan/LessThan comparison.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
