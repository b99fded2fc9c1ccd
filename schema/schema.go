// Package schema validates records against a JSON Schema subset.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"
)

// Schema is a decoded JSON Schema document.
//
// Supported keywords:
//   - type (string, number, integer, boolean, object, array, null)
//   - properties, required, additionalProperties (false only)
//   - items (for arrays)
//   - minimum, maximum, exclusiveMinimum, exclusiveMaximum
//   - minLength, maxLength (in runes), pattern
//   - minItems, maxItems
//   - enum
type Schema map[string]any

// FieldError is a single violation at a JSON path such as "$.title".
type FieldError struct {
	Path    string
	Message string
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// Validate checks doc against s and returns every violation found, combined
// with multierr. Use Errors to split them. A nil schema accepts anything.
func Validate(s Schema, doc map[string]any) error {
	if s == nil {
		return nil
	}
	return validateValue(s, doc, "$")
}

// Errors returns the individual violations in err.
func Errors(err error) []*FieldError {
	var out []*FieldError
	for _, e := range multierr.Errors(err) {
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
		}
	}
	return out
}

func violation(path, format string, args ...any) error {
	return &FieldError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func validateValue(s map[string]any, value any, path string) error {
	if ts, ok := s["type"].(string); ok {
		// A type mismatch makes the remaining keywords meaningless.
		if err := checkType(ts, value, path); err != nil {
			return err
		}
	}

	var err error
	if enumList, ok := s["enum"].([]any); ok {
		err = multierr.Append(err, checkEnum(enumList, value, path))
	}

	switch v := value.(type) {
	case map[string]any:
		err = multierr.Append(err, validateObject(s, v, path))
	case []any:
		err = multierr.Append(err, validateArray(s, v, path))
	case string:
		err = multierr.Append(err, validateString(s, v, path))
	case float64:
		err = multierr.Append(err, validateNumber(s, v, path))
	case json.Number:
		f, _ := v.Float64()
		err = multierr.Append(err, validateNumber(s, f, path))
	}
	return err
}

func checkType(expected string, value any, path string) error {
	actual := jsonType(value)
	switch {
	case expected == actual:
		return nil
	case expected == "integer" && isWhole(value):
		return nil
	case expected == "number" && actual == "integer":
		return nil
	}
	return violation(path, "expected type %q, got %q", expected, actual)
}

func isWhole(v any) bool {
	switch n := v.(type) {
	case float64:
		return n == float64(int64(n))
	case json.Number:
		_, err := n.Int64()
		return err == nil
	case int, int64:
		return true
	}
	return false
}

func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case int, int64:
		return "integer"
	default:
		return reflect.TypeOf(v).String()
	}
}

func checkEnum(allowed []any, value any, path string) error {
	for _, a := range allowed {
		if reflect.DeepEqual(a, value) {
			return nil
		}
	}
	return violation(path, "value %v not in enum %v", value, allowed)
}

func validateObject(s map[string]any, obj map[string]any, path string) error {
	var err error

	if reqList, ok := s["required"].([]any); ok {
		for _, r := range reqList {
			if field, ok := r.(string); ok {
				if _, exists := obj[field]; !exists {
					err = multierr.Append(err, violation(path+"."+field, "is required"))
				}
			}
		}
	}

	props, _ := s["properties"].(map[string]any)
	// Sorted so the combined error reads the same on every run.
	names := make([]string, 0, len(props))
	for field := range props {
		names = append(names, field)
	}
	sort.Strings(names)
	for _, field := range names {
		val, exists := obj[field]
		if !exists {
			continue
		}
		ps, ok := props[field].(map[string]any)
		if !ok {
			continue
		}
		err = multierr.Append(err, validateValue(ps, val, path+"."+field))
	}

	if ap, ok := s["additionalProperties"].(bool); ok && !ap {
		var extra []string
		for field := range obj {
			if _, defined := props[field]; !defined {
				extra = append(extra, field)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			err = multierr.Append(err, violation(path, "additional properties not allowed: %s", strings.Join(extra, ", ")))
		}
	}
	return err
}

func validateArray(s map[string]any, arr []any, path string) error {
	var err error
	if v, ok := toFloat(s["minItems"]); ok && float64(len(arr)) < v {
		err = multierr.Append(err, violation(path, "array length %d is less than minItems %v", len(arr), v))
	}
	if v, ok := toFloat(s["maxItems"]); ok && float64(len(arr)) > v {
		err = multierr.Append(err, violation(path, "array length %d is greater than maxItems %v", len(arr), v))
	}
	if itemSchema, ok := s["items"].(map[string]any); ok {
		for i, elem := range arr {
			err = multierr.Append(err, validateValue(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i)))
		}
	}
	return err
}

func validateString(s map[string]any, str string, path string) error {
	var err error
	n := utf8.RuneCountInString(str)
	if v, ok := toFloat(s["minLength"]); ok && float64(n) < v {
		err = multierr.Append(err, violation(path, "string length %d is less than minLength %v", n, v))
	}
	if v, ok := toFloat(s["maxLength"]); ok && float64(n) > v {
		err = multierr.Append(err, violation(path, "string length %d is greater than maxLength %v", n, v))
	}
	if p, ok := s["pattern"].(string); ok {
		re, cerr := regexp.Compile(p)
		switch {
		case cerr != nil:
			err = multierr.Append(err, violation(path, "invalid pattern %q", p))
		case !re.MatchString(str):
			err = multierr.Append(err, violation(path, "does not match pattern %q", p))
		}
	}
	return err
}

func validateNumber(s map[string]any, n float64, path string) error {
	var err error
	if v, ok := toFloat(s["minimum"]); ok && n < v {
		err = multierr.Append(err, violation(path, "%v is less than minimum %v", n, v))
	}
	if v, ok := toFloat(s["maximum"]); ok && n > v {
		err = multierr.Append(err, violation(path, "%v is greater than maximum %v", n, v))
	}
	if v, ok := toFloat(s["exclusiveMinimum"]); ok && n <= v {
		err = multierr.Append(err, violation(path, "%v is not greater than exclusiveMinimum %v", n, v))
	}
	if v, ok := toFloat(s["exclusiveMaximum"]); ok && n >= v {
		err = multierr.Append(err, violation(path, "%v is not less than exclusiveMaximum %v", n, v))
	}
	return err
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
