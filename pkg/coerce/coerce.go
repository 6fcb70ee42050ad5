// Package coerce converts untyped JSON argument values into the primitive
// types declared by tool parameters, and maps declared type tags to JSON
// Schema type names.
//
// Declared types are free-form documentation tags ("Integer", "Array<String>",
// "Float, nil", ...). They are matched case-insensitively by substring
// against an ordered rule table; the first matching rule wins and tags that
// match nothing fall through to the string rule. That fallthrough is part of
// the contract: an unrecognized tag advertises "string" and coerces its value
// to text.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// JSON Schema type names produced by SchemaType
const (
	SchemaInteger = "integer"
	SchemaNumber  = "number"
	SchemaBoolean = "boolean"
	SchemaArray   = "array"
	SchemaObject  = "object"
	SchemaString  = "string"
)

// Func converts a non-nil raw value
type Func func(raw any) (any, error)

// Rule binds a set of type-tag substrings to a schema type and a coercion
type Rule struct {
	Patterns   []string
	SchemaType string
	Coerce     Func
}

func (r Rule) matches(tag string) bool {
	for _, p := range r.Patterns {
		if strings.Contains(tag, p) {
			return true
		}
	}
	return false
}

// Rules is the ordered rule table. Order matters: a tag such as
// "Array<Integer>" selects the integer rule because it is checked first.
var Rules = []Rule{
	{Patterns: []string{"integer"}, SchemaType: SchemaInteger, Coerce: ToInteger},
	{Patterns: []string{"float", "numeric"}, SchemaType: SchemaNumber, Coerce: ToFloat},
	{Patterns: []string{"boolean", "trueclass", "falseclass"}, SchemaType: SchemaBoolean, Coerce: ToBoolean},
	{Patterns: []string{"array"}, SchemaType: SchemaArray, Coerce: ToArray},
	// Mappings are advertised as objects but, like any unmatched tag,
	// their values are coerced to text.
	{Patterns: []string{"hash"}, SchemaType: SchemaObject, Coerce: ToText},
}

// Default applies when no rule matches
var Default = Rule{SchemaType: SchemaString, Coerce: ToText}

// Lookup returns the rule selected by declaredType
func Lookup(declaredType string) Rule {
	tag := strings.ToLower(declaredType)
	for _, rule := range Rules {
		if rule.matches(tag) {
			return rule
		}
	}
	return Default
}

// SchemaType maps a declared type tag to one of the six JSON Schema type
// names. It never fails.
func SchemaType(declaredType string) string {
	return Lookup(declaredType).SchemaType
}

// Coerce converts raw to the type declared by declaredType. nil is passed
// through unchanged.
func Coerce(raw any, declaredType string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return Lookup(declaredType).Coerce(raw)
}

// ToInteger converts raw to int64. Numbers truncate toward zero and decimal
// text is truncated; text that is not a number is rejected rather than
// silently becoming 0.
func ToInteger(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("cannot convert %d to integer: out of range", v)
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("cannot convert %d to integer: out of range", v)
		}
		return int64(v), nil
	case float32:
		return floatToInteger(float64(v))
	case float64:
		return floatToInteger(v)
	case json.Number:
		return parseInteger(v.String())
	case string:
		return parseInteger(v)
	}
	return nil, fmt.Errorf("cannot convert %s to integer", describe(raw))
}

func parseInteger(s string) (any, error) {
	text := strings.TrimSpace(s)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return floatToInteger(f)
	}
	return nil, fmt.Errorf("cannot convert %q to integer", s)
}

func floatToInteger(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("cannot convert %v to integer: out of range", f)
	}
	return int64(f), nil
}

// ToFloat converts raw to float64, rejecting text that is not a number
func ToFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return parseFloat(v.String())
	case string:
		return parseFloat(v)
	}
	return nil, fmt.Errorf("cannot convert %s to float", describe(raw))
}

func parseFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %q to float", s)
	}
	return f, nil
}

// ToBoolean is true only when the text form of raw is "true", ignoring case
func ToBoolean(raw any) (any, error) {
	return strings.ToLower(Text(raw)) == "true", nil
}

// ToArray passes slices through and wraps anything else in a one-element slice
func ToArray(raw any) (any, error) {
	if _, ok := raw.([]any); ok {
		return raw, nil
	}
	if rv := reflect.ValueOf(raw); rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		return raw, nil
	}
	return []any{raw}, nil
}

// ToText converts raw to its text representation
func ToText(raw any) (any, error) {
	return Text(raw), nil
}

// Text renders v as text. nil renders as the empty string, numbers in
// their shortest decimal form, and composite values as JSON.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(t).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(t).Uint(), 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func describe(raw any) string {
	switch raw.(type) {
	case bool:
		return fmt.Sprintf("boolean %v", raw)
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T value", raw)
}
