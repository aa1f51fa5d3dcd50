package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// FieldKey identifies a field in the registry by (service, field name)
type FieldKey struct {
	Service string
	Field   string
}

// String renders the canonical dotted path of the field
func (k FieldKey) String() string {
	return k.Service + ".configuration." + k.Field
}

// Condition is a statically checkable enablement or visibility predicate.
// The only variants are Equals and NotEquals.
type Condition interface {
	Target() FieldKey
	Operand() any
	Evaluate(actual any) bool
	String() string
	isCondition()
}

// Equals holds when the field value equals the literal
type Equals struct {
	Path  FieldKey
	Value any
}

func (c Equals) Target() FieldKey         { return c.Path }
func (c Equals) Operand() any             { return c.Value }
func (c Equals) Evaluate(actual any) bool { return LiteralEqual(actual, c.Value) }
func (c Equals) String() string           { return fmt.Sprintf("%s == %s", c.Path, FormatLiteral(c.Value)) }
func (Equals) isCondition()               {}

// NotEquals holds when the field value differs from the literal
type NotEquals struct {
	Path  FieldKey
	Value any
}

func (c NotEquals) Target() FieldKey         { return c.Path }
func (c NotEquals) Operand() any             { return c.Value }
func (c NotEquals) Evaluate(actual any) bool { return !LiteralEqual(actual, c.Value) }
func (c NotEquals) String() string           { return fmt.Sprintf("%s != %s", c.Path, FormatLiteral(c.Value)) }
func (NotEquals) isCondition()               {}

// LiteralEqual compares two configuration values. Numbers compare by value
// regardless of their Go representation; values of different kinds are never equal.
func LiteralEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if _, ok := toFloat(b); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// FormatLiteral renders a literal the way it is written in an expression
func FormatLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case nil:
		return "null"
	default:
		return fmt.Sprint(val)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
