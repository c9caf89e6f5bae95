package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// ValueKind enumerates the shapes a front-matter value can take.
type ValueKind int

// Value kinds.
const (
	KindNull ValueKind = iota // null or absent
	KindBool
	KindNumber // finite float64
	KindString
	KindList
	KindMap
)

// Value is a JSON-compatible front-matter value. The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
}

// FrontMatter is the typed metadata block at the top of a markdown file.
type FrontMatter map[string]Value

// NullValue returns the null value.
func NullValue() Value { return Value{} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue returns a number value. NaN and infinities have no JSON
// form and become null.
func NumberValue(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return NullValue()
	}
	return Value{kind: KindNumber, n: n}
}

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ListValue returns a sequence value.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// MapValue returns a mapping value.
func MapValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string held by v, if any.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Bool returns the boolean held by v, if any.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Number returns the number held by v, if any.
func (v Value) Number() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// List returns the sequence held by v, if any.
func (v Value) List() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// Map returns the mapping held by v, if any.
func (v Value) Map() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// Interface converts v back into plain Go values suitable for encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// ValueOf converts a decoded YAML or JSON value into a Value.
// Timestamps become RFC 3339 strings and non-string map keys are formatted
// with fmt. NaN and infinities become null. Unknown types fall back to
// their string form.
func ValueOf(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return NullValue()
	case Value:
		return x
	case bool:
		return BoolValue(x)
	case string:
		return StringValue(x)
	case int:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case int32:
		return NumberValue(float64(x))
	case uint:
		return NumberValue(float64(x))
	case uint64:
		return NumberValue(float64(x))
	case float32:
		return NumberValue(float64(x))
	case float64:
		return NumberValue(x)
	case time.Time:
		return StringValue(x.Format(time.RFC3339))
	case []string:
		items := make([]Value, len(x))
		for i, s := range x {
			items[i] = StringValue(s)
		}
		return ListValue(items...)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = ValueOf(item)
		}
		return ListValue(items...)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[k] = ValueOf(item)
		}
		return MapValue(m)
	case map[any]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[fmt.Sprint(k)] = ValueOf(item)
		}
		return MapValue(m)
	default:
		return StringValue(fmt.Sprint(x))
	}
}

// NewFrontMatter converts a decoded metadata block. The result is never nil.
func NewFrontMatter(raw map[string]any) FrontMatter {
	fm := make(FrontMatter, len(raw))
	for k, v := range raw {
		fm[k] = ValueOf(v)
	}
	return fm
}

// Text returns the string value stored under key.
func (fm FrontMatter) Text(key string) (string, bool) {
	v, ok := fm[key]
	if !ok {
		return "", false
	}
	return v.Str()
}

// Keys returns the front-matter keys in sorted order.
func (fm FrontMatter) Keys() []string {
	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
