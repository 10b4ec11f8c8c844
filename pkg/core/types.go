package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
)

// Kind identifies which JSON variant a Value holds.
type Kind int

// Kind constants mirror the JSON value types.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON type name of the kind.
func (k Kind) String() string {
	return [...]string{"null", "bool", "number", "string", "array", "object"}[k]
}

// Value is a decoded JSON value. Numbers keep their original text as a
// json.Number so no precision is lost before a view reads them.
type Value struct {
	kind Kind
	v    any
}

// NewValue wraps a value produced by a JSON decoder. Float and integer Go
// values are accepted and stored as numbers.
func NewValue(v any) Value {
	switch val := v.(type) {
	case nil:
		return Value{kind: KindNull}
	case Value:
		return val
	case bool:
		return Value{kind: KindBool, v: val}
	case json.Number:
		return Value{kind: KindNumber, v: val}
	case float64:
		return Value{kind: KindNumber, v: json.Number(strconv.FormatFloat(val, 'f', -1, 64))}
	case int:
		return Value{kind: KindNumber, v: json.Number(strconv.Itoa(val))}
	case int64:
		return Value{kind: KindNumber, v: json.Number(strconv.FormatInt(val, 10))}
	case string:
		return Value{kind: KindString, v: val}
	case []any:
		return Value{kind: KindArray, v: val}
	case map[string]any:
		return Value{kind: KindObject, v: val}
	case RawResult:
		return Value{kind: KindObject, v: val.Raw()}
	default:
		return Value{kind: KindString, v: fmt.Sprint(val)}
	}
}

// Kind returns the JSON variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	s, ok := v.v.(string)
	return s, ok && v.kind == KindString
}

// Number returns the numeric payload as decoded text.
func (v Value) Number() (json.Number, bool) {
	n, ok := v.v.(json.Number)
	return n, ok && v.kind == KindNumber
}

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok && v.kind == KindBool
}

// Array returns the elements of an array value.
func (v Value) Array() ([]Value, bool) {
	raw, ok := v.v.([]any)
	if !ok || v.kind != KindArray {
		return nil, false
	}
	out := make([]Value, len(raw))
	for i, item := range raw {
		out[i] = NewValue(item)
	}
	return out, true
}

// Object returns the members of an object value.
func (v Value) Object() (RawResult, bool) {
	raw, ok := v.v.(map[string]any)
	if !ok || v.kind != KindObject {
		return nil, false
	}
	out := make(RawResult, len(raw))
	for k, item := range raw {
		out[k] = NewValue(item)
	}
	return out, true
}

// Text renders a scalar as the exchange sent it: strings unquoted, numbers as
// their decoded digits. Arrays and objects render as compact JSON, null as "".
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.v.(string)
	case KindNumber:
		return v.v.(json.Number).String()
	case KindBool:
		return strconv.FormatBool(v.v.(bool))
	default:
		data, err := sonic.Marshal(v.v)
		if err != nil {
			return fmt.Sprint(v.v)
		}
		return string(data)
	}
}

// Decimal parses a string or number value as an exact decimal.
func (v Value) Decimal() (*apd.Decimal, error) {
	if v.kind != KindString && v.kind != KindNumber {
		return nil, fmt.Errorf("value of kind %s is not a decimal", v.kind)
	}
	d, _, err := apd.NewFromString(v.Text())
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", v.Text(), err)
	}
	return d, nil
}

// Interface returns the decoded Go value (nil, bool, json.Number, string,
// []any or map[string]any).
func (v Value) Interface() any { return v.v }

// MarshalJSON implements json.Marshaler for Value.
func (v Value) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(v.v)
}

func (v Value) String() string { return v.Text() }

// RawResult is a decoded JSON object. It carries every field the exchange
// returned; presence checks belong to the views built on top of it.
type RawResult map[string]Value

// Get returns the value stored under key.
func (r RawResult) Get(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Has reports whether key is present.
func (r RawResult) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Text returns the textual form of key, or "" when absent.
func (r RawResult) Text(key string) string {
	return r[key].Text()
}

// Keys returns the member names in sorted order.
func (r RawResult) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the members as plain decoded Go values.
func (r RawResult) Raw() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}
