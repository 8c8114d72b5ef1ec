// Package tree models decoded JSON documents as a small tagged union so
// extractors can walk remote responses without probing untyped maps.
package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "null"
	}
}

// Member is one key/value pair of an Object, kept in document order.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON node. The zero Value is Null.
type Value struct {
	kind    Kind
	b       bool
	num     json.Number
	str     string
	items   []Value
	members []Member
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// NumberValue wraps a number literal.
func NumberValue(n json.Number) Value { return Value{kind: Number, num: n} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// ArrayValue wraps a list of values.
func ArrayValue(items ...Value) Value { return Value{kind: Array, items: items} }

// ObjectValue wraps an ordered list of members.
func ObjectValue(members ...Member) Value { return Value{kind: Object, members: members} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == Null }

// Str returns the string payload and whether v is a String.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.str, true
}

// Num returns the number literal and whether v is a Number.
func (v Value) Num() (json.Number, bool) {
	if v.kind != Number {
		return "", false
	}
	return v.num, true
}

// Int returns the integer payload of a Number.
func (v Value) Int() (int64, bool) {
	if v.kind != Number {
		return 0, false
	}
	n, err := v.num.Int64()
	if err != nil {
		f, ferr := v.num.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// Text returns a scalar rendered as text: strings as-is, numbers as their
// literal, booleans as true/false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case String:
		return v.str, true
	case Number:
		return v.num.String(), true
	case Bool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Items returns the elements of an Array, or nil.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return v.items
}

// Members returns the members of an Object, or nil.
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	return v.members
}

// Get returns the member named key. Absent keys and non-objects yield
// (Null, false).
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Field returns the member named key or Null.
func (v Value) Field(key string) Value {
	f, _ := v.Get(key)
	return f
}

// Path follows a chain of object keys.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		cur = cur.Field(k)
	}
	return cur
}

// OptString returns a pointer to the string member named key, or nil.
func (v Value) OptString(key string) *string {
	s, ok := v.Field(key).Str()
	if !ok {
		return nil
	}
	return &s
}

// OptText returns a pointer to the scalar member named key rendered as text.
func (v Value) OptText(key string) *string {
	s, ok := v.Field(key).Text()
	if !ok {
		return nil
	}
	return &s
}

// OptInt returns a pointer to the integer member named key, or nil.
func (v Value) OptInt(key string) *int64 {
	n, ok := v.Field(key).Int()
	if !ok {
		return nil
	}
	return &n
}

// Visitor is called for every node in pre-order. Returning false skips the
// node's children.
type Visitor func(v Value) bool

// Walk traverses v depth-first in document order.
func Walk(v Value, visit Visitor) {
	if !visit(v) {
		return
	}
	switch v.kind {
	case Array:
		for _, it := range v.items {
			Walk(it, visit)
		}
	case Object:
		for _, m := range v.members {
			Walk(m.Value, visit)
		}
	}
}

// Parse decodes a single JSON document, keeping object member order.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decode(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("trailing data after document")
	}
	return v, nil
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := make([]Value, 0)
			for dec.More() {
				it, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, it)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: Array, items: items}, nil
		case '{':
			members := make([]Member, 0)
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T", kt)
				}
				val, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: Object, members: members}, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// MarshalJSON renders v compactly, preserving member order and leaving
// non-ASCII and HTML characters unescaped.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes data into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String returns the compact JSON text of v.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		buf.WriteString(v.num.String())
	case String:
		buf.Write(EncodeString(v.str))
	case Array:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(EncodeString(m.Key))
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// EncodeString returns s as a JSON string literal without HTML escaping.
func EncodeString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// Interface converts v to the generic map/slice form used by JSONPath
// libraries. Object order is not preserved by the result.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		if n, err := v.num.Int64(); err == nil {
			return n
		}
		f, _ := v.num.Float64()
		return f
	case String:
		return v.str
	case Array:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface converts generic decoded JSON back into a Value. Map keys
// are sorted so the result is deterministic.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Value{}
	case bool:
		return BoolValue(t)
	case string:
		return StringValue(t)
	case json.Number:
		return NumberValue(t)
	case int:
		return NumberValue(json.Number(strconv.FormatInt(int64(t), 10)))
	case int64:
		return NumberValue(json.Number(strconv.FormatInt(t, 10)))
	case float64:
		return NumberValue(json.Number(strconv.FormatFloat(t, 'f', -1, 64)))
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = FromInterface(it)
		}
		return Value{kind: Array, items: items}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			members = append(members, Member{Key: k, Value: FromInterface(t[k])})
		}
		return Value{kind: Object, members: members}
	default:
		return StringValue(fmt.Sprint(t))
	}
}
