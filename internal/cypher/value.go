package cypher

import (
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a property Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
	// KindRaw holds anything that is not a literal: parameters ($x),
	// bare identifiers, property access and function calls. Text keeps the
	// source form.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindRaw:
		return "raw"
	}
	return "unknown"
}

// Value is a property value as written in a statement.
type Value struct {
	Kind Kind
	// Text is the string contents, the number literal or the raw source.
	Text string
	Num  float64
	Bool bool
	List []Value
	Map  *PropertyMap
}

// StringValue builds a string Value.
func StringValue(s string) Value { return Value{Kind: KindString, Text: s} }

// NumberValue builds a number Value from its literal text.
func NumberValue(literal string) Value {
	n, _ := strconv.ParseFloat(literal, 64)
	return Value{Kind: KindNumber, Text: literal, Num: n}
}

// BoolValue builds a bool Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// RawValue builds a raw Value from source text.
func RawValue(src string) Value { return Value{Kind: KindRaw, Text: src} }

// Scalar returns the unquoted text of a scalar value and false for
// null, lists and maps.
func (v Value) Scalar() (string, bool) {
	switch v.Kind {
	case KindString, KindNumber, KindRaw:
		return v.Text, true
	case KindBool:
		return strconv.FormatBool(v.Bool), true
	}
	return "", false
}

// AsString returns the unquoted scalar text, or "" for anything else.
func (v Value) AsString() string {
	s, _ := v.Scalar()
	return s
}

// IsEmpty reports whether the value carries no content: null, "", [] or {}.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Text == ""
	case KindList:
		return len(v.List) == 0
	case KindMap:
		return v.Map == nil || v.Map.Len() == 0
	}
	return false
}

// Literal renders the value back in statement syntax.
func (v Value) Literal() string {
	var b strings.Builder
	v.writeLiteral(&b)
	return b.String()
}

func (v Value) writeLiteral(b *strings.Builder) {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindString:
		b.WriteString(strconv.Quote(v.Text))
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case KindNumber, KindRaw:
		b.WriteString(v.Text)
	case KindList:
		b.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeLiteral(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		if v.Map != nil {
			for i, p := range v.Map.Props {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(p.Key)
				b.WriteString(": ")
				p.Value.writeLiteral(b)
			}
		}
		b.WriteByte('}')
	}
}

// Native converts the value to the plain Go types used by the Neo4j driver
// for node and relationship properties.
func (v Value) Native() any {
	switch v.Kind {
	case KindString, KindRaw:
		return v.Text
	case KindNumber:
		if i, err := strconv.ParseInt(v.Text, 10, 64); err == nil {
			return i
		}
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		if v.Map == nil {
			return map[string]any{}
		}
		return v.Map.Native()
	}
	return nil
}

// Property is one key/value pair of a property map.
type Property struct {
	Key   string
	Value Value
	Line  int
}

// PropertyMap is a brace-delimited property list in source order.
// A repeated key keeps every occurrence; Get returns the last one.
type PropertyMap struct {
	Props []Property
}

// Len returns the number of entries.
func (m *PropertyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Props)
}

// Get returns the value for key.
func (m *PropertyMap) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	for i := len(m.Props) - 1; i >= 0; i-- {
		if m.Props[i].Key == key {
			return m.Props[i].Value, true
		}
	}
	return Value{}, false
}

// String returns the scalar text for key, or "".
func (m *PropertyMap) String(key string) string {
	v, _ := m.Get(key)
	return v.AsString()
}

// Has reports whether key is present with a non-empty value.
func (m *PropertyMap) Has(key string) bool {
	v, ok := m.Get(key)
	return ok && !v.IsEmpty()
}

// Keys returns the distinct keys in first-seen order.
func (m *PropertyMap) Keys() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool, len(m.Props))
	keys := make([]string, 0, len(m.Props))
	for _, p := range m.Props {
		if !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Native converts the map for the Neo4j driver.
func (m *PropertyMap) Native() map[string]any {
	out := make(map[string]any, m.Len())
	if m == nil {
		return out
	}
	for _, p := range m.Props {
		out[p.Key] = p.Value.Native()
	}
	return out
}

// SortedKeys returns the distinct keys in lexical order.
func (m *PropertyMap) SortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}
