package curly

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Value is a runtime value seen by keys and nodes. Every piece of data bound
// into a render is normalized to one of the variants below.
type Value interface {
	String() string
	Truth() bool
}

// Container is implemented by values that expose named or indexed members.
type Container interface {
	Value
	Member(name string) (Value, bool)
}

// Getter can be implemented by host values that resolve members lazily.
// Lookups on a Getter take precedence over any other member resolution.
type Getter interface {
	Get(name string) (Value, bool)
}

// NullValue represents the absence of a value.
type NullValue struct{}

func (NullValue) String() string { return "" }
func (NullValue) Truth() bool    { return false }

// Null is the shared null value.
var Null Value = NullValue{}

// BoolValue wraps a boolean.
type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b BoolValue) Truth() bool { return bool(b) }

// NumberValue is a decimal number. It is formatted without exponent and
// without culture specific separators.
type NumberValue float64

func (n NumberValue) String() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }
func (n NumberValue) Truth() bool    { return true }

// StringValue wraps a string.
type StringValue string

func (s StringValue) String() string { return string(s) }
func (s StringValue) Truth() bool    { return len(s) > 0 }

// ListValue is a sequence of values.
type ListValue []Value

func (l ListValue) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}
func (l ListValue) Truth() bool { return len(l) > 0 }

// Member supports the count pseudo-member and numeric indexes.
func (l ListValue) Member(name string) (Value, bool) {
	if name == "count" {
		return NumberValue(len(l)), true
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || i >= len(l) {
		return nil, false
	}
	return l[i], true
}

// DictValue is a string-keyed map of values.
type DictValue map[string]Value

func (d DictValue) String() string { return "{...}" }
func (d DictValue) Truth() bool    { return true }

// Member looks the key up exactly, then case-insensitively. When several
// keys differ only in case the lowest one in byte order wins.
func (d DictValue) Member(name string) (Value, bool) {
	if v, ok := d[name]; ok {
		return v, true
	}
	var (
		match string
		found bool
	)
	for k := range d {
		if strings.EqualFold(k, name) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return nil, false
	}
	return d[match], true
}

// Field is one named child of a RecordValue.
type Field struct {
	Name  string
	Value Value
}

// RecordValue is a generic structured node with ordered, named children.
// Parsed documents (YAML mappings for instance) are bound as records so that
// key order survives into iteration and output.
type RecordValue struct {
	Name   string
	Fields []Field
}

func (r *RecordValue) String() string {
	if r.Name != "" {
		return r.Name
	}
	return "{...}"
}
func (r *RecordValue) Truth() bool { return true }

// Member returns the first child with the given name.
func (r *RecordValue) Member(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the first child named name, or appends a new one.
func (r *RecordValue) Set(name string, v Value) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = v
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: v})
}

// FuncValue is a unary function applied with the :: operator.
type FuncValue struct {
	Name string
	Fn   func(v Value) (Value, error)
}

func (f FuncValue) String() string { return "<function " + f.Name + ">" }
func (f FuncValue) Truth() bool    { return true }

// member resolves one path step against v.
func member(v Value, name string) (Value, bool) {
	if g, ok := v.(Getter); ok {
		if m, ok := g.Get(name); ok {
			return m, true
		}
	}
	if c, ok := v.(Container); ok {
		return c.Member(name)
	}
	return nil, false
}

// IsNull reports whether v is nil or the null value.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NullValue)
	return ok
}

// truthy applies the If node's falsity rules.
func truthy(v Value) bool {
	if IsNull(v) {
		return false
	}
	return v.Truth()
}

// toNumber coerces v to a decimal, defaulting to 0 when it does not parse.
func toNumber(v Value) float64 {
	switch t := v.(type) {
	case NumberValue:
		return float64(t)
	case nil, NullValue:
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	if err != nil {
		return 0
	}
	return f
}

// toBool is true only for the case-insensitive string form "true".
func toBool(v Value) bool {
	if IsNull(v) {
		return false
	}
	return strings.EqualFold(v.String(), "true")
}

func stringOf(v Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// FromGo converts a Go value into a Value. Reflection is only used here, at
// the point where host data is bound into a render.
func FromGo(v any) Value {
	if v == nil {
		return Null
	}
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return NumberValue(t)
	case int8:
		return NumberValue(t)
	case int16:
		return NumberValue(t)
	case int32:
		return NumberValue(t)
	case int64:
		return NumberValue(t)
	case uint:
		return NumberValue(t)
	case uint8:
		return NumberValue(t)
	case uint16:
		return NumberValue(t)
	case uint32:
		return NumberValue(t)
	case uint64:
		return NumberValue(t)
	case float32:
		return NumberValue(t)
	case float64:
		return NumberValue(t)
	case []byte:
		return StringValue(string(t))
	case time.Time:
		return TimeValue{Time: t}
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() != reflect.Struct && rv.Kind() != reflect.Pointer {
			return StringValue(t.String())
		}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make(ListValue, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, FromGo(rv.Index(i).Interface()))
		}
		return out
	case reflect.Map:
		out := DictValue{}
		it := rv.MapRange()
		for it.Next() {
			out[fmt.Sprint(it.Key().Interface())] = FromGo(it.Value().Interface())
		}
		return out
	case reflect.Struct:
		return structToDict(rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return FromGo(rv.Elem().Interface())
	}
	return StringValue(fmt.Sprintf("%v", v))
}

func structToDict(rv reflect.Value) DictValue {
	out := DictValue{}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		for _, tag := range []string{"json", "yaml"} {
			if alias, _, _ := strings.Cut(f.Tag.Get(tag), ","); alias != "" {
				if alias == "-" {
					name = ""
				} else {
					name = alias
				}
				break
			}
		}
		if name == "" {
			continue
		}
		out[name] = FromGo(rv.Field(i).Interface())
	}
	return out
}

// TimeValue carries a timestamp through the value model so presentation tags
// can format it without reparsing.
type TimeValue struct {
	Time time.Time
}

func (t TimeValue) String() string { return t.Time.Format(time.RFC3339) }
func (t TimeValue) Truth() bool    { return !t.Time.IsZero() }
