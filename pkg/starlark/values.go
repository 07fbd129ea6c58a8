package starlark

import (
	"github.com/neurodesk/curly/pkg/curly"
	"go.starlark.net/starlark"
)

// ConvertToStarlark converts a template Value to a Starlark value
func ConvertToStarlark(val curly.Value) starlark.Value {
	if val == nil {
		return starlark.None
	}

	switch v := val.(type) {
	case curly.NullValue:
		return starlark.None
	case curly.StringValue:
		return starlark.String(string(v))
	case curly.NumberValue:
		f := float64(v)
		if f == float64(int64(f)) {
			return starlark.MakeInt64(int64(f))
		}
		return starlark.Float(f)
	case curly.BoolValue:
		return starlark.Bool(bool(v))
	case curly.ListValue:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(items)
	case curly.DictValue:
		dict := starlark.NewDict(len(v))
		for key, value := range v {
			_ = dict.SetKey(starlark.String(key), ConvertToStarlark(value))
		}
		return dict
	case *curly.RecordValue:
		dict := starlark.NewDict(len(v.Fields))
		for _, f := range v.Fields {
			_ = dict.SetKey(starlark.String(f.Name), ConvertToStarlark(f.Value))
		}
		return dict
	case Value:
		return v.Value
	default:
		return starlark.String(val.String())
	}
}

// ConvertFromStarlark converts a Starlark value to a template Value. Dicts
// become records so that insertion order is kept.
func ConvertFromStarlark(val starlark.Value) curly.Value {
	if val == nil || val == starlark.None {
		return curly.Null
	}

	switch v := val.(type) {
	case starlark.String:
		return curly.StringValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return curly.NumberValue(i)
		}
		// For very large integers, convert to string
		return curly.StringValue(v.String())
	case starlark.Float:
		return curly.NumberValue(float64(v))
	case starlark.Bool:
		return curly.BoolValue(bool(v))
	case *starlark.List:
		items := make(curly.ListValue, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case starlark.Tuple:
		items := make(curly.ListValue, len(v))
		for i, item := range v {
			items[i] = ConvertFromStarlark(item)
		}
		return items
	case *starlark.Dict:
		rec := &curly.RecordValue{}
		for _, item := range v.Items() {
			key := item[0].String()
			if s, ok := item[0].(starlark.String); ok {
				key = string(s)
			}
			rec.Fields = append(rec.Fields, curly.Field{Name: key, Value: ConvertFromStarlark(item[1])})
		}
		return rec
	case starlark.HasAttrs:
		return Value{Value: v}
	default:
		return curly.StringValue(val.String())
	}
}

// Value exposes a Starlark object with attributes (a struct or module) to
// templates. Attributes are converted when a path reaches them.
type Value struct {
	Value starlark.Value
}

func (w Value) String() string {
	if s, ok := w.Value.(starlark.String); ok {
		return string(s)
	}
	return w.Value.String()
}

func (w Value) Truth() bool {
	if w.Value == nil {
		return false
	}
	return bool(w.Value.Truth())
}

// Get implements curly.Getter.
func (w Value) Get(name string) (curly.Value, bool) {
	ha, ok := w.Value.(starlark.HasAttrs)
	if !ok {
		return nil, false
	}
	attr, err := ha.Attr(name)
	if err != nil || attr == nil {
		return nil, false
	}
	return ConvertFromStarlark(attr), true
}

var (
	_ curly.Value  = Value{}
	_ curly.Getter = Value{}
)
