// Package datafile loads render data for templates from JSON, YAML and
// Starlark files. Mapping order is kept: objects become *curly.RecordValue.
package datafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/neurodesk/curly/pkg/curly"
	star "github.com/neurodesk/curly/pkg/starlark"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions Load understands.
var Extensions = []string{".json", ".yaml", ".yml", ".star"}

// Load reads a data file, choosing the decoder from its extension.
func Load(path string) (curly.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return v, nil
}

// Parse decodes data as the format implied by name's extension.
func Parse(name string, data []byte) (curly.Value, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".star":
		return ParseStarlark(name, data)
	}
	return nil, fmt.Errorf("unsupported data file type %q", filepath.Ext(name))
}

// ParseYAML decodes a single YAML document.
func ParseYAML(data []byte) (curly.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return curly.Null, nil
	}
	return fromYAML(&doc)
}

func fromYAML(n *yaml.Node) (curly.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return curly.Null, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		list := make(curly.ListValue, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		rec := &curly.RecordValue{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, vn := n.Content[i], n.Content[i+1]
			v, err := fromYAML(vn)
			if err != nil {
				return nil, err
			}
			if k.Tag == "!!merge" {
				if m, ok := v.(*curly.RecordValue); ok {
					for _, f := range m.Fields {
						if _, exists := rec.Member(f.Name); !exists {
							rec.Fields = append(rec.Fields, f)
						}
					}
				}
				continue
			}
			rec.Set(k.Value, v)
		}
		return rec, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func fromScalar(n *yaml.Node) (curly.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return curly.Null, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return curly.BoolValue(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return curly.NumberValue(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, err
		}
		return curly.TimeValue{Time: t}, nil
	}
	return curly.StringValue(n.Value), nil
}

// ParseJSON decodes a JSON document token by token so object key order is
// kept.
func ParseJSON(data []byte) (curly.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := fromJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func fromJSON(dec *json.Decoder) (curly.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			rec := &curly.RecordValue{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := fromJSON(dec)
				if err != nil {
					return nil, err
				}
				rec.Set(kt.(string), v)
			}
			_, err := dec.Token()
			return rec, err
		case '[':
			list := curly.ListValue{}
			for dec.More() {
				v, err := fromJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			_, err := dec.Token()
			return list, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return curly.NumberValue(f), nil
	case string:
		return curly.StringValue(t), nil
	case bool:
		return curly.BoolValue(t), nil
	case nil:
		return curly.Null, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// ParseStarlark executes a Starlark script and returns its exported globals.
func ParseStarlark(name string, data []byte) (curly.Value, error) {
	ev := star.NewEvaluator()
	if _, err := ev.ExecFile(name, data); err != nil {
		return nil, err
	}
	return ev.Export(), nil
}

// Plain converts a value into the map/slice form produced by encoding/json,
// which is what schema validation and JSON output expect.
func Plain(v curly.Value) any {
	switch t := v.(type) {
	case nil, curly.NullValue:
		return nil
	case curly.BoolValue:
		return bool(t)
	case curly.NumberValue:
		f := float64(t)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
		return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
	case curly.StringValue:
		return string(t)
	case curly.TimeValue:
		return t.Time.Format(time.RFC3339)
	case curly.ListValue:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	case curly.DictValue:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Plain(item)
		}
		return out
	case *curly.RecordValue:
		out := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			if _, seen := out[f.Name]; !seen {
				out[f.Name] = Plain(f.Value)
			}
		}
		return out
	}
	return v.String()
}

// Merge overlays the fields of extra onto base. Both must be records or
// dicts; the result is a new record in base order followed by new names.
func Merge(base, extra curly.Value) (curly.Value, error) {
	if curly.IsNull(base) {
		return extra, nil
	}
	if curly.IsNull(extra) {
		return base, nil
	}
	b, err := asRecord(base)
	if err != nil {
		return nil, err
	}
	e, err := asRecord(extra)
	if err != nil {
		return nil, err
	}
	out := &curly.RecordValue{Name: b.Name, Fields: append([]curly.Field(nil), b.Fields...)}
	for _, f := range e.Fields {
		out.Set(f.Name, f.Value)
	}
	return out, nil
}

func asRecord(v curly.Value) (*curly.RecordValue, error) {
	switch t := v.(type) {
	case *curly.RecordValue:
		return t, nil
	case curly.DictValue:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := &curly.RecordValue{}
		for _, k := range keys {
			rec.Fields = append(rec.Fields, curly.Field{Name: k, Value: t[k]})
		}
		return rec, nil
	}
	return nil, fmt.Errorf("cannot merge %T, want a mapping", v)
}

// SetPath assigns raw at a dotted path such as "site.title", creating
// records on the way. raw is read as a YAML scalar, so "3" is a number and
// "true" a bool. A record passed as v is updated in place.
func SetPath(v curly.Value, path, raw string) (curly.Value, error) {
	val, err := ParseYAML([]byte(raw))
	if err != nil {
		val = curly.StringValue(raw)
	}
	if _, ok := val.(*curly.RecordValue); ok {
		val = curly.StringValue(raw)
	}
	steps := strings.Split(path, ".")
	for _, s := range steps {
		if s == "" {
			return nil, fmt.Errorf("invalid path %q", path)
		}
	}
	root := &curly.RecordValue{}
	if !curly.IsNull(v) {
		if root, err = asRecord(v); err != nil {
			return nil, err
		}
	}
	rec := root
	for _, s := range steps[:len(steps)-1] {
		next, ok := rec.Member(s)
		child, isRec := next.(*curly.RecordValue)
		if !ok || !isRec {
			child = &curly.RecordValue{}
			rec.Set(s, child)
		}
		rec = child
	}
	rec.Set(steps[len(steps)-1], val)
	return root, nil
}
