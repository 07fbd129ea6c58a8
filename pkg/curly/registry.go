package curly

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TagFactory builds the node for a custom tag from the text that follows the
// tag name.
type TagFactory func(doc *Document, content string) (Node, error)

// Registry holds the custom tags and :: functions known to an engine. It is
// populated before use and read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	tags  map[string]TagFactory
	funcs map[string]FuncValue
}

// NewRegistry returns a registry holding the built-in body, set and break
// tags and the default functions.
func NewRegistry() *Registry {
	r := &Registry{tags: map[string]TagFactory{}, funcs: map[string]FuncValue{}}
	r.tags["body"] = func(*Document, string) (Node, error) { return BodyNode{}, nil }
	r.tags["break"] = func(*Document, string) (Node, error) { return BreakNode{}, nil }
	r.tags["set"] = func(doc *Document, content string) (Node, error) {
		k, err := doc.ParseKey(content, Any)
		if err != nil {
			return nil, err
		}
		return &SetNode{Key: k}, nil
	}
	for name, fn := range defaultFuncs() {
		r.funcs[name] = FuncValue{Name: name, Fn: fn}
	}
	return r
}

// Register adds a custom tag. Control tag names cannot be overridden.
func (r *Registry) Register(name string, f TagFactory) error {
	if !isIdent(name) {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if controlTag(name) {
		return fmt.Errorf("tag %q is reserved", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[name] = f
	return nil
}

// RegisterFunc adds a function callable as value::name.
func (r *Registry) RegisterFunc(name string, fn func(Value) (Value, error)) error {
	if !isIdent(name) {
		return fmt.Errorf("invalid function name %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = FuncValue{Name: name, Fn: fn}
	return nil
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (TagFactory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.tags[name]
	return f, ok
}

// Has reports whether name is a registered tag.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Func returns the function registered under name.
func (r *Registry) Func(name string) (FuncValue, bool) {
	if r == nil {
		return FuncValue{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	return f, ok
}

// ParseKey parses an expression like the package level ParseKey and also
// checks that every :: call names a registered function.
func (r *Registry) ParseKey(text string, expected KeyType) (Key, error) {
	k, err := ParseKey(text, expected)
	if err != nil {
		return nil, err
	}
	var missing string
	WalkKey(k, func(k Key) {
		if comp, ok := k.(*Composite); ok && comp.Op == OpCall && missing == "" {
			if _, ok := r.Func(comp.Right.String()); !ok {
				missing = comp.Right.String()
			}
		}
	})
	if missing != "" {
		return nil, &KeyError{Key: text, Msg: fmt.Sprintf("unknown function %q", missing)}
	}
	return k, nil
}

// Names lists the control tags and every registered tag, sorted.
func (r *Registry) Names() []string {
	names := []string{tagIf, tagEach, tagElse, tagCache}
	if r != nil {
		r.mu.RLock()
		for n := range r.tags {
			names = append(names, n)
		}
		r.mu.RUnlock()
	}
	sort.Strings(names)
	return names
}

// FuncNames lists the registered functions, sorted.
func (r *Registry) FuncNames() []string {
	var names []string
	if r != nil {
		r.mu.RLock()
		for n := range r.funcs {
			names = append(names, n)
		}
		r.mu.RUnlock()
	}
	sort.Strings(names)
	return names
}

func defaultFuncs() map[string]func(Value) (Value, error) {
	return map[string]func(Value) (Value, error){
		"upper": func(v Value) (Value, error) { return StringValue(strings.ToUpper(stringOf(v))), nil },
		"lower": func(v Value) (Value, error) { return StringValue(strings.ToLower(stringOf(v))), nil },
		"trim":  func(v Value) (Value, error) { return StringValue(strings.TrimSpace(stringOf(v))), nil },
		"length": func(v Value) (Value, error) {
			switch t := v.(type) {
			case ListValue:
				return NumberValue(len(t)), nil
			case DictValue:
				return NumberValue(len(t)), nil
			case *RecordValue:
				return NumberValue(len(t.Fields)), nil
			case nil, NullValue:
				return NumberValue(0), nil
			}
			return NumberValue(len([]rune(v.String()))), nil
		},
		"join": func(v Value) (Value, error) {
			list, ok := v.(ListValue)
			if !ok {
				return StringValue(stringOf(v)), nil
			}
			parts := make([]string, len(list))
			for i, item := range list {
				parts[i] = stringOf(item)
			}
			return StringValue(strings.Join(parts, ",")), nil
		},
	}
}
