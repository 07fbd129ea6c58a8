package starlark

import (
	"fmt"
	"sort"

	"github.com/neurodesk/curly/pkg/curly"
	"go.starlark.net/starlark"
)

// Evaluator runs Starlark data scripts and exposes their globals as template
// data.
type Evaluator struct {
	thread   *starlark.Thread
	builtins starlark.StringDict
	globals  starlark.StringDict
}

// NewEvaluator creates a new Starlark evaluator
func NewEvaluator() *Evaluator {
	return NewEvaluatorWithContext(nil)
}

// SetGlobal sets a global variable in the Starlark environment
func (e *Evaluator) SetGlobal(name string, value curly.Value) {
	e.globals[name] = ConvertToStarlark(value)
}

// SetGlobalStarlark sets a global variable using a native Starlark value
func (e *Evaluator) SetGlobalStarlark(name string, value starlark.Value) {
	e.globals[name] = value
}

func (e *Evaluator) predeclared() starlark.StringDict {
	predeclared := make(starlark.StringDict, len(e.builtins)+len(e.globals))
	for k, v := range e.builtins {
		predeclared[k] = v
	}
	for k, v := range e.globals {
		predeclared[k] = v
	}
	return predeclared
}

// Eval evaluates a Starlark expression
func (e *Evaluator) Eval(expr string) (curly.Value, error) {
	val, err := starlark.Eval(e.thread, "<eval>", expr, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark evaluation error: %w", err)
	}
	return ConvertFromStarlark(val), nil
}

// ExecFile executes a Starlark file and returns the globals it defined.
// src may be nil, a string or a []byte, as for starlark.ExecFile.
func (e *Evaluator) ExecFile(filename string, src interface{}) (starlark.StringDict, error) {
	globals, err := starlark.ExecFile(e.thread, filename, src, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	for k, v := range globals {
		e.globals[k] = v
	}
	return globals, nil
}

// ExecString executes a Starlark script from a string
func (e *Evaluator) ExecString(script string) (starlark.StringDict, error) {
	return e.ExecFile("<script>", script)
}

// GetGlobal retrieves a global variable
func (e *Evaluator) GetGlobal(name string) (curly.Value, bool) {
	if val, ok := e.globals[name]; ok {
		return ConvertFromStarlark(val), true
	}
	return nil, false
}

// Load copies the members of a record or dict into the Starlark globals.
func (e *Evaluator) Load(data curly.Value) {
	switch d := data.(type) {
	case curly.DictValue:
		for key, value := range d {
			e.SetGlobal(key, value)
		}
	case *curly.RecordValue:
		for _, f := range d.Fields {
			e.SetGlobal(f.Name, f.Value)
		}
	}
}

// Export returns the exportable globals as a record sorted by name.
// Functions and names starting with an underscore are left out.
func (e *Evaluator) Export() *curly.RecordValue {
	names := make([]string, 0, len(e.globals))
	for key, value := range e.globals {
		if !isExportable(key, value) {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)
	rec := &curly.RecordValue{}
	for _, name := range names {
		rec.Fields = append(rec.Fields, curly.Field{Name: name, Value: ConvertFromStarlark(e.globals[name])})
	}
	return rec
}

func isExportable(key string, value starlark.Value) bool {
	if key == "" || key[0] == '_' {
		return false
	}
	if _, ok := value.(starlark.Callable); ok {
		return false
	}
	return true
}
