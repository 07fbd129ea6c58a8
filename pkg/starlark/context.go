package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/neurodesk/curly/pkg/curly"
	"go.starlark.net/starlark"
)

// DataContext receives values published by a data script through set_variable.
type DataContext interface {
	SetVariable(name string, value curly.Value)
}

// NewEvaluatorWithContext creates an evaluator whose set_variable builtin
// publishes into ctx. A nil ctx makes set_variable fail.
func NewEvaluatorWithContext(ctx DataContext) *Evaluator {
	thread := &starlark.Thread{
		Name: "curly",
		Print: func(_ *starlark.Thread, msg string) {
			slog.Info("starlark", "msg", msg)
		},
	}
	return &Evaluator{
		thread:   thread,
		builtins: CreateBuiltins(ctx),
		globals:  make(starlark.StringDict),
	}
}

// CreateBuiltins creates the Starlark built-in functions available to data
// scripts.
func CreateBuiltins(ctx DataContext) starlark.StringDict {
	return starlark.StringDict{
		"env": starlark.NewBuiltin("env", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name, def string
			if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
				return starlark.None, err
			}
			if v, ok := os.LookupEnv(name); ok {
				return starlark.String(v), nil
			}
			return starlark.String(def), nil
		}),

		"set_variable": starlark.NewBuiltin("set_variable", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if ctx == nil {
				return starlark.None, fmt.Errorf("set_variable is not available here")
			}
			if len(args) != 2 {
				return starlark.None, fmt.Errorf("set_variable requires exactly 2 arguments: name, value")
			}

			var name string
			if strVal, ok := args[0].(starlark.String); ok {
				name = string(strVal)
			} else {
				name = args[0].String()
			}
			if strings.TrimSpace(name) == "" {
				return starlark.None, fmt.Errorf("set_variable: empty name")
			}

			ctx.SetVariable(name, ConvertFromStarlark(args[1]))
			return starlark.None, nil
		}),
	}
}

// RecordContext collects set_variable calls into an ordered record.
type RecordContext struct {
	Record curly.RecordValue
}

func (c *RecordContext) SetVariable(name string, value curly.Value) {
	c.Record.Set(name, value)
}
