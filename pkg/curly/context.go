package curly

import (
	"bytes"
	"html"
	"log/slog"
)

// Context is the mutable state of a single render. It is never shared
// between renders.
type Context struct {
	root   Value
	scopes []Value
	vars   map[string]Value
	out    *bytes.Buffer
	queue  []*Document

	registry *Registry
	cache    OutputCache
	logger   *slog.Logger
}

func newContext(e *Engine, data Value, queue []*Document) *Context {
	if data == nil {
		data = Null
	}
	return &Context{
		root:     data,
		scopes:   []Value{data},
		vars:     map[string]Value{},
		out:      &bytes.Buffer{},
		queue:    queue,
		registry: e.registry,
		cache:    e.cache,
		logger:   e.logger,
	}
}

// Write appends s to the output verbatim.
func (c *Context) Write(s string) { c.out.WriteString(s) }

// WriteEscaped appends s with HTML special characters escaped.
func (c *Context) WriteEscaped(s string) { c.out.WriteString(html.EscapeString(s)) }

// Root returns the data the render was started with.
func (c *Context) Root() Value { return c.root }

// Current returns the innermost scope frame.
func (c *Context) Current() Value {
	if len(c.scopes) == 0 {
		return Null
	}
	return c.scopes[len(c.scopes)-1]
}

// Depth is the number of frames on the scope stack.
func (c *Context) Depth() int { return len(c.scopes) }

// Var reads the variable table.
func (c *Context) Var(name string) (Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// SetVar writes the variable table.
func (c *Context) SetVar(name string, v Value) {
	if v == nil {
		v = Null
	}
	c.vars[name] = v
}

// Func looks up a function usable with ::.
func (c *Context) Func(name string) (FuncValue, bool) {
	return c.registry.Func(name)
}

// Logger returns the engine logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// With runs fn with v pushed as the innermost scope frame. The frame is
// popped however fn returns.
func (c *Context) With(v Value, fn func(*Context) (Signal, error)) (Signal, error) {
	depth := len(c.scopes)
	c.scopes = append(c.scopes, v)
	defer func() { c.scopes = c.scopes[:depth] }()
	return fn(c)
}

// Capture runs fn against a scratch output buffer and returns what it wrote.
func (c *Context) Capture(fn func(*Context) (Signal, error)) (string, Signal, error) {
	saved := c.out
	c.out = &bytes.Buffer{}
	defer func() { c.out = saved }()
	sig, err := fn(c)
	return c.out.String(), sig, err
}

// NextDocument dequeues the next document of the layout chain.
func (c *Context) NextDocument() (*Document, bool) {
	if len(c.queue) == 0 {
		return nil, false
	}
	doc := c.queue[0]
	c.queue = c.queue[1:]
	return doc, true
}

// RunDocument executes doc against a fresh scope stack seeded with the render
// root, restoring the current stack afterwards.
func (c *Context) RunDocument(doc *Document) error {
	saved := c.scopes
	c.scopes = []Value{c.root}
	defer func() { c.scopes = saved }()
	if doc == nil || doc.Root == nil {
		return nil
	}
	_, err := doc.Root.Execute(c)
	return err
}

// saveVars snapshots the named variables and returns a function restoring them.
func (c *Context) saveVars(names ...string) func() {
	type saved struct {
		v  Value
		ok bool
	}
	prev := make([]saved, len(names))
	for i, n := range names {
		v, ok := c.vars[n]
		prev[i] = saved{v, ok}
	}
	return func() {
		for i, n := range names {
			if prev[i].ok {
				c.vars[n] = prev[i].v
			} else {
				delete(c.vars, n)
			}
		}
	}
}

// resolve walks steps from the innermost frame outwards, then through the
// variable table. Unresolved paths are null.
func (c *Context) resolve(steps []string) Value {
	for depth := len(c.scopes) - 1; depth >= 0; depth-- {
		if v, ok := walk(c.scopes[depth], steps); ok {
			return v
		}
	}
	if v, ok := c.vars[steps[0]]; ok {
		if v, ok := walk(v, steps[1:]); ok {
			return v
		}
	}
	return Null
}

// walk follows every step from v; it fails as soon as one step does not
// resolve.
func walk(v Value, steps []string) (Value, bool) {
	for _, s := range steps {
		if IsNull(v) {
			return nil, false
		}
		m, ok := member(v, s)
		if !ok {
			return nil, false
		}
		v = m
	}
	if v == nil {
		return Null, true
	}
	return v, true
}
