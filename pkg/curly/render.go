package curly

import (
	"context"
	"fmt"
	"log/slog"
)

// Engine compiles and renders templates against a fixed registry.
type Engine struct {
	registry      *Registry
	parseNewLines bool
	logger        *slog.Logger
	cache         OutputCache
}

// Option configures an Engine.
type Option func(*Engine)

// WithParseNewLines controls whether newlines in literal text are kept (the
// default) or dropped.
func WithParseNewLines(keep bool) Option {
	return func(e *Engine) { e.parseNewLines = keep }
}

// WithLogger sets the logger used while compiling and rendering.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithOutputCache sets the store used by {{#cache}} blocks.
func WithOutputCache(c OutputCache) Option {
	return func(e *Engine) { e.cache = c }
}

// New returns an engine over reg. A nil registry gets NewRegistry().
func New(reg *Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	e := &Engine{registry: reg, parseNewLines: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine compiles against.
func (e *Engine) Registry() *Registry { return e.registry }

// Compile parses and compiles src. No Document is returned on error.
func (e *Engine) Compile(name, src string) (*Document, error) {
	pn, err := Parse(src, e.registry, e.parseNewLines)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	doc, err := Compile(name, pn, e.registry)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}
	e.logger.Debug("compiled template", "template", name, "nodes", len(doc.Nodes))
	return doc, nil
}

// Render executes the first document against data. The remaining documents
// are queued and consumed one per {{#body}}.
func (e *Engine) Render(data Value, docs ...*Document) (string, error) {
	if len(docs) == 0 {
		return "", fmt.Errorf("render: no documents")
	}
	ctx := newContext(e, data, docs[1:])
	if err := ctx.RunDocument(docs[0]); err != nil {
		e.logger.Debug("render failed", "template", docs[0].Name, "error", err)
		return "", fmt.Errorf("rendering %s: %w", docs[0].Name, err)
	}
	if n := len(ctx.queue); n > 0 {
		e.logger.Debug("documents left unused", "template", docs[0].Name, "count", n)
	}
	return ctx.out.String(), nil
}

type renderResult struct {
	out string
	err error
}

// RenderContext is Render on a worker goroutine. When ctx ends first the
// worker is abandoned and ctx.Err() is returned.
func (e *Engine) RenderContext(ctx context.Context, data Value, docs ...*Document) (string, error) {
	done := make(chan renderResult, 1)
	go func() {
		out, err := e.Render(data, docs...)
		done <- renderResult{out, err}
	}()
	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// RenderString compiles and renders a single template.
func (e *Engine) RenderString(name, src string, data Value) (string, error) {
	doc, err := e.Compile(name, src)
	if err != nil {
		return "", err
	}
	return e.Render(data, doc)
}
