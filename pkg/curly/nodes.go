package curly

import "fmt"

// TextNode is literal text.
type TextNode struct {
	Text string
}

func (n *TextNode) Execute(ctx *Context) (Signal, error) {
	ctx.Write(n.Text)
	return Continue, nil
}

// EvalNode emits the value of a key: {{ key }} or {{{ key }}}.
type EvalNode struct {
	Key    Key
	Escape bool
}

func (n *EvalNode) Execute(ctx *Context) (Signal, error) {
	v, err := n.Key.Evaluate(ctx)
	if err != nil {
		return Continue, fmt.Errorf("evaluating %s: %w", n.Key, err)
	}
	if IsNull(v) {
		return Continue, nil
	}
	if n.Escape {
		ctx.WriteEscaped(v.String())
	} else {
		ctx.Write(v.String())
	}
	return Continue, nil
}

// IfNode renders Then when Cond is truthy, Else otherwise.
type IfNode struct {
	Cond Key
	Then Node
	Else Node
}

func (n *IfNode) Execute(ctx *Context) (Signal, error) {
	v, err := n.Cond.Evaluate(ctx)
	if err != nil {
		return Continue, fmt.Errorf("evaluating %s: %w", n.Cond, err)
	}
	if truthy(v) {
		return n.Then.Execute(ctx)
	}
	if n.Else != nil {
		return n.Else.Execute(ctx)
	}
	return Continue, nil
}

// EachNode renders Body once per item of Source with the item as the
// innermost scope frame.
type EachNode struct {
	Source Key
	Body   Node
}

func (n *EachNode) Execute(ctx *Context) (Signal, error) {
	v, err := n.Source.Evaluate(ctx)
	if err != nil {
		return Continue, fmt.Errorf("evaluating %s: %w", n.Source, err)
	}
	if IsNull(v) {
		return Continue, nil
	}
	items, ok := v.(ListValue)
	if !ok {
		items = ListValue{v}
	}
	defer ctx.saveVars("index", "first", "last")()
	for i, item := range items {
		ctx.SetVar("index", NumberValue(i))
		ctx.SetVar("first", BoolValue(i == 0))
		ctx.SetVar("last", BoolValue(i == len(items)-1))
		sig, err := ctx.With(item, n.Body.Execute)
		if err != nil {
			return Continue, err
		}
		if sig == Break {
			break
		}
	}
	return Continue, nil
}

// GroupNode renders its children in order. A break raised by one child is
// reported after the remaining siblings have run.
type GroupNode struct {
	Children []Node
}

func (n *GroupNode) Execute(ctx *Context) (Signal, error) {
	sig := Continue
	for _, c := range n.Children {
		s, err := c.Execute(ctx)
		if err != nil {
			return Continue, err
		}
		if s == Break {
			sig = Break
		}
	}
	return sig, nil
}

// CacheNode renders Body once per cache key and replays the stored output
// while it is fresh.
type CacheNode struct {
	Key  Key
	Body Node
}

func (n *CacheNode) Execute(ctx *Context) (Signal, error) {
	if ctx.cache == nil {
		return n.Body.Execute(ctx)
	}
	k, err := n.Key.Evaluate(ctx)
	if err != nil {
		return Continue, fmt.Errorf("evaluating %s: %w", n.Key, err)
	}
	key := stringOf(k)
	if f, ok := ctx.cache.Get(key); ok {
		ctx.Write(f.Out)
		return f.Signal, nil
	}
	out, sig, err := ctx.Capture(n.Body.Execute)
	if err != nil {
		return Continue, err
	}
	ctx.cache.Set(key, Fragment{Out: out, Signal: sig})
	ctx.Write(out)
	return sig, nil
}

// BodyNode is the layout injection point: {{#body}}.
type BodyNode struct{}

func (BodyNode) Execute(ctx *Context) (Signal, error) {
	doc, ok := ctx.NextDocument()
	if !ok {
		ctx.Logger().Debug("body tag with an empty document queue")
		return Continue, nil
	}
	if err := ctx.RunDocument(doc); err != nil {
		return Continue, fmt.Errorf("rendering %s: %w", doc.Name, err)
	}
	return Continue, nil
}

// SetNode stores the right side of an assignment in the variable table:
// {{#set name := key}}. Keys that are not assignments do nothing.
type SetNode struct {
	Key Key
}

func (n *SetNode) Execute(ctx *Context) (Signal, error) {
	c, ok := n.Key.(*Composite)
	if !ok || c.Op != OpAssign {
		return Continue, nil
	}
	v, err := c.Right.Evaluate(ctx)
	if err != nil {
		return Continue, fmt.Errorf("evaluating %s: %w", c.Right, err)
	}
	ctx.SetVar(c.Name(), v)
	return Continue, nil
}

// BreakNode stops the nearest enclosing each once the current iteration ends.
type BreakNode struct{}

func (BreakNode) Execute(*Context) (Signal, error) { return Break, nil }
