package curly

import (
	"strings"
)

// KeyType is the natural or expected type of a rendering key.
type KeyType int

const (
	Any KeyType = iota
	Bool
	String
	Numeric
	Collection
)

func (t KeyType) String() string {
	switch t {
	case Bool:
		return "bool"
	case String:
		return "string"
	case Numeric:
		return "numeric"
	case Collection:
		return "collection"
	}
	return "any"
}

// Operator identifies the operation of a Composite key.
type Operator int

const (
	OpAnd Operator = iota
	OpOr
	OpEqual
	OpDifferent
	OpGreaterOrEqual
	OpLessOrEqual
	OpAssign
	OpBegins
	OpEnds
	OpGreater
	OpLess
	OpPlus
	OpMultiply
	OpContains
	OpCall
)

type symbol struct {
	text     string
	op       Operator
	priority int
	// operand is the type expected of both sides.
	operand KeyType
	// result is the natural type of the composite.
	result KeyType
}

// symbols is scanned in order; on equal priority the later entry wins.
var symbols = []symbol{
	{"&&", OpAnd, 1, Bool, Bool},
	{"||", OpOr, 1, Bool, Bool},
	{"==", OpEqual, 0, Any, Bool},
	{"!=", OpDifferent, 0, Any, Bool},
	{">=", OpGreaterOrEqual, 0, Numeric, Bool},
	{"<=", OpLessOrEqual, 0, Numeric, Bool},
	{":=", OpAssign, 0, Any, Any},
	{"*?", OpBegins, 0, String, Bool},
	{"?*", OpEnds, 0, String, Bool},
	{">", OpGreater, 0, Numeric, Bool},
	{"<", OpLess, 0, Numeric, Bool},
	{"+", OpPlus, 0, Numeric, Numeric},
	{"*", OpMultiply, 0, Numeric, Numeric},
	{"?", OpContains, 0, Any, Bool},
	{"::", OpCall, 0, Any, Any},
}

func (o Operator) String() string {
	for _, s := range symbols {
		if s.op == o {
			return s.text
		}
	}
	return "?"
}

func symbolOf(o Operator) symbol {
	for _, s := range symbols {
		if s.op == o {
			return s
		}
	}
	return symbol{}
}

// Key is a compiled rendering key.
type Key interface {
	Evaluate(ctx *Context) (Value, error)
	// Type is the natural type of the key, Any when only known at render time.
	Type() KeyType
	String() string
}

// Literal is a constant.
type Literal struct {
	Value Value
	Kind  KeyType
}

func (l *Literal) Evaluate(*Context) (Value, error) { return l.Value, nil }
func (l *Literal) Type() KeyType                    { return l.Kind }
func (l *Literal) String() string {
	if l.Kind == String {
		return "'" + l.Value.String() + "'"
	}
	return l.Value.String()
}

// Path is a dotted lookup through the scope stack.
type Path struct {
	Steps []string
}

func (p *Path) Evaluate(ctx *Context) (Value, error) { return ctx.resolve(p.Steps), nil }
func (p *Path) Type() KeyType                        { return Any }
func (p *Path) String() string                       { return strings.Join(p.Steps, ".") }

// Global reads the variable table: @name.
type Global struct {
	Name  string
	Steps []string
}

func (g *Global) Evaluate(ctx *Context) (Value, error) {
	v, ok := ctx.Var(g.Name)
	if !ok {
		return Null, nil
	}
	if v, ok := walk(v, g.Steps); ok {
		return v, nil
	}
	return Null, nil
}
func (g *Global) Type() KeyType { return Any }
func (g *Global) String() string {
	if len(g.Steps) == 0 {
		return "@" + g.Name
	}
	return "@" + g.Name + "." + strings.Join(g.Steps, ".")
}

// Self is the innermost scope frame: this.
type Self struct{}

func (Self) Evaluate(ctx *Context) (Value, error) { return ctx.Current(), nil }
func (Self) Type() KeyType                        { return Any }
func (Self) String() string                       { return "this" }

// Negation is !inner.
type Negation struct {
	Inner Key
}

func (n *Negation) Evaluate(ctx *Context) (Value, error) {
	v, err := n.Inner.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case BoolValue:
		return !t, nil
	case ListValue:
		return BoolValue(len(t) == 0), nil
	}
	return nil, &TypeError{Op: "!", Value: v}
}
func (n *Negation) Type() KeyType  { return Bool }
func (n *Negation) String() string { return "!" + n.Inner.String() }

// Composite is a binary operation.
type Composite struct {
	Op          Operator
	Left, Right Key
}

func (c *Composite) Type() KeyType { return symbolOf(c.Op).result }
func (c *Composite) String() string {
	return "(" + c.Left.String() + " " + c.Op.String() + " " + c.Right.String() + ")"
}

// Name returns the textual name of an assignment target.
func (c *Composite) Name() string {
	switch t := c.Left.(type) {
	case *Path:
		return t.String()
	case *Global:
		return strings.TrimPrefix(t.String(), "@")
	}
	return c.Left.String()
}

// WalkKey calls fn for k and every key below it.
func WalkKey(k Key, fn func(Key)) {
	fn(k)
	switch t := k.(type) {
	case *Negation:
		WalkKey(t.Inner, fn)
	case *Composite:
		WalkKey(t.Left, fn)
		WalkKey(t.Right, fn)
	}
}
