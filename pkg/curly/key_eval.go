package curly

import (
	"fmt"
	"strings"
)

func (c *Composite) Evaluate(ctx *Context) (Value, error) {
	if c.Op == OpCall {
		return c.call(ctx)
	}
	if c.Op == OpAssign {
		return c.Right.Evaluate(ctx)
	}
	l, err := c.Left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	r, err := c.Right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case OpEqual:
		return BoolValue(equal(l, r)), nil
	case OpDifferent:
		return BoolValue(!equal(l, r)), nil
	case OpGreater:
		return BoolValue(toNumber(l) > toNumber(r)), nil
	case OpLess:
		return BoolValue(toNumber(l) < toNumber(r)), nil
	case OpGreaterOrEqual:
		return BoolValue(!(toNumber(l) < toNumber(r))), nil
	case OpLessOrEqual:
		return BoolValue(!(toNumber(l) > toNumber(r))), nil
	case OpAnd:
		return BoolValue(toBool(l) && toBool(r)), nil
	case OpOr:
		return BoolValue(toBool(l) || toBool(r)), nil
	case OpContains:
		return BoolValue(contains(l, r)), nil
	case OpBegins:
		return BoolValue(strings.HasPrefix(stringOf(l), stringOf(r))), nil
	case OpEnds:
		return BoolValue(strings.HasSuffix(stringOf(l), stringOf(r))), nil
	case OpPlus:
		return NumberValue(toNumber(l) + toNumber(r)), nil
	case OpMultiply:
		return NumberValue(toNumber(l) * toNumber(r)), nil
	}
	return nil, fmt.Errorf("unhandled operator %s", c.Op)
}

func (c *Composite) call(ctx *Context) (Value, error) {
	name := c.Right.String()
	fn, ok := ctx.Func(name)
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	v, err := c.Left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	out, err := fn.Fn(v)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", name, err)
	}
	if out == nil {
		return Null, nil
	}
	return out, nil
}

// equal compares string forms; null only equals null.
func equal(l, r Value) bool {
	ln, rn := IsNull(l), IsNull(r)
	if ln || rn {
		return ln && rn
	}
	return l.String() == r.String()
}

func contains(l, r Value) bool {
	if IsNull(r) || r.String() == "" {
		return false
	}
	needle := r.String()
	if list, ok := l.(ListValue); ok {
		for _, item := range list {
			if stringOf(item) == needle {
				return true
			}
		}
		return false
	}
	return strings.Contains(stringOf(l), needle)
}
