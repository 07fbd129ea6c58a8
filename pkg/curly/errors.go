package curly

import "fmt"

// ParseError reports malformed template source.
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// CompileError reports a structurally invalid tag.
type CompileError struct {
	Tag string
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling {{#%s}}: %s", e.Tag, e.Msg)
}

// KeyError reports an expression that does not parse or does not fit the
// type required by its position.
type KeyError struct {
	Key string
	Msg string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key %q: %s", e.Key, e.Msg)
}

// TypeError is raised at render time when an operator receives a value it
// cannot work with.
type TypeError struct {
	Op    string
	Value Value
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: unsupported operand %T (%q)", e.Op, e.Value, stringOf(e.Value))
}
