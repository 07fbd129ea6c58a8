package curly

import (
	"strconv"
	"strings"
)

// occurrence is one match of a symbol in an expression.
type occurrence struct {
	sym int
	at  int
}

// ParseKey compiles an expression. The key's natural type must fit expected
// unless expected is Any.
//
// Operators are not parsed by precedence climbing: every symbol occurrence is
// collected and the one with the highest priority is split on, ties going to
// the symbol listed later in the symbol table and then to the later
// occurrence. Only && and || carry priority, so 1 + 2 * 3 reads as
// (1 + 2) * 3.
func ParseKey(text string, expected KeyType) (Key, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, &KeyError{Key: text, Msg: "empty expression"}
	}
	k, err := parseKey(s)
	if err != nil {
		return nil, err
	}
	if !fits(k, expected) {
		return nil, &KeyError{Key: s, Msg: k.Type().String() + " used where " + expected.String() + " is required"}
	}
	return k, nil
}

func parseKey(s string) (Key, error) {
	if o, ok := selectOperator(s); ok {
		sym := symbols[o.sym]
		return parseComposite(s, sym, s[:o.at], s[o.at+len(sym.text):])
	}

	switch {
	case strings.HasPrefix(s, "!"):
		inner, err := ParseKey(s[1:], Bool)
		if err != nil {
			return nil, err
		}
		return &Negation{Inner: inner}, nil
	case strings.HasPrefix(s, "@"):
		steps, err := splitPath(s, s[1:])
		if err != nil {
			return nil, err
		}
		return &Global{Name: steps[0], Steps: steps[1:]}, nil
	case s == "true" || s == "false":
		return &Literal{Value: BoolValue(s == "true"), Kind: Bool}, nil
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return &Literal{Value: StringValue(s[1 : len(s)-1]), Kind: String}, nil
	case s == "this":
		return Self{}, nil
	case strings.HasPrefix(s, "this."):
		return parseKey(strings.TrimSpace(s[len("this."):]))
	}
	if looksNumeric(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &KeyError{Key: s, Msg: "invalid number"}
		}
		return &Literal{Value: NumberValue(f), Kind: Numeric}, nil
	}
	steps, err := splitPath(s, s)
	if err != nil {
		return nil, err
	}
	return &Path{Steps: steps}, nil
}

func parseComposite(s string, sym symbol, lhs, rhs string) (Key, error) {
	left, err := ParseKey(lhs, sym.operand)
	if err != nil {
		return nil, err
	}
	if sym.op == OpCall {
		name := strings.TrimSpace(rhs)
		if !isIdent(name) {
			return nil, &KeyError{Key: s, Msg: "expected a function name after ::"}
		}
		return &Composite{Op: OpCall, Left: left, Right: &Path{Steps: []string{name}}}, nil
	}
	right, err := ParseKey(rhs, sym.operand)
	if err != nil {
		return nil, err
	}
	if sym.op == OpAssign {
		switch left.(type) {
		case *Path, *Global:
		default:
			return nil, &KeyError{Key: s, Msg: "left side of := must be a name"}
		}
	}
	return &Composite{Op: sym.op, Left: left, Right: right}, nil
}

// selectOperator picks the operator occurrence the expression is split on.
func selectOperator(s string) (occurrence, bool) {
	occs := scanSymbols(s)
	best := -1
	for si := range symbols {
		for i, o := range occs {
			if o.sym != si {
				continue
			}
			if best < 0 || symbols[si].priority >= symbols[occs[best].sym].priority {
				best = i
			}
		}
	}
	if best < 0 {
		return occurrence{}, false
	}
	return occs[best], true
}

// scanSymbols finds symbol occurrences outside quoted strings, preferring the
// longest symbol at each position.
func scanSymbols(s string) []occurrence {
	var occs []occurrence
	inString := false
	for i := 0; i < len(s); {
		if s[i] == '\'' {
			inString = !inString
			i++
			continue
		}
		if inString {
			i++
			continue
		}
		matched := -1
		for si, sym := range symbols {
			if strings.HasPrefix(s[i:], sym.text) && (matched < 0 || len(sym.text) > len(symbols[matched].text)) {
				matched = si
			}
		}
		if matched < 0 {
			i++
			continue
		}
		occs = append(occs, occurrence{sym: matched, at: i})
		i += len(symbols[matched].text)
	}
	return occs
}

// fits applies the position type rules.
func fits(k Key, expected KeyType) bool {
	natural := k.Type()
	switch expected {
	case Any:
		return true
	case Bool:
		return natural == Bool || natural == Any
	case Numeric:
		return natural == Numeric || natural == String || natural == Any
	case String:
		return natural == String || natural == Numeric || natural == Any
	case Collection:
		return natural == Any
	}
	return false
}

func splitPath(orig, s string) ([]string, error) {
	steps := strings.Split(s, ".")
	for i, st := range steps {
		st = strings.TrimSpace(st)
		if st == "" || strings.ContainsAny(st, " \t'\"{}()") {
			return nil, &KeyError{Key: orig, Msg: "invalid path"}
		}
		steps[i] = st
	}
	return steps, nil
}

func looksNumeric(s string) bool {
	c := s[0]
	if c == '-' || c == '+' || c == '.' {
		if len(s) == 1 {
			return false
		}
		c = s[1]
	}
	return c >= '0' && c <= '9'
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
