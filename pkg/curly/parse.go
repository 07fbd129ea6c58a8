package curly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// The tag parser scans template source one rune at a time with an explicit
// state machine and produces a ParseNode tree rooted at a "group" node.

type scanState int

const (
	stateDefault  scanState = iota // literal text
	stateOpenTag                   // inside {{ ... }}
	stateString                    // inside a '...' literal within a tag
	stateEndTag                    // inside {{/ ... }}
	stateCloseTag                  // seen one } of a closer
)

type termKind int

const (
	termEOF termKind = iota
	termClose
	termElse
)

// terminator describes how a body ended.
type terminator struct {
	kind termKind
	name string
	pos  int
}

type parser struct {
	src      []rune
	i        int
	reg      *Registry
	newLines bool
}

// Parse scans src into a generic parse tree. Tag names are checked against
// reg; a nil registry only knows the control tags.
func Parse(src string, reg *Registry, parseNewLines bool) (*ParseNode, error) {
	p := &parser{src: []rune(src), reg: reg, newLines: parseNewLines}
	children, _, err := p.parseBody("")
	if err != nil {
		return nil, err
	}
	return &ParseNode{Tag: tagGroup, Children: children}, nil
}

// parseBody consumes nodes until the closing tag of owner, an else tag when
// owner is an if body, or the end of input when owner is empty.
func (p *parser) parseBody(owner string) ([]*ParseNode, terminator, error) {
	var (
		nodes    []*ParseNode
		text     strings.Builder
		tag      strings.Builder
		state    = stateDefault
		resume   = stateOpenTag
		prev     rune
		tagStart int
	)
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, &ParseNode{Tag: tagText, Content: text.String()})
			text.Reset()
		}
	}

	for p.i < len(p.src) {
		c := p.src[p.i]
		p.i++
		switch state {
		case stateDefault:
			if c == '{' && prev == '{' {
				s := text.String()
				text.Reset()
				text.WriteString(s[:len(s)-1])
				flush()
				tag.Reset()
				tagStart = p.i - 2
				state = stateOpenTag
				prev = 0
				continue
			}
			prev = c
			if !p.newLines && (c == '\n' || c == '\r') {
				continue
			}
			text.WriteRune(c)

		case stateOpenTag:
			switch {
			case c == '/' && tag.Len() == 0:
				state = stateEndTag
			case c == '\'':
				tag.WriteRune(c)
				state = stateString
			case c == '}':
				resume = stateOpenTag
				state = stateCloseTag
			case c == '\n' || c == '\r':
				tag.WriteRune(' ')
			default:
				tag.WriteRune(c)
			}

		case stateString:
			tag.WriteRune(c)
			if c == '\'' {
				state = stateOpenTag
			}

		case stateEndTag:
			if c == '}' {
				resume = stateEndTag
				state = stateCloseTag
				continue
			}
			tag.WriteRune(c)

		case stateCloseTag:
			if c != '}' {
				tag.WriteRune('}')
				state = resume
				p.i--
				continue
			}
			state = stateDefault
			if resume == stateEndTag {
				name := strings.TrimSpace(tag.String())
				if err := p.checkClose(owner, name, tagStart); err != nil {
					return nil, terminator{}, err
				}
				flush()
				return nodes, terminator{kind: termClose, name: name, pos: tagStart}, nil
			}
			flush()
			content := tag.String()
			if strings.HasPrefix(strings.TrimSpace(content), "{") && p.i < len(p.src) && p.src[p.i] == '}' {
				p.i++
			}
			n, term, err := p.openTag(content, owner, tagStart)
			if err != nil {
				return nil, terminator{}, err
			}
			if term != nil {
				return nodes, *term, nil
			}
			nodes = append(nodes, n)
		}
	}

	if state != stateDefault {
		return nil, terminator{}, p.errorf(tagStart, "unterminated tag")
	}
	if owner != "" {
		return nil, terminator{}, p.errorf(len(p.src), "unclosed {{#%s}}", blockName(owner))
	}
	flush()
	return nodes, terminator{kind: termEOF, pos: p.i}, nil
}

// openTag turns a completed tag body into a node. A non-nil terminator means
// the tag ended the current body.
func (p *parser) openTag(raw, owner string, pos int) (*ParseNode, *terminator, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil, nil, p.errorf(pos, "empty tag")
	}
	if strings.HasPrefix(content, "{") {
		return &ParseNode{Tag: tagEval, Content: content}, nil, nil
	}
	prefixed := strings.HasPrefix(content, "#")
	body := content
	if prefixed {
		body = strings.TrimSpace(content[1:])
	}
	name, args := splitNameArgs(body)
	known := controlTag(name) || p.reg.Has(name)
	if !known {
		if prefixed {
			return nil, nil, p.unknownTag(name, pos)
		}
		return &ParseNode{Tag: tagEval, Content: content}, nil, nil
	}

	switch name {
	case tagElse:
		if owner != tagIf {
			return nil, nil, p.errorf(pos, "{{#else}} outside of {{#if}}")
		}
		return nil, &terminator{kind: termElse, pos: pos}, nil
	case tagIf, tagEach, tagCache:
		children, term, err := p.parseBody(name)
		if err != nil {
			return nil, nil, err
		}
		n := &ParseNode{Tag: name, Content: args, Children: []*ParseNode{{Tag: tagGroup, Children: children}}}
		if term.kind == termElse {
			elseChildren, _, err := p.parseBody(tagElse)
			if err != nil {
				return nil, nil, err
			}
			n.Children = append(n.Children, &ParseNode{Tag: tagElse, Children: elseChildren})
		}
		return n, nil, nil
	}
	return &ParseNode{Tag: name, Content: args}, nil, nil
}

// checkClose validates a {{/name}} against the body being parsed. The else
// body of an if is closed by the if's own name.
func (p *parser) checkClose(owner, name string, pos int) error {
	switch {
	case owner == "":
		return p.errorf(pos, "unexpected {{/%s}}", name)
	case name == owner:
		return nil
	case owner == tagElse && name == tagIf:
		return nil
	}
	return p.errorf(pos, "mismatched {{/%s}}, expected {{/%s}}", name, blockName(owner))
}

func blockName(owner string) string {
	if owner == tagElse {
		return tagIf
	}
	return owner
}

func (p *parser) unknownTag(name string, pos int) error {
	if name == "" {
		return p.errorf(pos, "missing tag name")
	}
	if s := suggest(name, p.reg.Names()); s != "" {
		return p.errorf(pos, "unknown tag %q (did you mean %q?)", name, s)
	}
	return p.errorf(pos, "unknown tag %q", name)
}

// suggest finds the closest known tag name for an unknown one.
func suggest(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best := ""
	for _, c := range candidates {
		if fuzzy.MatchFold(c, name) && len(c) > len(best) {
			best = c
		}
	}
	return best
}

// errorf builds a ParseError located at rune offset pos.
func (p *parser) errorf(pos int, format string, args ...any) error {
	line, col := 1, 1
	for i := 0; i < pos && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func splitNameArgs(stmt string) (name, args string) {
	s := strings.TrimSpace(stmt)
	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
