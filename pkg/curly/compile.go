package curly

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

type compiler struct {
	doc *Document
	reg *Registry
}

// Compile lowers a parse tree into a Document. Tags other than the control
// tags are built by the registry's factories.
func Compile(name string, pn *ParseNode, reg *Registry) (*Document, error) {
	doc := &Document{Name: name, reg: reg}
	c := &compiler{doc: doc, reg: reg}
	root, err := c.compile(pn)
	if err != nil {
		return nil, err
	}
	doc.Root = root
	if doc.Fingerprint, err = fingerprint(pn); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *compiler) compile(pn *ParseNode) (Node, error) {
	switch pn.Tag {
	case tagGroup, tagElse:
		if len(pn.Children) == 1 {
			return c.compile(pn.Children[0])
		}
		g := &GroupNode{Children: make([]Node, 0, len(pn.Children))}
		for _, child := range pn.Children {
			n, err := c.compile(child)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, n)
		}
		return c.doc.add(g), nil

	case tagIf:
		cond, err := c.key(pn, Any)
		if err != nil {
			return nil, err
		}
		if len(pn.Children) == 0 {
			return nil, &CompileError{Tag: tagIf, Msg: "missing true branch"}
		}
		n := &IfNode{Cond: cond}
		if n.Then, err = c.compile(pn.Children[0]); err != nil {
			return nil, err
		}
		if len(pn.Children) > 1 {
			if n.Else, err = c.compile(pn.Children[1]); err != nil {
				return nil, err
			}
		}
		return c.doc.add(n), nil

	case tagEach:
		src, err := c.key(pn, Collection)
		if err != nil {
			return nil, err
		}
		if len(pn.Children) != 1 {
			return nil, &CompileError{Tag: tagEach, Msg: fmt.Sprintf("expected one body, got %d", len(pn.Children))}
		}
		body, err := c.compile(pn.Children[0])
		if err != nil {
			return nil, err
		}
		return c.doc.add(&EachNode{Source: src, Body: body}), nil

	case tagCache:
		key, err := c.key(pn, Any)
		if err != nil {
			return nil, err
		}
		if len(pn.Children) != 1 {
			return nil, &CompileError{Tag: tagCache, Msg: fmt.Sprintf("expected one body, got %d", len(pn.Children))}
		}
		body, err := c.compile(pn.Children[0])
		if err != nil {
			return nil, err
		}
		return c.doc.add(&CacheNode{Key: key, Body: body}), nil

	case tagText:
		return c.doc.add(&TextNode{Text: pn.Content}), nil

	case tagEval:
		content := strings.TrimPrefix(pn.Content, "{")
		key, err := c.parseKey(content, Any)
		if err != nil {
			return nil, err
		}
		return c.doc.add(&EvalNode{Key: key, Escape: content == pn.Content}), nil
	}

	factory, ok := c.reg.Lookup(pn.Tag)
	if !ok {
		return nil, fmt.Errorf("internal error: no factory for tag %q", pn.Tag)
	}
	n, err := factory(c.doc, pn.Content)
	if err != nil {
		return nil, &CompileError{Tag: pn.Tag, Msg: err.Error()}
	}
	return c.doc.add(n), nil
}

func (c *compiler) key(pn *ParseNode, expected KeyType) (Key, error) {
	k, err := c.parseKey(pn.Content, expected)
	if err != nil {
		return nil, &CompileError{Tag: pn.Tag, Msg: err.Error()}
	}
	return k, nil
}

func (c *compiler) parseKey(text string, expected KeyType) (Key, error) {
	return c.reg.ParseKey(text, expected)
}

var fingerprintMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// fingerprint hashes the canonical CBOR encoding of the parse tree.
func fingerprint(pn *ParseNode) ([32]byte, error) {
	data, err := fingerprintMode.Marshal(pn)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encoding parse tree: %w", err)
	}
	return sha256.Sum256(data), nil
}
