package curly

import (
	"bytes"
	"fmt"
	"strings"
)

type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(n Node) error

func (f VisitorFunc) Visit(n Node) error { return f(n) }

// Walk visits n and then its children depth first.
func Walk(v Visitor, n Node) error {
	if n == nil {
		return nil
	}
	if err := v.Visit(n); err != nil {
		return err
	}
	for _, c := range children(n) {
		if err := Walk(v, c); err != nil {
			return err
		}
	}
	return nil
}

func children(n Node) []Node {
	switch t := n.(type) {
	case *GroupNode:
		return t.Children
	case *IfNode:
		if t.Else != nil {
			return []Node{t.Then, t.Else}
		}
		return []Node{t.Then}
	case *EachNode:
		return []Node{t.Body}
	case *CacheNode:
		return []Node{t.Body}
	}
	return nil
}

// Pretty returns a line-oriented representation of a compiled document.
func Pretty(doc *Document) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Document(%s)\n", doc.Name)
	ppNode(&buf, 2, doc.Root)
	return buf.String()
}

func ppNode(buf *bytes.Buffer, indent int, n Node) {
	ind := strings.Repeat(" ", indent)
	switch t := n.(type) {
	case nil:
		return
	case *TextNode:
		fmt.Fprintf(buf, "%sText(%q)\n", ind, t.Text)
	case *EvalNode:
		if t.Escape {
			fmt.Fprintf(buf, "%sEval(%s)\n", ind, t.Key)
		} else {
			fmt.Fprintf(buf, "%sRaw(%s)\n", ind, t.Key)
		}
	case *IfNode:
		fmt.Fprintf(buf, "%sIf(%s)\n", ind, t.Cond)
		ppNode(buf, indent+2, t.Then)
		if t.Else != nil {
			fmt.Fprintf(buf, "%sElse\n", ind)
			ppNode(buf, indent+2, t.Else)
		}
	case *EachNode:
		fmt.Fprintf(buf, "%sEach(%s)\n", ind, t.Source)
		ppNode(buf, indent+2, t.Body)
	case *CacheNode:
		fmt.Fprintf(buf, "%sCache(%s)\n", ind, t.Key)
		ppNode(buf, indent+2, t.Body)
	case *GroupNode:
		fmt.Fprintf(buf, "%sGroup\n", ind)
		for _, c := range t.Children {
			ppNode(buf, indent+2, c)
		}
	case *SetNode:
		fmt.Fprintf(buf, "%sSet(%s)\n", ind, t.Key)
	case BodyNode:
		fmt.Fprintf(buf, "%sBody\n", ind)
	case BreakNode:
		fmt.Fprintf(buf, "%sBreak\n", ind)
	default:
		fmt.Fprintf(buf, "%s%T\n", ind, n)
	}
}

// PrettyKey renders a key tree one operand per line.
func PrettyKey(k Key) string {
	var buf bytes.Buffer
	ppKey(&buf, 0, k)
	return buf.String()
}

func ppKey(buf *bytes.Buffer, indent int, k Key) {
	ind := strings.Repeat(" ", indent)
	switch t := k.(type) {
	case *Literal:
		fmt.Fprintf(buf, "%sLiteral(%s %s)\n", ind, t.Kind, t)
	case *Path:
		fmt.Fprintf(buf, "%sPath(%s)\n", ind, strings.Join(t.Steps, " > "))
	case *Global:
		fmt.Fprintf(buf, "%sGlobal(%s)\n", ind, t)
	case Self:
		fmt.Fprintf(buf, "%sSelf\n", ind)
	case *Negation:
		fmt.Fprintf(buf, "%sNot\n", ind)
		ppKey(buf, indent+2, t.Inner)
	case *Composite:
		fmt.Fprintf(buf, "%s%s -> %s\n", ind, t.Op, t.Type())
		ppKey(buf, indent+2, t.Left)
		ppKey(buf, indent+2, t.Right)
	}
}
