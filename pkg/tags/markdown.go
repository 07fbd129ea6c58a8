package tags

import (
	"bytes"
	"fmt"

	"github.com/neurodesk/curly/pkg/curly"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// MarkdownNode renders a value as GitHub flavoured markdown. The HTML is
// written unescaped; raw HTML inside the markdown is dropped by goldmark.
type MarkdownNode struct {
	Key curly.Key
}

func (n *MarkdownNode) Execute(ctx *curly.Context) (curly.Signal, error) {
	v, ok, err := evaluate(ctx, n.Key)
	if err != nil || !ok {
		return curly.Continue, err
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(v.String()), &buf); err != nil {
		return curly.Continue, fmt.Errorf("markdown %s: %w", n.Key, err)
	}
	ctx.Write(buf.String())
	return curly.Continue, nil
}

func markdownFactory(doc *curly.Document, content string) (curly.Node, error) {
	key, _, err := parseArgs(doc, "markdown", content, 0)
	if err != nil {
		return nil, err
	}
	return &MarkdownNode{Key: key}, nil
}
