package tags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/neurodesk/curly/pkg/curly"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var unitFormats = map[string]func(float64, string) string{
	"bytes":   func(f float64, _ string) string { return humanize.Bytes(uint64(f)) },
	"ibytes":  func(f float64, _ string) string { return humanize.IBytes(uint64(f)) },
	"comma":   func(f float64, _ string) string { return humanize.Commaf(f) },
	"ordinal": func(f float64, _ string) string { return humanize.Ordinal(int(f)) },
	"si":      func(f float64, unit string) string { return humanize.SI(f, unit) },
}

// UnitsNode prints a number in a human friendly unit:
// {{#units size | bytes}}, {{#units freq | si | Hz}}.
type UnitsNode struct {
	Key    curly.Key
	Format string
	Unit   string
}

func (n *UnitsNode) Execute(ctx *curly.Context) (curly.Signal, error) {
	v, ok, err := evaluate(ctx, n.Key)
	if err != nil || !ok {
		return curly.Continue, err
	}
	f, err := toFloat(v)
	if err != nil {
		return curly.Continue, fmt.Errorf("units %s: %w", n.Key, err)
	}
	if f < 0 && (n.Format == "bytes" || n.Format == "ibytes") {
		return curly.Continue, &curly.TypeError{Op: n.Format, Value: v}
	}
	ctx.WriteEscaped(unitFormats[n.Format](f, n.Unit))
	return curly.Continue, nil
}

func unitsFactory(doc *curly.Document, content string) (curly.Node, error) {
	key, args, err := parseArgs(doc, "units", content, 2)
	if err != nil {
		return nil, err
	}
	n := &UnitsNode{Key: key, Format: option(args, 0, "comma"), Unit: option(args, 1, "")}
	if _, ok := unitFormats[n.Format]; !ok {
		return nil, &curly.CompileError{Tag: "units", Msg: fmt.Sprintf("unknown format %q", n.Format)}
	}
	return n, nil
}

// NumberNode prints a decimal with the digit grouping and separators of a
// locale: {{#number total | de}}.
type NumberNode struct {
	Key  curly.Key
	Lang language.Tag
}

func (n *NumberNode) Execute(ctx *curly.Context) (curly.Signal, error) {
	v, ok, err := evaluate(ctx, n.Key)
	if err != nil || !ok {
		return curly.Continue, err
	}
	f, err := toFloat(v)
	if err != nil {
		return curly.Continue, fmt.Errorf("number %s: %w", n.Key, err)
	}
	p := message.NewPrinter(n.Lang)
	ctx.WriteEscaped(p.Sprintf("%v", number.Decimal(f)))
	return curly.Continue, nil
}

func numberFactory(opts Options) curly.TagFactory {
	return func(doc *curly.Document, content string) (curly.Node, error) {
		key, args, err := parseArgs(doc, "number", content, 1)
		if err != nil {
			return nil, err
		}
		tag, err := parseLanguage(option(args, 0, opts.Locale))
		if err != nil {
			return nil, &curly.CompileError{Tag: "number", Msg: err.Error()}
		}
		return &NumberNode{Key: key, Lang: tag}, nil
	}
}

func toFloat(v curly.Value) (float64, error) {
	if n, ok := v.(curly.NumberValue); ok {
		return float64(n), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	if err != nil {
		return 0, &curly.TypeError{Op: "number", Value: v}
	}
	return f, nil
}
