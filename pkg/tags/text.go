package tags

import (
	"github.com/neurodesk/curly/pkg/curly"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CaseNode prints a value with its letter case converted for a language:
// {{#title name}}, {{#upper name | tr}}.
type CaseNode struct {
	Key  curly.Key
	Mode string // upper, lower or title
	Lang language.Tag
}

func (n *CaseNode) Execute(ctx *curly.Context) (curly.Signal, error) {
	v, ok, err := evaluate(ctx, n.Key)
	if err != nil || !ok {
		return curly.Continue, err
	}
	// Casers are stateful, documents are shared between renders
	ctx.WriteEscaped(caser(n.Mode, n.Lang).String(v.String()))
	return curly.Continue, nil
}

func caser(mode string, tag language.Tag) cases.Caser {
	switch mode {
	case "upper":
		return cases.Upper(tag)
	case "lower":
		return cases.Lower(tag)
	}
	return cases.Title(tag)
}

func caseFactory(mode string, opts Options) curly.TagFactory {
	return func(doc *curly.Document, content string) (curly.Node, error) {
		key, args, err := parseArgs(doc, mode, content, 1)
		if err != nil {
			return nil, err
		}
		tag, err := parseLanguage(option(args, 0, opts.Locale))
		if err != nil {
			return nil, &curly.CompileError{Tag: mode, Msg: err.Error()}
		}
		return &CaseNode{Key: key, Mode: mode, Lang: tag}, nil
	}
}

func parseLanguage(locale string) (language.Tag, error) {
	if locale == "" {
		return language.English, nil
	}
	return language.Parse(locale)
}
