package tags

import (
	"fmt"
	"strings"

	"github.com/neurodesk/curly/pkg/curly"
)

// splitArgs splits tag content at single | characters that sit outside
// quotes. The logical || operator is left in place.
func splitArgs(content string) []string {
	var (
		parts []string
		start int
		quote bool
	)
	for i := 0; i < len(content); i++ {
		switch c := content[i]; {
		case c == '\'':
			quote = !quote
		case quote || c != '|':
		case i+1 < len(content) && content[i+1] == '|':
			i++
		default:
			parts = append(parts, strings.TrimSpace(content[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(content[start:]))
}

// parseArgs parses the value key of a presentation tag and returns the
// remaining options. At most max options are accepted. Functions called
// with :: must be known to the document's registry.
func parseArgs(doc *curly.Document, tag, content string, max int) (curly.Key, []string, error) {
	args := splitArgs(content)
	if args[0] == "" {
		return nil, nil, &curly.CompileError{Tag: tag, Msg: "missing value"}
	}
	if len(args)-1 > max {
		return nil, nil, &curly.CompileError{Tag: tag, Msg: fmt.Sprintf("takes at most %d options, got %d", max, len(args)-1)}
	}
	key, err := doc.ParseKey(args[0], curly.Any)
	if err != nil {
		return nil, nil, err
	}
	return key, args[1:], nil
}

// option returns opts[i] or def when it is absent or empty.
func option(opts []string, i int, def string) string {
	if i < len(opts) && opts[i] != "" {
		return opts[i]
	}
	return def
}

// evaluate resolves key and reports whether there is anything to print.
func evaluate(ctx *curly.Context, key curly.Key) (curly.Value, bool, error) {
	v, err := key.Evaluate(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("evaluating %s: %w", key, err)
	}
	return v, !curly.IsNull(v), nil
}
