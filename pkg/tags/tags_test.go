package tags

import (
	"testing"
	"time"

	"github.com/neurodesk/curly/pkg/curly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, locale string) *curly.Engine {
	t.Helper()
	reg := curly.NewRegistry()
	require.NoError(t, Register(reg, Options{
		Locale:   locale,
		Location: time.UTC,
		Now:      func() time.Time { return refNow },
	}))
	return curly.New(reg)
}

func TestSplitArgs(t *testing.T) {
	cases := map[string][]string{
		"created":             {"created"},
		"created | long":      {"created", "long"},
		"a || b | short | de": {"a || b", "short", "de"},
		"'x|y' | long":        {"'x|y'", "long"},
		"size |  | Hz":        {"size", "", "Hz"},
		"x|2006-01-02":        {"x", "2006-01-02"},
	}
	for in, want := range cases {
		assert.Equal(t, want, splitArgs(in), in)
	}
}

func TestPresentationTags(t *testing.T) {
	data := curly.DictValue{
		"created": curly.StringValue("2024-03-05"),
		"stamp":   curly.TimeValue{Time: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)},
		"epoch":   curly.NumberValue(0),
		"name":    curly.StringValue("ada lovelace"),
		"html":    curly.StringValue("<b>"),
		"size":    curly.NumberValue(1500000),
		"mem":     curly.NumberValue(1048576),
		"freq":    curly.NumberValue(2200000),
		"big":     curly.NumberValue(1234567),
		"place":   curly.NumberValue(2),
		"text":    curly.StringValue("# Hi\n\n*x*"),
	}

	tests := []struct {
		name   string
		locale string
		src    string
		want   string
	}{
		{"date default", "en-US", "{{#date created}}", "Mar 5, 2024"},
		{"date long", "en-US", "{{#date created | long}}", "March 5, 2024"},
		{"date short", "en-US", "{{#date created | short}}", "3/5/24"},
		{"date german", "en-US", "{{#date created | long | de}}", "5. März 2024"},
		{"date default locale", "de-DE", "{{#date created | long}}", "5. März 2024"},
		{"date layout", "en-US", "{{#date created | 2006-01-02}}", "2024-03-05"},
		{"date relative", "en-US", "{{#date created | relative}}", "3 days ago"},
		{"date unix", "en-US", "{{#date epoch}}", "Jan 1, 1970"},
		{"date missing", "en-US", "[{{#date nothing}}]", "[]"},
		{"time short", "en-US", "{{#time stamp}}", "2:30 PM"},
		{"time german", "en-US", "{{#time stamp | short | de}}", "14:30"},
		{"title", "en-US", "{{#title name}}", "Ada Lovelace"},
		{"upper escapes", "en-US", "{{#upper html}}", "&lt;B&gt;"},
		{"lower literal", "en-US", "{{#lower 'ABC'}}", "abc"},
		{"bytes", "en-US", "{{#units size | bytes}}", "1.5 MB"},
		{"ibytes", "en-US", "{{#units mem | ibytes}}", "1.0 MiB"},
		{"comma", "en-US", "{{#units big}}", "1,234,567"},
		{"ordinal", "en-US", "{{#units place | ordinal}}", "2nd"},
		{"si", "en-US", "{{#units freq | si | Hz}}", "2.2 MHz"},
		{"number english", "en-US", "{{#number big}}", "1,234,567"},
		{"number german", "en-US", "{{#number big | de}}", "1.234.567"},
		{"markdown", "en-US", "{{#markdown text}}", "<h1 id=\"hi\">Hi</h1>\n<p><em>x</em></p>\n"},
		{"func title", "en-US", "{{name::title}}", "Ada Lovelace"},
		{"func bytes", "en-US", "{{size::bytes}}", "1.5 MB"},
		{"func ordinal", "en-US", "{{place::ordinal}}", "2nd"},
		{"func comma", "en-US", "{{big::comma}}", "1,234,567"},
		{"func null", "en-US", "[{{nothing::title}}]", "[]"},
		{"inside each", "en-US", "{{#each list}}{{#units this | ordinal}} {{/each}}", "1st 2nd "},
	}
	data["list"] = curly.ListValue{curly.NumberValue(1), curly.NumberValue(2)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newEngine(t, tt.locale).RenderString(tt.name, tt.src, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPresentationTagErrors(t *testing.T) {
	e := newEngine(t, "en")
	for _, src := range []string{
		"{{#units x | furlongs}}",
		"{{#date}}",
		"{{#number x | de | fr}}",
		"{{#title x | !!}}",
		"{{#markdown x | y}}",
		"{{#date x | long | de | extra}}",
	} {
		_, err := e.Compile("bad", src)
		assert.Error(t, err, src)
	}

	for _, src := range []string{
		"{{#upper name::nope}}",
		"{{#date when::nope | long}}",
		"{{#units size::nope | bytes}}",
	} {
		_, err := e.Compile("bad", src)
		assert.ErrorContains(t, err, `unknown function "nope"`, src)
	}
	_, err := e.Compile("ok", "{{#upper name::title}}")
	assert.NoError(t, err)

	data := curly.DictValue{
		"when": curly.StringValue("not a date at all"),
		"neg":  curly.NumberValue(-1),
		"word": curly.StringValue("many"),
	}
	for _, src := range []string{
		"{{#date when}}",
		"{{#units neg | bytes}}",
		"{{#number word}}",
		"{{neg::bytes}}",
	} {
		_, err = e.RenderString("bad", src, data)
		assert.Error(t, err, src)
	}
}

func TestRegisterRejectsBadLocale(t *testing.T) {
	assert.Error(t, Register(curly.NewRegistry(), Options{Locale: "!!"}))
}

func TestMondayLocaleFallback(t *testing.T) {
	assert.Equal(t, mondayLocale("de"), mondayLocale("de-CH"))
	assert.Equal(t, mondayLocale("fr"), mondayLocale("fr-BE"))
	assert.Equal(t, mondayLocale("en-US"), mondayLocale("xx"))
}
