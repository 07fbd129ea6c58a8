package datafile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neurodesk/curly/pkg/curly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, v curly.Value) []string {
	t.Helper()
	rec, ok := v.(*curly.RecordValue)
	require.True(t, ok, "want a record, got %T", v)
	var names []string
	for _, f := range rec.Fields {
		names = append(names, f.Name)
	}
	return names
}

func render(t *testing.T, src string, data curly.Value) string {
	t.Helper()
	out, err := curly.New(nil).RenderString("test", src, data)
	require.NoError(t, err)
	return out
}

func TestParseYAML(t *testing.T) {
	src := `
zeta: 1
alpha: two
flag: true
none: ~
when: 2024-05-01T12:00:00Z
base: &base
  colour: red
child:
  <<: *base
  size: 3
items:
  - name: a
  - name: b
`
	v, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "flag", "none", "when", "base", "child", "items"}, fieldNames(t, v))

	rec := v.(*curly.RecordValue)
	zeta, _ := rec.Member("zeta")
	assert.Equal(t, curly.NumberValue(1), zeta)
	flag, _ := rec.Member("flag")
	assert.Equal(t, curly.BoolValue(true), flag)
	none, _ := rec.Member("none")
	assert.True(t, curly.IsNull(none))
	when, _ := rec.Member("when")
	require.IsType(t, curly.TimeValue{}, when)
	assert.Equal(t, 2024, when.(curly.TimeValue).Time.Year())
	child, _ := rec.Member("child")
	assert.Equal(t, []string{"colour", "size"}, fieldNames(t, child))

	assert.Equal(t, "a,b,|red 3", render(t, "{{#each items}}{{name}},{{/each}}|{{child.colour}} {{child.size}}", v))

	empty, err := ParseYAML(nil)
	require.NoError(t, err)
	assert.True(t, curly.IsNull(empty))

	_, err = ParseYAML([]byte("a: [1, 2"))
	assert.Error(t, err)
}

func TestParseJSONKeepsOrder(t *testing.T) {
	v, err := ParseJSON([]byte(`{"b": 1.5, "a": [true, null, "x"], "c": {"z": 1, "y": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, fieldNames(t, v))

	rec := v.(*curly.RecordValue)
	b, _ := rec.Member("b")
	assert.Equal(t, curly.NumberValue(1.5), b)
	a, _ := rec.Member("a")
	assert.Equal(t, curly.ListValue{curly.BoolValue(true), curly.Null, curly.StringValue("x")}, a)
	c, _ := rec.Member("c")
	assert.Equal(t, []string{"z", "y"}, fieldNames(t, c))

	for _, bad := range []string{``, `{"a": }`, `{"a": 1} {"b": 2}`, `[1, 2`} {
		_, err := ParseJSON([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestParseStarlark(t *testing.T) {
	src := `
title = "Report"
rows = [{"name": "n%d" % i, "n": i} for i in range(3)]
_hidden = 1
def helper():
    return 1
`
	v, err := ParseStarlark("data.star", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"rows", "title"}, fieldNames(t, v))
	assert.Equal(t, "Report: n0 n1 n2 ", render(t, "{{title}}: {{#each rows}}{{name}} {{/each}}", v))

	_, err = ParseStarlark("bad.star", []byte("x = ("))
	assert.Error(t, err)
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.json": `{"name": "json"}`,
		"b.yaml": "name: yaml\n",
		"c.yml":  "name: yml\n",
		"d.star": `name = "star"`,
	}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	for name, want := range map[string]string{"a.json": "json", "b.yaml": "yaml", "c.yml": "yml", "d.star": "star"} {
		v, err := Load(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, render(t, "{{name}}", v), name)
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	_, err = Parse("data.toml", []byte("x = 1"))
	assert.Error(t, err)
}

func TestPlain(t *testing.T) {
	v := &curly.RecordValue{Fields: []curly.Field{
		{Name: "n", Value: curly.NumberValue(3)},
		{Name: "f", Value: curly.NumberValue(0.5)},
		{Name: "s", Value: curly.StringValue("x")},
		{Name: "l", Value: curly.ListValue{curly.BoolValue(false), curly.Null}},
		{Name: "t", Value: curly.TimeValue{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}},
	}}
	got := Plain(v).(map[string]any)
	assert.EqualValues(t, "3", got["n"])
	assert.EqualValues(t, "0.5", got["f"])
	assert.Equal(t, "x", got["s"])
	assert.Equal(t, []any{false, nil}, got["l"])
	assert.Equal(t, "2024-01-02T03:04:05Z", got["t"])
}

func TestMergeAndSetPath(t *testing.T) {
	base, err := ParseYAML([]byte("a: 1\nb: 2\n"))
	require.NoError(t, err)
	extra := curly.DictValue{"b": curly.StringValue("x"), "c": curly.BoolValue(true)}

	merged, err := Merge(base, extra)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, fieldNames(t, merged))
	assert.Equal(t, "1 x true", render(t, "{{a}} {{b}} {{c}}", merged))
	assert.Equal(t, []string{"a", "b"}, fieldNames(t, base), "base must not change")

	_, err = Merge(base, curly.ListValue{})
	assert.Error(t, err)

	v, err := SetPath(nil, "site.title", "Home")
	require.NoError(t, err)
	v, err = SetPath(v, "site.count", "3")
	require.NoError(t, err)
	v, err = SetPath(v, "debug", "true")
	require.NoError(t, err)
	assert.Equal(t, "Home 4 yes", render(t, "{{site.title}} {{site.count + 1}} {{#if debug}}yes{{/if}}", v))

	_, err = SetPath(v, "a..b", "x")
	assert.Error(t, err)
}

func TestSchemaValidation(t *testing.T) {
	schema := `
type: object
required: [title, items]
properties:
  title: {type: string}
  items:
    type: array
    items: {type: integer, minimum: 0}
`
	s, err := CompileSchema("page.schema.yaml", []byte(schema))
	require.NoError(t, err)

	good, err := ParseYAML([]byte("title: t\nitems: [1, 2]\n"))
	require.NoError(t, err)
	assert.NoError(t, s.Validate(good))

	for _, bad := range []string{"items: [1]\n", "title: t\nitems: [1.5]\n", "title: 3\nitems: []\n"} {
		v, err := ParseYAML([]byte(bad))
		require.NoError(t, err)
		assert.Error(t, s.Validate(v), bad)
	}

	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "object", "required": ["x"]}`), 0o644))
	assert.NoError(t, ValidateSchema(path, curly.DictValue{"x": curly.Null}))
	assert.Error(t, ValidateSchema(path, curly.DictValue{}))

	_, err = CompileSchema("ref.json", []byte(`{"$ref": "http://example.com/other.json"}`))
	assert.Error(t, err)
}
