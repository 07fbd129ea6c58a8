package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neurodesk/curly/pkg/config"
	"github.com/neurodesk/curly/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvironment(t *testing.T, templates map[string]string) *environment {
	t.Helper()
	dir := t.TempDir()
	for name, src := range templates {
		path := filepath.Join(dir, filepath.FromSlash(name)+".curly")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	cfg := config.Default()
	cfg.TemplateDirs = []string{dir}
	cfg.Store = &config.Store{Driver: "sqlite", DSN: ":memory:"}
	cfg.Layouts = []config.Layout{{Match: "pages/*", Chain: []string{"frame"}}}
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env, err := buildEnvironment(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	return env
}

func TestRenderWithLayout(t *testing.T) {
	env := testEnvironment(t, map[string]string{
		"frame":      "[{{#body}}]",
		"pages/home": "Hello {{name::title}}",
	})
	data, err := env.loadData(nil, []string{"name=ada lovelace"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.renderTo(&buf, "", env.chainFor([]string{"pages/home"}, false), data))
	assert.Equal(t, "[Hello Ada Lovelace]", buf.String())

	buf.Reset()
	require.NoError(t, env.renderTo(&buf, "", env.chainFor([]string{"pages/home"}, true), data))
	assert.Equal(t, "Hello Ada Lovelace", buf.String())

	out := filepath.Join(t.TempDir(), "site", "index.html")
	require.NoError(t, env.renderTo(nil, out, []string{"frame", "pages/home"}, data))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[Hello Ada Lovelace]", string(written))

	assert.Error(t, env.renderTo(&buf, "", []string{"missing"}, data))
}

func TestRenderFallsBackToBuiltins(t *testing.T) {
	env := testEnvironment(t, map[string]string{"body": "<p>{{title}}</p>"})
	data, err := env.loadData(nil, []string{"title=Hi"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.renderTo(&buf, "", []string{"text", "body"}, data))
	assert.Equal(t, "Hi\n<p>Hi</p>\n", buf.String())
}

func TestLoadData(t *testing.T) {
	env := testEnvironment(t, nil)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte("title: A\nitems: [1, 2]\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`{"title": "B"}`), 0o644))

	data, err := env.loadData([]string{a, b}, []string{"site.name=x"})
	require.NoError(t, err)
	out, err := env.engine.RenderString("t", "{{title}} {{items.count}} {{site.name}}", data)
	require.NoError(t, err)
	assert.Equal(t, "B 2 x", out)

	_, err = env.loadData(nil, []string{"novalue"})
	assert.Error(t, err)

	schema := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schema, []byte("type: object\nrequired: [title]\n"), 0o644))
	env.cfg.DataSchema = schema
	_, err = env.loadData(nil, []string{"other=1"})
	assert.Error(t, err)
	_, err = env.loadData(nil, []string{"title=ok"})
	assert.NoError(t, err)
}

func TestCheck(t *testing.T) {
	env := testEnvironment(t, map[string]string{
		"good":    "{{#if a}}x{{/if}}",
		"bad":     "{{#if a}}x",
		"partial": "{{#each items}}{{this}}{{/each}}",
	})

	var buf bytes.Buffer
	err := env.check(&buf, nil, false)
	assert.ErrorContains(t, err, "1 of")
	assert.Contains(t, buf.String(), "FAIL bad")
	assert.Contains(t, buf.String(), "ok   good")
	assert.Contains(t, buf.String(), "ok   html5", "builtins are listed too")

	buf.Reset()
	require.NoError(t, env.check(&buf, []string{"partial"}, true))
	assert.Contains(t, buf.String(), "Each(items)")

	buf.Reset()
	assert.Error(t, env.check(&buf, []string{"god"}, false))
	assert.Contains(t, buf.String(), `did you mean "good"`)
}

func TestPrintKey(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printKey(&buf, "a == 1 && !b", "bool"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "&& -> bool", lines[0])

	assert.Error(t, printKey(&buf, "'x'", "numeric-ish"))
	assert.Error(t, printKey(&buf, "a &&", "bool"))

	env := testEnvironment(t, nil)
	data, err := env.loadData(nil, []string{"n=2"})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, env.evalKey(&buf, "n + 3", data))
	assert.Equal(t, "= 5\n", buf.String())
}

func TestReplSession(t *testing.T) {
	env := testEnvironment(t, map[string]string{"frame": "<{{#body}}>", "pages/x": "{{v}}"})
	var buf bytes.Buffer
	s := &replSession{env: env, out: &buf}

	steps := []struct {
		in   string
		want string
	}{
		{":set v=7", ""},
		{"v is {{v}}", "v is 7\n"},
		{":render pages/x", "<7>\n"},
		{"{{#if v > 5}}big{{/if}}", "big\n"},
		{"{{#if}}", "error: "},
		{":nope", "error: unknown command :nope"},
		{":tree {{#each a}}{{this}}{{/each}}", "Document(repl)\n"},
	}
	for _, step := range steps {
		buf.Reset()
		assert.False(t, s.handle(step.in), step.in)
		if step.want == "" {
			assert.Empty(t, buf.String(), step.in)
		} else {
			assert.True(t, strings.HasPrefix(buf.String(), step.want), "%s: got %q", step.in, buf.String())
		}
	}
	buf.Reset()
	assert.False(t, s.handle(":tags"))
	assert.Contains(t, buf.String(), "markdown")
	assert.True(t, s.handle(":quit"))
}

func TestReplCompletion(t *testing.T) {
	s := &replSession{env: testEnvironment(t, nil)}
	assert.Equal(t, []string{"x {{#markdown"}, s.complete("x {{#mark"))
	assert.Contains(t, s.complete("{{name::ti"), "{{name::title")
	assert.Nil(t, s.complete("plain text"))
	assert.Nil(t, s.complete("{{#if a}} b"))
}

func TestStoreImport(t *testing.T) {
	env := testEnvironment(t, nil)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mail"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mail", "welcome.curly"), []byte("Hi {{name}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "footer.curly"), []byte("--"), 0o644))

	n, err := importDir(context.Background(), env.store, source.NewDirProvider(dir, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	names, err := env.store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"footer", "mail/welcome"}, names)

	data, err := env.loadData(nil, []string{"name=Bo"})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, env.renderTo(&buf, "", []string{"mail/welcome"}, data))
	assert.Equal(t, "Hi Bo", buf.String())
}
