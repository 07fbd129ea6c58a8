package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
template_dirs: [site, /abs/shared]
extension: .tpl
parse_new_lines: false
locale: de-DE
log_level: debug
cache_ttl: 90s
store:
  driver: sqlite
  dsn: templates.db
remote:
  url: https://example.com/templates
data_schema: schema.yaml
layouts:
  - match: "pages/*"
    chain: [html5, site/frame]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	dir := filepath.Dir(path)

	assert.Equal(t, []string{filepath.Join(dir, "site"), "/abs/shared"}, cfg.TemplateDirs)
	assert.Equal(t, ".tpl", cfg.Extension)
	assert.False(t, cfg.NewLines())
	assert.Equal(t, "de-DE", cfg.Locale)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, filepath.Join(dir, "templates.db"), cfg.Store.DSN)
	assert.Equal(t, filepath.Join(dir, "schema.yaml"), cfg.DataSchema)
	assert.True(t, cfg.Builtins, "defaults survive fields the file leaves out")

	assert.Equal(t, []string{"html5", "site/frame", "pages/home"}, cfg.LayoutFor("pages/home"))
	assert.Equal(t, []string{"about"}, cfg.LayoutFor("about"))
}

func TestLoadEmptyFileGivesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, ".curly", cfg.Extension)
	assert.True(t, cfg.NewLines())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "template_dir: x\n",
		"bad extension":  "extension: curly\n",
		"bad level":      "log_level: loud\n",
		"negative ttl":   "cache_ttl: -1s\n",
		"duplicate dirs": "template_dirs: [a, a]\n",
		"bad driver":     "store: {driver: oracle, dsn: x}\n",
		"empty dsn":      "store: {driver: postgres, dsn: ''}\n",
		"bad remote":     "remote: {url: 'ftp://x'}\n",
		"bad locale":     "locale: '!!'\n",
		"bad pattern":    "layouts: [{match: '[', chain: [a]}]\n",
		"empty chain":    "layouts: [{match: '*', chain: []}]\n",
		"tag in chain":   "layouts: [{match: '*', chain: ['{{x}}']}]\n",
		"no sources":     "template_dirs: []\nbuiltins: false\n",
		"malformed yaml": "template_dirs: [a\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
