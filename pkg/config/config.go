// Package config reads the curly.yaml tool configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/neurodesk/curly/pkg/validator"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when --config is not given.
const DefaultFile = "curly.yaml"

var (
	logLevels    = []string{"debug", "info", "warn", "error"}
	storeDrivers = []string{"sqlite", "postgres", "mysql"}
)

type Config struct {
	TemplateDirs  []string      `yaml:"template_dirs"`
	Extension     string        `yaml:"extension,omitempty"`
	ParseNewLines *bool         `yaml:"parse_new_lines,omitempty"`
	Locale        string        `yaml:"locale,omitempty"`
	LogLevel      string        `yaml:"log_level,omitempty"`
	CacheTTL      time.Duration `yaml:"cache_ttl,omitempty"`
	// Builtins adds the bundled layouts behind the configured sources.
	Builtins   bool     `yaml:"builtins"`
	Store      *Store   `yaml:"store,omitempty"`
	Remote     *Remote  `yaml:"remote,omitempty"`
	DataSchema string   `yaml:"data_schema,omitempty"`
	Layouts    []Layout `yaml:"layouts,omitempty"`
}

// Store selects a SQL template store.
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func (s Store) Validate() error {
	return validator.All(
		validator.MatchesAllowed(s.Driver, storeDrivers, "store.driver"),
		validator.NotEmpty(s.DSN, "store.dsn"),
	)
}

// Remote fetches templates over HTTP and caches them on disk.
type Remote struct {
	URL      string `yaml:"url"`
	CacheDir string `yaml:"cache_dir,omitempty"`
}

func (r Remote) Validate() error {
	if err := validator.NotEmpty(r.URL, "remote.url"); err != nil {
		return err
	}
	u, err := url.Parse(r.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("remote.url must be an http(s) URL, got %q", r.URL)
	}
	return nil
}

// Layout wraps templates whose name matches Match (a path.Match pattern)
// in the Chain of layouts, outermost first.
type Layout struct {
	Match string   `yaml:"match"`
	Chain []string `yaml:"chain"`
}

func (l Layout) Validate() error {
	if err := validator.NotEmpty(l.Match, "layout match"); err != nil {
		return err
	}
	if _, err := path.Match(l.Match, ""); err != nil {
		return fmt.Errorf("layout match %q: %w", l.Match, err)
	}
	if len(l.Chain) == 0 {
		return fmt.Errorf("layout %q: chain must not be empty", l.Match)
	}
	return validator.Map(l.Chain, func(name, desc string) error {
		return validator.All(
			validator.NotEmpty(name, desc),
			validator.HasNoTags(name, desc),
		)
	}, fmt.Sprintf("layout %q chain", l.Match))
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		TemplateDirs: []string{"templates"},
		Extension:    ".curly",
		LogLevel:     "info",
		CacheTTL:     5 * time.Minute,
		Builtins:     true,
	}
}

// Load reads path over the defaults. Relative directories in the file are
// taken relative to the file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i, d := range c.TemplateDirs {
		c.TemplateDirs[i] = abs(d)
	}
	c.DataSchema = abs(c.DataSchema)
	if c.Remote != nil {
		c.Remote.CacheDir = abs(c.Remote.CacheDir)
	}
	if c.Store != nil && c.Store.Driver == "sqlite" && c.Store.DSN != ":memory:" && !strings.HasPrefix(c.Store.DSN, "file:") {
		c.Store.DSN = abs(c.Store.DSN)
	}
}

func (c *Config) Validate() error {
	if err := validator.All(
		validator.NoDuplicates(c.TemplateDirs, "template_dirs"),
		validator.Map(c.TemplateDirs, validator.NotEmpty, "template_dirs"),
		validator.FileExtension(c.Extension, "extension"),
		validator.MatchesAllowed(strings.ToLower(c.LogLevel), logLevels, "log_level"),
		validator.NotNegative(c.CacheTTL, "cache_ttl"),
		validator.Each(c.Layouts),
	); err != nil {
		return err
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			return fmt.Errorf("locale %q: %w", c.Locale, err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Validate(); err != nil {
			return err
		}
	}
	if c.Remote != nil {
		if err := c.Remote.Validate(); err != nil {
			return err
		}
	}
	if len(c.TemplateDirs) == 0 && c.Store == nil && c.Remote == nil && !c.Builtins {
		return fmt.Errorf("no template source configured")
	}
	return nil
}

// NewLines reports whether newlines in template text are kept.
func (c *Config) NewLines() bool {
	return c.ParseNewLines == nil || *c.ParseNewLines
}

// Level maps log_level onto a slog level.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LayoutFor returns the layout chain for a template followed by the
// template itself. The first matching layout rule wins.
func (c *Config) LayoutFor(name string) []string {
	for _, l := range c.Layouts {
		if ok, _ := path.Match(l.Match, name); ok {
			return append(append([]string(nil), l.Chain...), name)
		}
	}
	return []string{name}
}
