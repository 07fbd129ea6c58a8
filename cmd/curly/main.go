package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/neurodesk/curly/pkg/config"
	"github.com/neurodesk/curly/pkg/curly"
	"github.com/neurodesk/curly/pkg/datafile"
	"github.com/neurodesk/curly/pkg/source"
	"github.com/neurodesk/curly/pkg/tags"
	"github.com/spf13/cobra"
)

var rootConfig string
var verbose bool

var rootCmd = cobra.Command{
	Use:           "curly",
	Short:         "Render {{ }} templates with layouts, data files and template stores",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// environment is everything a command needs, built from the configuration.
type environment struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   *curly.Engine
	dirs     []*source.FSProvider
	store    *source.SQLStore
	provider source.Provider
	cache    *source.Cache
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootConfig)
	if err != nil {
		if os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("config") {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func newEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildEnvironment(ctx, cfg, newLogger(cfg))
}

func buildEnvironment(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*environment, error) {
	reg := curly.NewRegistry()
	if err := tags.Register(reg, tags.Options{Locale: cfg.Locale}); err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, logger: logger}
	env.engine = curly.New(reg,
		curly.WithParseNewLines(cfg.NewLines()),
		curly.WithLogger(logger),
		curly.WithOutputCache(curly.NewMemoryCache(cfg.CacheTTL)),
	)

	var chain source.Chain
	for _, dir := range cfg.TemplateDirs {
		p := source.NewDirProvider(dir, cfg.Extension)
		env.dirs = append(env.dirs, p)
		chain = append(chain, p)
	}
	if cfg.Store != nil {
		store, err := source.OpenStore(source.Dialect(cfg.Store.Driver), cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.SetupSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		env.store = store
		chain = append(chain, store)
	}
	if cfg.Remote != nil {
		dir := cfg.Remote.CacheDir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, "curly", "remote")
		}
		remote := source.NewHTTPProvider(cfg.Remote.URL, dir)
		remote.Ext = cfg.Extension
		remote.Logger = logger
		chain = append(chain, remote)
	}
	if cfg.Builtins {
		chain = append(chain, source.Builtin())
	}
	env.provider = chain
	env.cache = source.NewCache(env.engine, chain, logger)
	return env, nil
}

func (e *environment) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// loadData merges the data files in order, applies key=value overrides and
// checks the result against the configured schema.
func (e *environment) loadData(files, sets []string) (curly.Value, error) {
	var data curly.Value = curly.Null
	for _, f := range files {
		v, err := datafile.Load(f)
		if err != nil {
			return nil, err
		}
		if data, err = datafile.Merge(data, v); err != nil {
			return nil, fmt.Errorf("merging %s: %w", f, err)
		}
	}
	for _, kv := range sets {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: want key=value", kv)
		}
		var err error
		if data, err = datafile.SetPath(data, key, val); err != nil {
			return nil, fmt.Errorf("--set %q: %w", kv, err)
		}
	}
	if e.cfg.DataSchema != "" {
		if err := datafile.ValidateSchema(e.cfg.DataSchema, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// chainFor returns the documents to render: the template in its configured
// layouts, or the names exactly as given when there are several.
func (e *environment) chainFor(names []string, noLayout bool) []string {
	if len(names) == 1 && !noLayout {
		return e.cfg.LayoutFor(names[0])
	}
	return names
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", config.DefaultFile, "Path to curly configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(&renderCmd)
	rootCmd.AddCommand(&checkCmd)
	rootCmd.AddCommand(&keyCmd)
	rootCmd.AddCommand(&replCmd)
	rootCmd.AddCommand(&watchCmd)
	rootCmd.AddCommand(&storeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
