package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/neurodesk/curly/pkg/curly"
)

type cached struct {
	doc *curly.Document
	mod time.Time
}

// Cache compiles templates on first use and keeps the documents until the
// provider reports a different modification time.
type Cache struct {
	engine   *curly.Engine
	provider Provider
	logger   *slog.Logger

	// OnChange, when set, is called with the template name after Watch
	// invalidated it.
	OnChange func(name string)

	mu      sync.Mutex
	entries map[string]cached
}

// NewCache returns an empty cache compiling with e.
func NewCache(e *curly.Engine, p Provider, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{engine: e, provider: p, logger: logger, entries: map[string]cached{}}
}

// Get returns the compiled document for name, recompiling it when its
// source changed.
func (c *Cache) Get(name string) (*curly.Document, error) {
	c.mu.Lock()
	e, ok := c.entries[name]
	c.mu.Unlock()
	if st, stat := c.provider.(Stater); ok && stat {
		mod, err := st.ModTime(name)
		if err != nil {
			return nil, err
		}
		if e.mod.Equal(mod) {
			return e.doc, nil
		}
	}

	src, mod, err := c.provider.Source(name)
	if err != nil {
		return nil, err
	}
	if ok && e.mod.Equal(mod) {
		return e.doc, nil
	}
	doc, err := c.engine.Compile(name, src)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[name] = cached{doc: doc, mod: mod}
	c.mu.Unlock()
	c.logger.Debug("template cached", "template", name, "modified", mod)
	return doc, nil
}

// Render resolves names through the cache and renders them as one layout
// chain: the first template is executed and the rest fill its {{#body}}.
func (c *Cache) Render(data curly.Value, names ...string) (string, error) {
	docs := make([]*curly.Document, 0, len(names))
	for _, name := range names {
		doc, err := c.Get(name)
		if err != nil {
			return "", err
		}
		docs = append(docs, doc)
	}
	return c.engine.Render(data, docs...)
}

// Invalidate drops one template.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}

// Purge drops every template.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = map[string]cached{}
	c.mu.Unlock()
}

// Len is the number of compiled templates held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Watch invalidates templates when files under the given providers'
// directories change. It blocks until ctx is done.
func (c *Cache) Watch(ctx context.Context, dirs ...*FSProvider) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, p := range dirs {
		if p.Dir == "" {
			continue
		}
		if err := watchDirRecursive(watcher, p.Dir); err != nil {
			return fmt.Errorf("watching %s: %w", p.Dir, err)
		}
		c.logger.Info("watching templates", "dir", p.Dir)
	}

	// Debounce duration - wait for rapid changes to settle
	const debounce = 100 * time.Millisecond
	last := map[string]time.Time{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					_ = watchDirRecursive(watcher, event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			for _, p := range dirs {
				name, ok := p.NameOf(event.Name)
				if !ok {
					continue
				}
				if t, seen := last[name]; seen && time.Since(t) < debounce {
					break
				}
				last[name] = time.Now()
				c.Invalidate(name)
				c.logger.Info("template changed", "template", name, "op", event.Op.String())
				if c.OnChange != nil {
					c.OnChange(name)
				}
				break
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func watchDirRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
