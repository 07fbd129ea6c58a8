// Package source supplies template source text to the compiler and caches
// the compiled documents.
package source

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Provider returns template source by name together with its modification
// time. The time decides whether a cached document is still current.
type Provider interface {
	Source(name string) (src string, modified time.Time, err error)
	List() ([]string, error)
}

// Stater is implemented by providers that can report a modification time
// without reading the source.
type Stater interface {
	ModTime(name string) (time.Time, error)
}

type ErrTemplateNotFound struct{ Name string }

func (e ErrTemplateNotFound) Error() string { return "template not found: " + e.Name }

// IsNotFound reports whether err means the template does not exist.
func IsNotFound(err error) bool {
	var nf ErrTemplateNotFound
	return errors.As(err, &nf)
}

type memEntry struct {
	src string
	mod time.Time
}

// MemoryProvider keeps templates in memory.
type MemoryProvider struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryProvider returns a provider seeded with templates.
func NewMemoryProvider(templates map[string]string) *MemoryProvider {
	m := &MemoryProvider{entries: map[string]memEntry{}, now: time.Now}
	for name, src := range templates {
		m.Put(name, src)
	}
	return m
}

// Put stores src under name. The modification time always moves forward so
// caches notice back to back updates.
func (m *MemoryProvider) Put(name, src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod := m.now()
	if prev, ok := m.entries[name]; ok && !mod.After(prev.mod) {
		mod = prev.mod.Add(time.Nanosecond)
	}
	m.entries[name] = memEntry{src: src, mod: mod}
}

func (m *MemoryProvider) Delete(name string) {
	m.mu.Lock()
	delete(m.entries, name)
	m.mu.Unlock()
}

func (m *MemoryProvider) Source(name string) (string, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return "", time.Time{}, ErrTemplateNotFound{name}
	}
	return e.src, e.mod, nil
}

func (m *MemoryProvider) ModTime(name string) (time.Time, error) {
	_, mod, err := m.Source(name)
	return mod, err
}

func (m *MemoryProvider) List() ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// Chain looks a template up in each provider in turn; earlier providers
// override later ones.
type Chain []Provider

func (c Chain) Source(name string) (string, time.Time, error) {
	for _, p := range c {
		src, mod, err := p.Source(name)
		if err == nil {
			return src, mod, nil
		}
		if !IsNotFound(err) {
			return "", time.Time{}, err
		}
	}
	return "", time.Time{}, ErrTemplateNotFound{name}
}

func (c Chain) ModTime(name string) (time.Time, error) {
	for _, p := range c {
		mod, err := modTime(p, name)
		if err == nil {
			return mod, nil
		}
		if !IsNotFound(err) {
			return time.Time{}, err
		}
	}
	return time.Time{}, ErrTemplateNotFound{name}
}

func (c Chain) List() ([]string, error) {
	seen := map[string]struct{}{}
	var names []string
	for _, p := range c {
		list, err := p.List()
		if err != nil {
			return nil, err
		}
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func modTime(p Provider, name string) (time.Time, error) {
	if s, ok := p.(Stater); ok {
		return s.ModTime(name)
	}
	_, mod, err := p.Source(name)
	return mod, err
}
