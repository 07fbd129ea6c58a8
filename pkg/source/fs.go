package source

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// DefaultExt is the file extension of template files.
const DefaultExt = ".curly"

// FSProvider reads templates from a file system. Names are slash separated
// paths without the extension.
type FSProvider struct {
	FS  fs.FS
	Ext string
	// Dir is the directory backing FS, needed by Put and for watching.
	Dir string
}

// NewDirProvider serves templates from a directory.
func NewDirProvider(dir, ext string) *FSProvider {
	if ext == "" {
		ext = DefaultExt
	}
	return &FSProvider{FS: os.DirFS(dir), Ext: ext, Dir: dir}
}

//go:embed builtin/*.curly
var builtinFiles embed.FS

// Builtin serves the layouts shipped with the tool. Directory providers
// placed before it in a Chain override them.
func Builtin() *FSProvider {
	sub, err := fs.Sub(builtinFiles, "builtin")
	if err != nil {
		panic(err)
	}
	return &FSProvider{FS: sub, Ext: DefaultExt}
}

func (p *FSProvider) file(name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("invalid template name %q", name)
	}
	return clean + p.Ext, nil
}

func (p *FSProvider) Source(name string) (string, time.Time, error) {
	file, err := p.file(name)
	if err != nil {
		return "", time.Time{}, err
	}
	st, err := fs.Stat(p.FS, file)
	if errors.Is(err, fs.ErrNotExist) {
		return "", time.Time{}, ErrTemplateNotFound{name}
	} else if err != nil {
		return "", time.Time{}, err
	}
	data, err := fs.ReadFile(p.FS, file)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("reading %s: %w", file, err)
	}
	return string(data), st.ModTime(), nil
}

func (p *FSProvider) ModTime(name string) (time.Time, error) {
	file, err := p.file(name)
	if err != nil {
		return time.Time{}, err
	}
	st, err := fs.Stat(p.FS, file)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrTemplateNotFound{name}
	} else if err != nil {
		return time.Time{}, err
	}
	return st.ModTime(), nil
}

func (p *FSProvider) List() ([]string, error) {
	var names []string
	err := fs.WalkDir(p.FS, ".", func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			if file == "." && errors.Is(err, fs.ErrNotExist) {
				// a template directory that was never created holds nothing
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && file != "." {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(file, p.Ext) {
			names = append(names, strings.TrimSuffix(file, p.Ext))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// NameOf maps a file path under Dir back to a template name.
func (p *FSProvider) NameOf(file string) (string, bool) {
	if p.Dir == "" || !strings.HasSuffix(file, p.Ext) {
		return "", false
	}
	rel, err := filepath.Rel(p.Dir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), p.Ext), true
}

// Put writes a template atomically.
func (p *FSProvider) Put(name, src string) error {
	if p.Dir == "" {
		return fmt.Errorf("provider is read-only")
	}
	file, err := p.file(name)
	if err != nil {
		return err
	}
	dst := filepath.Join(p.Dir, filepath.FromSlash(file))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(dst, strings.NewReader(src)); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
