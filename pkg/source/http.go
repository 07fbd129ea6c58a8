package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
)

// HTTPProvider fetches templates from BaseURL + name + Ext and keeps a copy
// on disk. Cached copies are revalidated with ETag and Last-Modified, and are
// served as they are when the server cannot be reached.
type HTTPProvider struct {
	BaseURL string
	Ext     string
	Dir     string
	Client  *http.Client
	Logger  *slog.Logger
}

// NewHTTPProvider returns a provider caching into dir.
func NewHTTPProvider(baseURL, dir string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimSuffix(baseURL, "/") + "/",
		Ext:     DefaultExt,
		Dir:     dir,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Logger:  slog.Default(),
	}
}

type meta struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Fetched      time.Time `json:"fetched"`
	// DataFile is the basename of the cached payload file
	DataFile string `json:"data_file"`
}

func (h *HTTPProvider) url(name string) string {
	return h.BaseURL + strings.TrimPrefix(name, "/") + h.Ext
}

func (h *HTTPProvider) Source(name string) (string, time.Time, error) {
	url := h.url(name)
	key := hash(url)
	mpath := filepath.Join(h.Dir, key+".json")

	var m meta
	haveMeta := false
	if b, err := os.ReadFile(mpath); err == nil {
		if json.Unmarshal(b, &m) == nil && m.URL == url && fileExists(filepath.Join(h.Dir, m.DataFile)) {
			haveMeta = true
		}
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	if haveMeta {
		if m.ETag != "" {
			req.Header.Set("If-None-Match", m.ETag)
		}
		if m.LastModified != "" {
			req.Header.Set("If-Modified-Since", m.LastModified)
		}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		if haveMeta {
			h.Logger.Warn("serving cached template", "template", name, "error", err)
			return h.cached(m)
		}
		return "", time.Time{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && haveMeta:
		return h.cached(m)
	case resp.StatusCode == http.StatusNotFound:
		return "", time.Time{}, ErrTemplateNotFound{name}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		if haveMeta {
			h.Logger.Warn("serving cached template", "template", name, "status", resp.StatusCode)
			return h.cached(m)
		}
		return "", time.Time{}, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("reading %s: %w", url, err)
	}
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return "", time.Time{}, err
	}
	nm := meta{
		Name:         name,
		URL:          url,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Fetched:      time.Now().UTC(),
		DataFile:     key + ".data",
	}
	if err := atomic.WriteFile(filepath.Join(h.Dir, nm.DataFile), bytes.NewReader(body)); err != nil {
		return "", time.Time{}, err
	}
	if err := writeMeta(mpath, nm); err != nil {
		return "", time.Time{}, err
	}
	h.Logger.Debug("fetched template", "template", name, "size", humanize.Bytes(uint64(len(body))))
	return string(body), nm.modified(), nil
}

func (h *HTTPProvider) cached(m meta) (string, time.Time, error) {
	data, err := os.ReadFile(filepath.Join(h.Dir, m.DataFile))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(data), m.modified(), nil
}

// modified prefers the server's Last-Modified over the fetch time.
func (m meta) modified() time.Time {
	if t, err := http.ParseTime(m.LastModified); err == nil {
		return t
	}
	return m.Fetched
}

// List returns the names of the templates cached so far.
func (h *HTTPProvider) List() ([]string, error) {
	entries, err := os.ReadDir(h.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(h.Dir, e.Name()))
		if err != nil {
			continue
		}
		var m meta
		if json.Unmarshal(b, &m) == nil && m.Name != "" {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func writeMeta(path string, m meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(b))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
