// internal/view/render.go
//
// Central view engine: template lookup, theme override chain, and an LRU of
// parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render         – execute a page inside layout.html and write it.
//   - RenderToString – same, returned as a string (tests, error pages).
//   - Static         – http.Handler for the embedded /static assets.
//
// Lookup precedence per file (first hit wins):
//   1. <theme_dir>/<theme>/<file>.html   (on disk, optional)
//   2. templates/<file>.html             (embedded)
//
// A page set is layout.html plus the page file.  Pages define “content”;
// layout.html defines “layout”, “navbar”, and shared partials.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yanizio/orderform/internal/cache"
	"github.com/yanizio/orderform/internal/head"
)

//go:embed templates/*.html
var builtin embed.FS

//go:embed static
var assets embed.FS

const layoutFile = "layout"

// CachePolicy hints how the caller wants parsed sets cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // keep parsed sets in the LRU
	CacheSkip                       // re-read every render (theme development)
)

// Options selects the on-disk override directory.
type Options struct {
	ThemeDir string
	Theme    string
	Policy   CachePolicy
}

// Page is the data every template receives.
type Page struct {
	Head *head.Builder
	Nav  string // navbar entry to highlight: search, card, form
	Data any
}

// Engine renders pages.  Safe for concurrent use.
type Engine struct {
	opts Options
	sets *cache.LRU[string, *template.Template]
}

// New builds an Engine.  An empty ThemeDir disables overrides.
func New(opts Options) *Engine {
	return &Engine{
		opts: opts,
		sets: cache.New[string, *template.Template](64, 0),
	}
}

//
// public helpers
//

// Render executes page name and writes it with status.  Execution happens
// into a buffer first so a template error never leaves a half-written 200.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, p Page) error {
	var buf bytes.Buffer
	if err := e.execute(&buf, name, p); err != nil {
		return err
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderToString mirrors Render but returns the markup.
func (e *Engine) RenderToString(name string, p Page) (string, error) {
	var buf bytes.Buffer
	if err := e.execute(&buf, name, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Static serves the embedded stylesheet and scripts.  Mount it under
// /static/ with the prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err) // embed path is fixed at build time
	}
	return http.FileServer(http.FS(sub))
}

//
// internal
//

func (e *Engine) execute(buf *bytes.Buffer, name string, p Page) error {
	t, err := e.load(name)
	if err != nil {
		return err
	}
	if p.Head == nil {
		p.Head = head.New()
	}
	if err := t.ExecuteTemplate(buf, layoutFile, p); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// load returns the parsed layout+page set, from the LRU when allowed.
func (e *Engine) load(name string) (*template.Template, error) {
	key := e.opts.Theme + "::" + name
	if e.opts.Policy != CacheSkip {
		if t, ok := e.sets.Get(key); ok {
			return t, nil
		}
	}

	t := template.New(name)
	for _, file := range []string{layoutFile, name} {
		raw, err := e.read(file)
		if err != nil {
			return nil, err
		}
		if _, err := t.New(file + ".html").Parse(string(raw)); err != nil {
			return nil, fmt.Errorf("parse %s.html: %w", file, err)
		}
	}

	if e.opts.Policy != CacheSkip {
		e.sets.Add(key, t)
	}
	return t, nil
}

// read applies the lookup precedence for one template file.
func (e *Engine) read(file string) ([]byte, error) {
	if e.opts.ThemeDir != "" {
		p := filepath.Join(e.opts.ThemeDir, e.opts.Theme, file+".html")
		raw, err := os.ReadFile(p)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read override %s: %w", p, err)
		}
	}
	raw, err := builtin.ReadFile("templates/" + file + ".html")
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", file, err)
	}
	return raw, nil
}
