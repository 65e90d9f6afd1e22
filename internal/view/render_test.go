package view

import (
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yanizio/orderform/internal/head"
)

func TestRender_NotFoundPage(t *testing.T) {
	e := New(Options{})
	hb := head.New()
	hb.SetTitle("Not found")

	rr := httptest.NewRecorder()
	err := e.Render(rr, http.StatusNotFound, "notfound", Page{
		Head: hb,
		Data: struct{ Path string }{"/nope"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"<title>Not found · Orderform</title>", "<code>/nope</code>", `<nav class="navbar">`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRender_NavbarHighlight(t *testing.T) {
	e := New(Options{})
	out, err := e.RenderToString("card", Page{
		Nav:  "card",
		Data: struct {
			Cards    []struct{ Slug, Title, Price, HTML string }
			Selected string
			Missing  bool
		}{},
	})
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	if !strings.Contains(out, `<a href="/card" aria-current="page">Card</a>`) {
		t.Fatalf("card link not highlighted:\n%s", out)
	}
	if strings.Contains(out, `<a href="/" aria-current`) {
		t.Fatal("search link highlighted on card page")
	}
}

func TestRender_UnknownPage(t *testing.T) {
	_, err := New(Options{}).RenderToString("missing", Page{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestRender_ThemeOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "plain"), 0o755); err != nil {
		t.Fatal(err)
	}
	page := `{{define "content"}}<p>themed {{.Data}}</p>{{end}}`
	if err := os.WriteFile(filepath.Join(dir, "plain", "notfound.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := New(Options{ThemeDir: dir, Theme: "plain"}).RenderToString("notfound", Page{Data: "x"})
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	if !strings.Contains(out, "<p>themed x</p>") {
		t.Fatalf("override not used:\n%s", out)
	}
}

func TestStatic(t *testing.T) {
	rr := httptest.NewRecorder()
	http.StripPrefix("/static", Static()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/form.js", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
