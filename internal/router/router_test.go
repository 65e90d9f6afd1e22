package router_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/yanizio/orderform/components/card"
	_ "github.com/yanizio/orderform/components/orderform"
	_ "github.com/yanizio/orderform/components/search"
	"github.com/yanizio/orderform/internal/catalog"
	"github.com/yanizio/orderform/internal/component"
	"github.com/yanizio/orderform/internal/config"
	"github.com/yanizio/orderform/internal/form"
	"github.com/yanizio/orderform/internal/router"
	"github.com/yanizio/orderform/internal/session"
	"github.com/yanizio/orderform/internal/view"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	h, err := router.New(component.Deps{
		Config:   &cfg,
		View:     view.New(view.Options{}),
		Sessions: session.New(session.Options{Capacity: 8}),
		Catalog:  catalog.Default(),
		CSRF:     form.NewCSRF([]byte("0123456789abcdef0123456789abcdef")),
	})
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	return h
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	body, _ := io.ReadAll(rr.Body)
	return rr, string(body)
}

func TestRoutes(t *testing.T) {
	h := newHandler(t)
	cases := []struct {
		path   string
		status int
		want   string
	}{
		{"/", http.StatusOK, "<h1>Search</h1>"},
		{"/card", http.StatusOK, "<h1>Card</h1>"},
		{"/form", http.StatusOK, `class="order-form"`},
		{"/nope", http.StatusNotFound, "Page not found"},
		{"/card/extra", http.StatusNotFound, "Page not found"},
		{"/form/nope", http.StatusNotFound, "Page not found"},
		{"/metrics", http.StatusOK, "orderform_active_sessions"},
		{"/static/site.css", http.StatusOK, ".navbar"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr, body := get(t, h, tc.path)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if !strings.Contains(body, tc.want) {
				t.Fatalf("body missing %q", tc.want)
			}
		})
	}
}

func TestSecurityHeadersOnEveryPage(t *testing.T) {
	rr, _ := get(t, newHandler(t), "/nope")
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("CSP missing on 404 page")
	}
}

func TestSearchQuery(t *testing.T) {
	_, body := get(t, newHandler(t), "/?q=teddy")
	if !strings.Contains(body, "Teddy &amp; Friends") {
		t.Fatal("matching card missing")
	}
	if strings.Contains(body, "Sweet Tooth") {
		t.Fatal("non-matching card listed")
	}

	_, body = get(t, newHandler(t), "/?q=zeppelin")
	if !strings.Contains(body, "No cards match") {
		t.Fatal("empty-result notice missing")
	}
}

func TestCardSlug(t *testing.T) {
	h := newHandler(t)
	_, body := get(t, h, "/card?slug=flower-basket")
	if !strings.Contains(body, `class="card selected" id="card-flower-basket"`) {
		t.Fatal("selected card not highlighted")
	}
	if !strings.Contains(body, "<title>Flower Basket · Orderform</title>") {
		t.Fatal("title not set from card")
	}

	_, body = get(t, h, "/card?slug=missing")
	if !strings.Contains(body, "No card called") {
		t.Fatal("unknown slug notice missing")
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Metrics.Enabled = false
	h, err := router.New(component.Deps{
		Config:   &cfg,
		View:     view.New(view.Options{}),
		Sessions: session.New(session.Options{}),
	})
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	if rr, _ := get(t, h, "/metrics"); rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
