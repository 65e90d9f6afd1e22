// internal/router/router.go
//
// Top-level HTTP router.
//
// Static path matching only: “/” search, “/card” cards, “/form” the order
// form (plus its event endpoints), “/static/*” embedded assets, and the
// metrics endpoint when enabled.  Every other path renders the not-found
// page with status 404.
//
// Middleware order
// ----------------
//   RequestID → RealIP → AccessLog → Recoverer → ForceHTTPS → Security
//
// Components register themselves via component.Register; callers must
// blank-import the packages they want mounted.

package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/orderform/internal/component"
	"github.com/yanizio/orderform/internal/head"
	"github.com/yanizio/orderform/internal/middleware"
	"github.com/yanizio/orderform/internal/view"
)

// New wires middleware, initialises every registered component, and
// returns the root handler.
func New(d component.Deps) (http.Handler, error) {
	if d.Config == nil || d.View == nil {
		return nil, fmt.Errorf("router: config and view are required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ForceHTTPS(d.Config.HTTP.ForceHTTPS))
	r.Use(middleware.Security)

	r.NotFound(notFound(d.View))
	r.Handle("/static/*", http.StripPrefix("/static", view.Static()))
	if d.Config.Metrics.Enabled {
		r.Handle(d.Config.Metrics.Path, promhttp.Handler())
	}

	for _, c := range component.All() {
		if in, ok := c.(component.Initializer); ok {
			if err := in.Init(d); err != nil {
				return nil, fmt.Errorf("init component %s: %w", c.Name(), err)
			}
		}
		c.Routes(r)
		zap.L().Debug("component mounted", zap.String("component", c.Name()))
	}
	return r, nil
}

// notFound renders notfound.html; a template failure falls back to the
// plain net/http 404.
func notFound(v *view.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hb := head.New()
		hb.SetTitle("Page not found")
		err := v.Render(w, http.StatusNotFound, "notfound", view.Page{
			Head: hb,
			Data: struct{ Path string }{r.URL.Path},
		})
		if err != nil {
			zap.S().Errorw("render not-found page", "path", r.URL.Path, "err", err)
			http.NotFound(w, r)
		}
	}
}
