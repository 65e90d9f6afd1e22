// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete page lives under components/<name> and calls
// component.Register() in an init() function.  The router calls Init() on
// every component that implements Initializer, then lets each one add its
// routes to the shared chi router.

package component

import (
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/orderform/internal/catalog"
	"github.com/yanizio/orderform/internal/config"
	"github.com/yanizio/orderform/internal/form"
	"github.com/yanizio/orderform/internal/session"
	"github.com/yanizio/orderform/internal/view"
)

// Deps are the shared resources handed to components during Init.
type Deps struct {
	Config   *config.Config
	View     *view.Engine
	Sessions *session.Store
	Catalog  *catalog.Catalog
	CSRF     *form.CSRF
}

// Initializer is optional.  If a Component implements it, the router calls
// Init(deps) once before Routes.
type Initializer interface {
	Init(Deps) error
}

// Component contract.
//
// Routes registers page and API endpoints on the shared router, e.g:
//
//	r.Get("/card", c.handleCard)
//	r.Route("/form", func(fr chi.Router) { ... })
type Component interface {
	Name() string
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Component) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}
