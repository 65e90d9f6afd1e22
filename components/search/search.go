// components/search/search.go
//
// Search page: “/” lists the gift cards matching ?q=.
//
//------------------------------------------------------------------------------

package search

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/orderform/internal/catalog"
	"github.com/yanizio/orderform/internal/component"
	"github.com/yanizio/orderform/internal/head"
	"github.com/yanizio/orderform/internal/view"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the search page.
type Component struct {
	view *view.Engine
	cat  *catalog.Catalog
}

func (c *Component) Name() string { return "search" }

// Init stores the view engine and catalogue.
func (c *Component) Init(d component.Deps) error {
	c.view, c.cat = d.View, d.Catalog
	if c.cat == nil {
		c.cat = catalog.Default()
	}
	return nil
}

func (c *Component) Routes(r chi.Router) { r.Get("/", c.handleSearch) }

func init() { component.Register(&Component{}) }

func (c *Component) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	hb := head.New()
	hb.SetTitle("Search")
	err := c.view.Render(w, http.StatusOK, "search", view.Page{
		Head: hb,
		Nav:  "search",
		Data: catalog.Listing{Query: q, Cards: c.cat.Search(q)},
	})
	if err != nil {
		zap.S().Errorw("render search page", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
