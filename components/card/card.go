// components/card/card.go
//
// Card page: “/card” shows every gift card; ?slug= highlights one.  An
// unknown slug still renders the full list with a notice.
//
//------------------------------------------------------------------------------

package card

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/orderform/internal/catalog"
	"github.com/yanizio/orderform/internal/component"
	"github.com/yanizio/orderform/internal/head"
	"github.com/yanizio/orderform/internal/view"
)

var _ component.Component = (*Component)(nil)

// Component serves the card page.
type Component struct {
	view *view.Engine
	cat  *catalog.Catalog
}

func (c *Component) Name() string { return "card" }

func (c *Component) Init(d component.Deps) error {
	c.view, c.cat = d.View, d.Catalog
	if c.cat == nil {
		c.cat = catalog.Default()
	}
	return nil
}

func (c *Component) Routes(r chi.Router) { r.Get("/card", c.handleCard) }

func init() { component.Register(&Component{}) }

func (c *Component) handleCard(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	list := catalog.Listing{Cards: c.cat.All(), Selected: slug}

	hb := head.New()
	hb.SetTitle("Card")
	if slug != "" {
		if card, ok := c.cat.Lookup(slug); ok {
			hb.SetTitle(card.Title)
		} else {
			list.Missing = true
		}
	}

	err := c.view.Render(w, http.StatusOK, "card", view.Page{Head: hb, Nav: "card", Data: list})
	if err != nil {
		zap.S().Errorw("render card page", "slug", slug, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
