// internal/catalog/catalog.go
//
// Orderform – gift card catalogue.
//
// Context
//   The search page (/) and the card page (/card) list the gift cards a
//   visitor can order.  The list is a small YAML document embedded in the
//   binary and parsed once.  Descriptions may contain basic inline HTML; it
//   is sanitised with bluemonday's UGC policy at load time, so templates can
//   emit Card.HTML without escaping.  A plain-text copy (strict policy) backs
//   the case-insensitive search.
//
//------------------------------------------------------------------------------

package catalog

import (
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var cardsYAML []byte

// Card is one catalogue entry.
type Card struct {
	Slug  string
	Title string
	Price string
	HTML  template.HTML // sanitised description

	text string // lower-cased title + plain description for Search
}

type cardDoc struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

// Catalog is immutable after Load.
type Catalog struct {
	cards  []Card
	bySlug map[string]int
}

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Load parses a catalogue document.  Slugs default to MakeSlug(title) and
// must be unique.
func Load(raw []byte) (*Catalog, error) {
	var doc struct {
		Cards []cardDoc `yaml:"cards"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}

	c := &Catalog{bySlug: make(map[string]int, len(doc.Cards))}
	for i, d := range doc.Cards {
		if strings.TrimSpace(d.Title) == "" {
			return nil, fmt.Errorf("catalogue card %d: missing title", i)
		}
		slug := d.Slug
		if slug == "" {
			slug = MakeSlug(d.Title)
		}
		if _, dup := c.bySlug[slug]; dup {
			return nil, fmt.Errorf("catalogue card %q: duplicate slug %q", d.Title, slug)
		}

		plain := html.UnescapeString(strict.Sanitize(d.Description))
		c.bySlug[slug] = len(c.cards)
		c.cards = append(c.cards, Card{
			Slug:  slug,
			Title: d.Title,
			Price: d.Price,
			HTML:  template.HTML(ugc.Sanitize(d.Description)),
			text:  strings.ToLower(d.Title + "\n" + plain),
		})
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalogue.  It panics if the embedded YAML is
// broken, which the package tests guard against.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(cardsYAML)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// All returns every card in document order.
func (c *Catalog) All() []Card {
	out := make([]Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Lookup finds a card by slug.
func (c *Catalog) Lookup(slug string) (Card, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Card{}, false
	}
	return c.cards[i], true
}

// Search returns the cards whose title or description contains q,
// ignoring case.  A blank query matches everything.
func (c *Catalog) Search(q string) []Card {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return c.All()
	}
	var out []Card
	for _, card := range c.cards {
		if strings.Contains(card.text, q) {
			out = append(out, card)
		}
	}
	return out
}

// Listing is the view model shared by the search and card pages.
type Listing struct {
	Query    string
	Cards    []Card
	Selected string // slug to highlight
	Missing  bool   // Selected named no card
}
