// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single render.  Components push tags
// into it, and layout.html decides where to emit each slice.
//
// Features
// --------
//   - SetTitle      – single <title> tag (last call wins), suffixed with
//     the site name.
//   - Meta, Script  – arbitrary pre-built tags, deduplicated.
//   - ScriptSrc     – convenience for an external, deferred script.
package head

import (
	"html/template"
	"strings"
)

// SiteName is appended to every page title.
const SiteName = "Orderform"

// Builder is used by one goroutine per render; it holds no lock.
type Builder struct {
	title   string
	metas   []string
	scripts []string
	seen    map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page title.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag.
func (b *Builder) Title() template.HTML {
	t := SiteName
	if b.title != "" {
		t = b.title + " · " + SiteName
	}
	return template.HTML("<title>" + template.HTMLEscapeString(t) + "</title>")
}

// Meta adds a pre-built <meta> tag.  Callers must escape attribute values.
func (b *Builder) Meta(tag string) { b.add("meta:"+tag, &b.metas, tag) }

// Script adds a pre-built <script> tag.
func (b *Builder) Script(tag string) { b.add("script:"+tag, &b.scripts, tag) }

// ScriptSrc adds <script src="…" defer></script>.
func (b *Builder) ScriptSrc(src string) {
	b.Script(`<script src="` + template.HTMLEscapeString(src) + `" defer></script>`)
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

func (b *Builder) Metas() template.HTML   { return concat(b.metas) }
func (b *Builder) Scripts() template.HTML { return concat(b.scripts) }

// concat joins pre-escaped tags without a separator.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, ""))
}
