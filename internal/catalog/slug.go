// internal/catalog/slug.go
//
// Card slugs.
//
// MakeSlug converts a card title into the value of /card?slug=.
//
// Rules
// -----
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.
// 3. Trim leading / trailing “-”.
// 4. If the result is empty, return "card".
// 5. Cap at 64 bytes.

package catalog

import "strings"

const maxSlug = 64

// MakeSlug converts title → lower-kebab ASCII.
func MakeSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	dash := false
	for _, r := range strings.ToLower(title) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlug {
		slug = strings.TrimRight(slug[:maxSlug], "-")
	}
	if slug == "" {
		return "card"
	}
	return slug
}
