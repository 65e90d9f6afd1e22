// internal/form/renderer.go
//
// Orderform – Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef and the current order snapshot this file produces
//   the form markup.  Each control is prefilled from the State, and the error
//   span under it carries the message from the last submission (empty while
//   the page is clean).  A CSRF token is embedded as a hidden input.
//
// Style
//   Output HTML is deliberately plain so themes can style via element
//   selectors or class hooks.  Each input gets id="fld-{name}" and is wrapped
//   in <div class="form-field">; a field with an error adds class “invalid”.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"

	"github.com/yanizio/orderform/internal/order"
)

// RenderInput bundles everything the markup depends on.
type RenderInput struct {
	State  order.State
	Errors order.Errors
	Token  string // CSRF token
	Action string // form action URL, defaults to /form
}

// RenderForm returns the HTML markup for the given form ID.
func RenderForm(formID string, in RenderInput) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm: unknown form %q", formID)
	}
	return Render(fd, in)
}

// Render writes fd against in.  The form posts multipart data so the picture
// travels with the full submit.
func Render(fd *FormDef, in RenderInput) (template.HTML, error) {
	action := in.Action
	if action == "" {
		action = "/form"
	}

	var buf bytes.Buffer
	buf.WriteString(`<form class="order-form" method="post" enctype="multipart/form-data" novalidate action="` +
		html.EscapeString(action) + `">` + "\n")

	for i := range fd.Fields {
		if err := writeField(&buf, &fd.Fields[i], in); err != nil {
			return "", err
		}
	}

	buf.WriteString(`<input type="hidden" name="csrf_token" value="` + html.EscapeString(in.Token) + `">` + "\n")
	caption := fd.Submit
	if caption == "" {
		caption = "Submit"
	}
	buf.WriteString(`<button type="submit">` + html.EscapeString(caption) + `</button>` + "\n")
	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

// writeField emits one wrapped control with its label and error span.
func writeField(buf *bytes.Buffer, f *FieldDef, in RenderInput) error {
	s := in.State
	name := html.EscapeString(f.Name)
	id := "fld-" + name
	msg := in.Errors.Message(f.Field())

	if msg != "" {
		buf.WriteString(`<div class="form-field invalid">` + "\n")
	} else {
		buf.WriteString(`<div class="form-field">` + "\n")
	}

	switch f.Type {
	case "checkboxes", "radio":
		buf.WriteString(`<fieldset id="` + id + `"><legend>` + html.EscapeString(f.Label) + `</legend>` + "\n")
	default:
		buf.WriteString(`<label for="` + id + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
	}

	switch f.Type {
	case "text", "date":
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="` + f.Type + `"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		if f.Required {
			buf.WriteString(` required`)
		}
		if v := s.Value(f.Field()); v != "" {
			buf.WriteString(` value="` + html.EscapeString(v) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "select":
		buf.WriteString(`<select id="` + id + `" name="` + name + `"`)
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`>` + "\n")
		cur := s.Value(f.Field())
		sel := ""
		if cur == "" {
			sel = ` selected`
		}
		buf.WriteString(`<option value=""` + sel + `>Select…</option>` + "\n")
		for _, opt := range f.Options {
			writeOption(buf, opt, cur == opt)
		}
		buf.WriteString(`</select>` + "\n")

	case "checkbox":
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="checkbox"`)
		if s.Consent {
			buf.WriteString(` checked`)
		}
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`>` + "\n")

	case "checkboxes":
		for i, opt := range f.Options {
			optID := fmt.Sprintf("%s-%d", id, i)
			checked := ""
			if s.HasPresent(opt) {
				checked = ` checked`
			}
			buf.WriteString(`<div class="check-option">` +
				`<input id="` + optID + `" name="` + name + `" type="checkbox" value="` + html.EscapeString(opt) + `"` + checked + `>` +
				`<label for="` + optID + `">` + html.EscapeString(opt) + `</label></div>` + "\n")
		}
		buf.WriteString(`</fieldset>` + "\n")

	case "radio":
		cur := radioValue(f.Field(), s)
		for i, opt := range f.Options {
			optID := fmt.Sprintf("%s-%d", id, i)
			checked := ""
			if cur == opt {
				checked = ` checked`
			}
			buf.WriteString(`<div class="radio-option">` +
				`<input id="` + optID + `" name="` + name + `" type="radio" value="` + html.EscapeString(opt) + `"` + checked)
			if f.Required {
				buf.WriteString(` required`)
			}
			buf.WriteString(`><label for="` + optID + `">` + html.EscapeString(opt) + `</label></div>` + "\n")
		}
		buf.WriteString(`</fieldset>` + "\n")

	case "file":
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="file"`)
		if f.Accept != "" {
			buf.WriteString(` accept="` + html.EscapeString(f.Accept) + `"`)
		}
		buf.WriteString(`>` + "\n")
		if s.Picture != "" {
			// Data URLs are produced by order.EncodePicture, never by the client.
			buf.WriteString(`<img class="preview" alt="` + html.EscapeString(f.Label) + `" src="` +
				html.EscapeString(s.Picture) + `">` + "\n")
		}

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	buf.WriteString(`<span class="error" aria-live="polite">` + html.EscapeString(msg) + `</span>` + "\n")
	buf.WriteString(`</div>` + "\n")
	return nil
}

func writeOption(buf *bytes.Buffer, opt string, selected bool) {
	sel := ""
	if selected {
		sel = ` selected`
	}
	v := html.EscapeString(opt)
	buf.WriteString(`<option value="` + v + `"` + sel + `>` + v + `</option>` + "\n")
}

// radioValue maps the snapshot to the option that should be checked.
// Notifications is a bool, shown through the yes/no pair.
func radioValue(f order.Field, s order.State) string {
	if f == order.FieldNotifications {
		if s.Notifications {
			return order.NotifyYes
		}
		return order.NotifyNo
	}
	return s.Value(f)
}
