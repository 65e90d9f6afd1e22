package orderform_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	_ "github.com/yanizio/orderform/components/orderform"
	"github.com/yanizio/orderform/internal/component"
	"github.com/yanizio/orderform/internal/config"
	"github.com/yanizio/orderform/internal/form"
	"github.com/yanizio/orderform/internal/order"
	"github.com/yanizio/orderform/internal/router"
	"github.com/yanizio/orderform/internal/session"
	"github.com/yanizio/orderform/internal/view"
)

var tokenRE = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// browser is a cookie-carrying client bound to one test server.
type browser struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	token  string
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newServerWith(t, func(*config.Config) {})
}

func newServerWith(t *testing.T, tweak func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.Defaults()
	tweak(&cfg)
	h, err := router.New(component.Deps{
		Config:   &cfg,
		View:     view.New(view.Options{}),
		Sessions: session.New(session.Options{Capacity: 16}),
		CSRF:     form.NewCSRF([]byte("0123456789abcdef0123456789abcdef")),
	})
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	jar, _ := cookiejar.New(nil)
	return &browser{t: t, srv: srv, client: &http.Client{Jar: jar}}
}

func (b *browser) do(req *http.Request) (int, string) {
	b.t.Helper()
	res, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	body := buf.String()
	if m := tokenRE.FindStringSubmatch(body); m != nil {
		b.token = m[1]
	}
	return res.StatusCode, body
}

func (b *browser) get(path string) (int, string) {
	req, _ := http.NewRequest(http.MethodGet, b.srv.URL+path, nil)
	return b.do(req)
}

func (b *browser) post(path string, vals url.Values, withToken bool) (int, string) {
	if withToken {
		vals.Set("csrf_token", b.token)
	}
	req, _ := http.NewRequest(http.MethodPost, b.srv.URL+path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) upload(data []byte) (int, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("picture", "me.png")
	_, _ = fw.Write(data)
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, b.srv.URL+"/form/picture", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(form.CSRFHeader, b.token)
	return b.do(req)
}

// submitMultipart posts the form the way the rendered page does.  A nil
// picture sends no file part.
func (b *browser) submitMultipart(vals url.Values, picture []byte) (int, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	vals.Set("csrf_token", b.token)
	for k, vs := range vals {
		for _, v := range vs {
			_ = mw.WriteField(k, v)
		}
	}
	if picture != nil {
		fw, _ := mw.CreateFormFile("picture", "me.png")
		_, _ = fw.Write(picture)
	}
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, b.srv.URL+"/form", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

type stateDoc struct {
	State  order.State       `json:"state"`
	Errors map[string]string `json:"errors"`
	Phase  order.Phase       `json:"phase"`
}

func (b *browser) state() stateDoc {
	b.t.Helper()
	code, body := b.get("/form/state")
	if code != http.StatusOK {
		b.t.Fatalf("GET /form/state = %d", code)
	}
	var doc stateDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		b.t.Fatalf("decode state: %v", err)
	}
	return doc
}

func validValues() url.Values {
	return url.Values{
		"name":          {"John"},
		"surname":       {"Doe"},
		"birthday":      {"1990-01-01"},
		"deliveryDate":  {"2024-12-24"},
		"country":       {"USA"},
		"state":         {"New York"},
		"consent":       {"on"},
		"gender":        {"male"},
		"notifications": {"no"},
	}
}

// -----------------------------------------------------------------------------

func TestMountRendersCleanForm(t *testing.T) {
	b := newBrowser(t, newServer(t))
	code, body := b.get("/form")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if b.token == "" {
		t.Fatal("no CSRF token rendered")
	}
	if strings.Contains(body, "form-field invalid") {
		t.Fatal("fresh form shows errors")
	}
	doc := b.state()
	if doc.Phase != order.PhaseClean || len(doc.Errors) != 0 {
		t.Fatalf("fresh state = %+v", doc)
	}
}

func TestSubmitInvalidThenValid(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")

	vals := validValues()
	vals.Set("name", "john")
	vals.Del("consent")
	code, body := b.post("/form", vals, true)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid submit status = %d", code)
	}
	for _, want := range []string{"Name must start with an uppercase letter", "Consent is required", `value="john"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	doc := b.state()
	want := map[string]string{
		"name":    "Name must start with an uppercase letter",
		"consent": "Consent is required",
	}
	if diff := cmp.Diff(want, doc.Errors); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
	if doc.Phase != order.PhaseInvalid {
		t.Fatalf("phase = %s", doc.Phase)
	}

	code, body = b.post("/form", validValues(), true)
	if code != http.StatusOK {
		t.Fatalf("valid submit status = %d", code)
	}
	if !strings.Contains(body, "Thank you") {
		t.Fatal("success notice missing")
	}
	doc = b.state()
	if doc.Phase != order.PhaseClean || len(doc.Errors) != 0 {
		t.Fatalf("state after valid submit = %+v", doc)
	}
	if doc.State.Name != "John" {
		t.Fatal("valid submit must keep the entered values")
	}
}

func TestEventsDoNotClearErrors(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")
	b.post("/form", url.Values{}, true)

	code, _ := b.post("/form/events", url.Values{
		"kind": {form.EventField}, "name": {"name"}, "value": {"Ann"},
	}, true)
	if code != http.StatusNoContent {
		t.Fatalf("event status = %d", code)
	}
	b.post("/form/events", url.Values{"kind": {form.EventPresent}, "value": {"candy"}, "checked": {"true"}}, true)
	b.post("/form/events", url.Values{"kind": {form.EventNotification}, "value": {"yes"}}, true)

	doc := b.state()
	if doc.State.Name != "Ann" || !doc.State.Notifications {
		t.Fatalf("state = %+v", doc.State)
	}
	if diff := cmp.Diff([]string{"candy"}, doc.State.Presents); diff != "" {
		t.Fatalf("presents (-want +got):\n%s", diff)
	}
	if doc.Errors["name"] != "Name is required" || doc.Phase != order.PhaseInvalid {
		t.Fatal("edit must not clear the error before the next submit")
	}
}

func TestEventRejected(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")
	cases := []url.Values{
		{"kind": {"drag"}},
		{"kind": {form.EventField}, "name": {"consent"}, "value": {"x"}},
		{"kind": {form.EventBoolean}, "name": {"name"}, "checked": {"on"}},
	}
	for _, v := range cases {
		if code, _ := b.post("/form/events", v, true); code != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", v, code)
		}
	}
}

func TestWithoutSession(t *testing.T) {
	srv := newServer(t)
	b := newBrowser(t, srv)
	b.get("/") // search page; no session, no token

	if code, _ := b.get("/form/state"); code != http.StatusConflict {
		t.Fatalf("state status = %d, want 409", code)
	}
	if code, _ := b.post("/form/events", url.Values{"kind": {form.EventField}}, false); code != http.StatusConflict {
		t.Fatalf("events status = %d, want 409", code)
	}

	// A full submit mounts a fresh session.  The token comes from another
	// browser, which works because tokens are not bound to sessions.
	other := newBrowser(t, srv)
	other.get("/form")
	b.token = other.token
	if code, _ := b.post("/form", validValues(), true); code != http.StatusOK {
		t.Fatalf("submit status = %d", code)
	}
	if b.state().State.Surname != "Doe" {
		t.Fatal("submit without session did not mount one")
	}
}

func TestCSRFRequired(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")
	if code, _ := b.post("/form", validValues(), false); code != http.StatusForbidden {
		t.Fatalf("submit without token = %d, want 403", code)
	}
	if code, _ := b.post("/form/events", url.Values{"kind": {form.EventNotification}, "value": {"yes"}}, false); code != http.StatusForbidden {
		t.Fatalf("event without token = %d, want 403", code)
	}
}

func TestRemountDiscardsState(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")
	b.post("/form/events", url.Values{"kind": {form.EventField}, "name": {"surname"}, "value": {"Smith"}}, true)
	b.get("/form")
	if s := b.state().State; s.Surname != "" {
		t.Fatalf("reload kept surname %q", s.Surname)
	}
}

func TestPictureUpload(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")

	code, body := b.upload(pngBytes)
	if code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", code, body)
	}
	var res struct {
		Seq     uint64 `json:"seq"`
		Applied bool   `json:"applied"`
	}
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Seq != 1 || !res.Applied {
		t.Fatalf("response = %+v", res)
	}
	if pic := b.state().State.Picture; !strings.HasPrefix(pic, "data:image/png;base64,") {
		t.Fatalf("picture = %.40q", pic)
	}

	_, page := b.get("/form")
	if strings.Contains(page, `class="preview"`) {
		t.Fatal("remount kept the picture")
	}
}

func TestPictureRejectsNonImage(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")
	if code, _ := b.upload([]byte("just some text, not an image")); code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", code)
	}
	if b.state().State.Picture != "" {
		t.Fatal("rejected upload changed the state")
	}
}

func TestMultipartSubmitWithPicture(t *testing.T) {
	b := newBrowser(t, newServer(t))
	b.get("/form")

	code, body := b.submitMultipart(validValues(), pngBytes)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, `class="preview"`) {
		t.Fatal("preview missing after submit")
	}
	doc := b.state()
	if !strings.HasPrefix(doc.State.Picture, "data:image/png;base64,") {
		t.Fatalf("picture = %.40q", doc.State.Picture)
	}
	if doc.State.Name != "John" || doc.Phase != order.PhaseClean {
		t.Fatalf("state = %+v, phase = %s", doc.State, doc.Phase)
	}
}

func TestMultipartSubmitIgnoresUnusablePicture(t *testing.T) {
	srv := newServerWith(t, func(c *config.Config) { c.Picture.MaxBytes = 1024 })
	cases := []struct {
		name    string
		picture []byte
	}{
		{"not an image", []byte("just some text, not an image")},
		{"too large", append(append([]byte{}, pngBytes...), make([]byte, 2048)...)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newBrowser(t, srv)
			b.get("/form")

			code, _ := b.submitMultipart(validValues(), tc.picture)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			doc := b.state()
			if doc.State.Picture != "" {
				t.Fatal("unusable picture reached the state")
			}
			if doc.State.Surname != "Doe" {
				t.Fatal("other fields were not applied")
			}

			vals := validValues()
			vals.Del("consent")
			if code, _ := b.submitMultipart(vals, tc.picture); code != http.StatusUnprocessableEntity {
				t.Fatalf("invalid submit status = %d, want 422", code)
			}
			if b.state().Errors["consent"] != "Consent is required" {
				t.Fatal("fields were not validated")
			}
		})
	}
}

func TestBodyOverLimit(t *testing.T) {
	const maxPicture = 1024
	srv := newServerWith(t, func(c *config.Config) { c.Picture.MaxBytes = maxPicture })
	b := newBrowser(t, srv)
	b.get("/form")

	// One multipart memory buffer plus the picture cap, and some more.
	big := make([]byte, maxPicture+(1<<20)+(32<<10))
	copy(big, pngBytes)

	if code, _ := b.submitMultipart(validValues(), big); code != http.StatusRequestEntityTooLarge {
		t.Fatalf("POST /form status = %d, want 413", code)
	}
	if code, _ := b.upload(big); code != http.StatusRequestEntityTooLarge {
		t.Fatalf("POST /form/picture status = %d, want 413", code)
	}
	if b.state().State.Picture != "" {
		t.Fatal("oversized body changed the state")
	}
}
