// components/orderform/orderform.go
//
// Orderform – the order form page.
//
// Context
//   The page owns one order.Controller per browser session.  GET mounts a
//   fresh controller; everything else talks to the mounted one:
//
//      GET  /form          mount and render the clean form
//      POST /form          full submit → 422 with inline errors, or 200
//      POST /form/events   one UI event, applied without validation → 204
//      POST /form/picture  multipart picture → {"seq":n,"applied":bool}
//      GET  /form/state    JSON snapshot, errors, and phase
//
//   Requests that need a mounted form and carry no live session get 409.  A
//   full submit without one mounts a fresh controller first, so a native
//   form post still works after the session was evicted.
//
//------------------------------------------------------------------------------

package orderform

import (
	"encoding/json"
	"errors"
	"html/template"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/orderform/internal/component"
	"github.com/yanizio/orderform/internal/form"
	"github.com/yanizio/orderform/internal/head"
	"github.com/yanizio/orderform/internal/metrics"
	"github.com/yanizio/orderform/internal/order"
	"github.com/yanizio/orderform/internal/session"
	"github.com/yanizio/orderform/internal/view"
)

const (
	// eventBodyMax bounds urlencoded event posts.
	eventBodyMax = 64 << 10
	// multipartMemory is kept in RAM before parts spill to temp files.
	multipartMemory = 1 << 20
)

var _ component.Component = (*Component)(nil)

// Component serves /form and its event endpoints.
type Component struct {
	view       *view.Engine
	sessions   *session.Store
	csrf       *form.CSRF
	maxPicture int64
}

func (c *Component) Name() string { return "orderform" }

// Init stores shared dependencies.  CSRF falls back to the process default.
func (c *Component) Init(d component.Deps) error {
	if d.Sessions == nil {
		return errors.New("orderform: session store is required")
	}
	c.view, c.sessions, c.csrf = d.View, d.Sessions, d.CSRF
	if c.csrf == nil {
		c.csrf = form.DefaultCSRF()
	}
	c.maxPicture = order.DefaultPictureMaxBytes
	if d.Config != nil && d.Config.Picture.MaxBytes > 0 {
		c.maxPicture = d.Config.Picture.MaxBytes
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Route("/form", func(fr chi.Router) {
		fr.Get("/", c.handleMount)
		fr.Post("/", c.handleSubmit)
		fr.Post("/events", c.handleEvent)
		fr.Post("/picture", c.handlePicture)
		fr.Get("/state", c.handleState)
	})
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleMount(w http.ResponseWriter, r *http.Request) {
	ctrl := c.sessions.Mount(w, r)
	c.render(w, http.StatusOK, ctrl, false)
}

func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxPicture+multipartMemory)
	if status, ok := parseBody(r); !ok {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if err := c.csrf.VerifyRequest(r); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	ctrl, ok := c.sessions.Lookup(r)
	if !ok {
		ctrl = c.sessions.Mount(w, r)
	}

	sub, err := form.DecodeSubmission(r.PostForm)
	if err != nil {
		zap.S().Debugw("undecodable submission", "err", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	// An unusable picture leaves the state untouched; the rest of the
	// submission still counts.
	if fh := pictureHeader(r.MultipartForm); fh != nil {
		if _, _, err := c.loadPicture(r, ctrl, fh); err != nil {
			zap.S().Infow("picture ignored on submit", "err", err)
		}
	}

	errs, err := ctrl.SubmitWith(r.Context(), sub.ApplyTo)
	if err != nil {
		zap.S().Errorw("apply submission", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !errs.Valid() {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		for _, f := range errs.Fields() {
			metrics.ValidationErrorsTotal.WithLabelValues(f.String()).Inc()
		}
		c.render(w, http.StatusUnprocessableEntity, ctrl, false)
		return
	}
	metrics.SubmissionsTotal.WithLabelValues("valid").Inc()
	c.render(w, http.StatusOK, ctrl, true)
}

func (c *Component) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.sessions.Lookup(r)
	if !ok {
		http.Error(w, "form not mounted", http.StatusConflict)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, eventBodyMax)
	if status, ok := parseBody(r); !ok {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if err := c.csrf.VerifyRequest(r); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	ev, err := form.DecodeEvent(r.PostForm)
	if err == nil {
		err = ev.Apply(ctrl)
	}
	if err != nil {
		zap.S().Debugw("rejected form event", "kind", ev.Kind, "name", ev.Name, "err", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pictureResponse struct {
	Seq     uint64 `json:"seq"`
	Applied bool   `json:"applied"`
}

func (c *Component) handlePicture(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.sessions.Lookup(r)
	if !ok {
		http.Error(w, "form not mounted", http.StatusConflict)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, c.maxPicture+multipartMemory)
	if status, ok := parseBody(r); !ok {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if err := c.csrf.VerifyRequest(r); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	fh := pictureHeader(r.MultipartForm)
	if fh == nil {
		http.Error(w, "picture part missing", http.StatusBadRequest)
		return
	}

	seq, applied, err := c.loadPicture(r, ctrl, fh)
	switch {
	case errors.Is(err, order.ErrNotImage):
		http.Error(w, http.StatusText(http.StatusUnsupportedMediaType), http.StatusUnsupportedMediaType)
		return
	case errors.Is(err, order.ErrPictureTooLarge):
		http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		zap.S().Warnw("picture load failed", "seq", seq, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pictureResponse{Seq: seq, Applied: applied})
}

type stateResponse struct {
	State  order.State       `json:"state"`
	Errors map[string]string `json:"errors"`
	Phase  order.Phase       `json:"phase"`
}

func (c *Component) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.sessions.Lookup(r)
	if !ok {
		http.Error(w, "form not mounted", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		State:  ctrl.Snapshot(),
		Errors: ctrl.Errors().ByName(),
		Phase:  ctrl.Phase(),
	})
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

type formPage struct {
	Title   string
	Form    template.HTML
	Success bool
	Invalid bool
}

// render draws the form from the controller's snapshot and last errors.
func (c *Component) render(w http.ResponseWriter, status int, ctrl *order.Controller, success bool) {
	fd, ok := form.GetFormDef(form.OrderFormID)
	if !ok {
		zap.S().Error("order form definition missing")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	tok, err := c.csrf.Token()
	if err != nil {
		zap.S().Errorw("csrf token", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	markup, err := form.Render(fd, form.RenderInput{
		State:  ctrl.Snapshot(),
		Errors: ctrl.Errors(),
		Token:  tok,
	})
	if err != nil {
		zap.S().Errorw("render order form", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hb := head.New()
	hb.SetTitle(fd.Title)
	hb.ScriptSrc("/static/form.js")
	err = c.view.Render(w, status, "form", view.Page{
		Head: hb,
		Nav:  "form",
		Data: formPage{
			Title:   fd.Title,
			Form:    markup,
			Success: success,
			Invalid: ctrl.Phase() == order.PhaseInvalid,
		},
	})
	if err != nil {
		zap.S().Errorw("render form page", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// loadPicture runs the asynchronous loader and waits for it.  Multipart
// temp files are removed once the handler returns, so the read must finish
// here.  The outcome is taken from the finished load, never from the request
// context, so the metric matches what reached the state.
func (c *Component) loadPicture(r *http.Request, ctrl *order.Controller, fh *multipart.FileHeader) (seq uint64, applied bool, err error) {
	f, err := fh.Open()
	if err != nil {
		metrics.PictureLoadsTotal.WithLabelValues("rejected").Inc()
		return 0, false, err
	}
	load := ctrl.LoadPicture(f, c.maxPicture)
	select {
	case <-load.Done():
	case <-r.Context().Done():
		_ = f.Close() // unblocks the reader
	}
	applied, err = load.Result()
	_ = f.Close()

	metrics.PictureLoadsTotal.WithLabelValues(pictureOutcome(applied, err)).Inc()
	return load.Seq, applied, err
}

// pictureOutcome is the PictureLoadsTotal label for a finished load.
func pictureOutcome(applied bool, err error) string {
	switch {
	case err != nil:
		return "rejected"
	case applied:
		return "applied"
	default:
		return "stale"
	}
}

// parseBody reads urlencoded or multipart bodies into r.PostForm.  The
// status is 413 when MaxBytesReader tripped and 400 otherwise.
func parseBody(r *http.Request) (status int, ok bool) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return 0, true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge, false
	}
	zap.S().Debugw("unparseable form body", "err", err)
	return http.StatusBadRequest, false
}

// pictureHeader returns the first non-empty picture part.
func pictureHeader(mf *multipart.Form) *multipart.FileHeader {
	if mf == nil {
		return nil
	}
	for _, fh := range mf.File[order.FieldPicture.String()] {
		if fh.Size > 0 {
			return fh
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("write json", "err", err)
	}
}
