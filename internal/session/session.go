// internal/session/session.go
//
// Orderform – form sessions.
//
// Context
//   A mounted form page owns one order.Controller.  The browser keeps only an
//   opaque id in the “orderform_session” cookie; the controller itself lives
//   in a bounded in-memory LRU with an idle TTL.  Mounting again replaces the
//   controller, which is how a page reload discards the previous state.
//
//   Nothing is persisted.  A restart or an eviction simply drops the state,
//   and the next request for that cookie is treated as “not mounted”.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/orderform/internal/cache"
	"github.com/yanizio/orderform/internal/metrics"
	"github.com/yanizio/orderform/internal/order"
)

// DefaultCookieName is used when Options.CookieName is empty.
const DefaultCookieName = "orderform_session"

// Options tunes the store.
type Options struct {
	Capacity   int
	IdleTTL    time.Duration
	CookieName string
}

// Store maps session ids to mounted form controllers.
type Store struct {
	lru    *cache.LRU[string, *order.Controller]
	cookie string
	ttl    time.Duration
}

// New builds a Store.  Zero capacity falls back to 1024 sessions.
func New(opts Options) *Store {
	if opts.Capacity < 1 {
		opts.Capacity = 1024
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	lru := cache.New[string, *order.Controller](opts.Capacity, opts.IdleTTL)
	lru.OnEvict = func(id string, _ *order.Controller) {
		metrics.SessionEvictTotal.Inc()
		metrics.ActiveSessions.Dec()
		zap.S().Debugw("form session evicted", "session", id)
	}
	return &Store{lru: lru, cookie: opts.CookieName, ttl: opts.IdleTTL}
}

// Mount creates a fresh controller, stores it under a new id, and sets the
// cookie.  Any controller referenced by the request's old cookie is dropped.
func (s *Store) Mount(w http.ResponseWriter, r *http.Request) *order.Controller {
	if old, ok := s.id(r); ok {
		if _, live := s.lru.Get(old); live {
			s.lru.Remove(old)
			metrics.ActiveSessions.Dec()
		}
	}

	id := uuid.NewString()
	ctrl := order.NewController()
	s.lru.Add(id, ctrl)
	metrics.ActiveSessions.Inc()

	c := &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/form",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
	}
	if s.ttl > 0 {
		c.MaxAge = int(s.ttl / time.Second)
	}
	http.SetCookie(w, c)
	return ctrl
}

// Lookup returns the controller mounted for the request, if any.
//
// ok == false when the cookie is missing, unknown, or expired.
func (s *Store) Lookup(r *http.Request) (ctrl *order.Controller, ok bool) {
	id, ok := s.id(r)
	if !ok {
		return nil, false
	}
	return s.lru.Get(id)
}

// Prune drops idle sessions; call periodically.
func (s *Store) Prune() int { return s.lru.Prune() }

// Len reports the number of live sessions.
func (s *Store) Len() int { return s.lru.Len() }

func (s *Store) id(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}
