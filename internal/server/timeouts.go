// internal/server/timeouts.go
//
// HTTP server helper with explicit timeouts.
//
//   • ReadTimeout   – abort slow-loris headers and bodies
//   • WriteTimeout  – cap total response time
//   • IdleTimeout   – close keep-alives on idle clients
//
// Values come from the http section of the config so cmd/web doesn’t repeat
// boilerplate.

package server

import (
	"net/http"

	"github.com/yanizio/orderform/internal/config"
)

// New constructs an *http.Server from the http config section.
func New(c config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              c.ListenAddr,
		Handler:           handler,
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
	}
}
