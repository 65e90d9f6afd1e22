package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/orderform/internal/ua"
)

// AccessLog writes one INFO line per request through the global zap logger:
// method, path, status, bytes, duration, request id, and the parsed
// user-agent browser and device class.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		agent := ua.Parse(r.UserAgent())
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("remote", r.RemoteAddr),
			zap.String("browser", agent.Browser),
			zap.String("device", agent.Device),
			zap.Bool("bot", agent.IsBot),
		)
	})
}
