// Package middleware provides HTTP middleware for the ledger web server.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/ledger/internal/logging"
)

// Logger logs one line per request with the chi request id.
//
// Log fields:
//   - method, path, status
//   - bytes: response body size
//   - duration_ms: request processing time
//   - ip: client address after TrustedRealIP
//   - member: authenticated member, if any
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		// Auth runs further down the chain and reports the member back here.
		holder := &memberHolder{}
		r = r.WithContext(withMemberHolder(r.Context(), holder))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		}
		if holder.member != "" {
			attrs = append(attrs, "member", holder.member)
		}
		logging.FromContext(r.Context()).Info("request", attrs...)
	})
}
