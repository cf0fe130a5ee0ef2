package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/reqid"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Logger tags a per-request logger with the request id, injects it into the
// context and logs one line when the request completes.
//
// Wire reqid.Middleware() before this so the id is set.
func Logger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := base.With("request_id", reqid.FromCtx(r.Context()))
			r = r.WithContext(logger.InjectLogger(r.Context(), reqLog))

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			reqLog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
				"ip", r.RemoteAddr,
			)
		})
	}
}
