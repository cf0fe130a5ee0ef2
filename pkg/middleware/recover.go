package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/response"
)

// Recovery turns a handler panic into a logged 500.
//
//	r.Use(reqid.Middleware())
//	r.Use(middleware.Logger(log))
//	r.Use(middleware.Recovery)
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithCtx(r.Context()).Error("panic recovered",
					"error", fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Error(w, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
