package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows any origin to read the catalog. Preflight requests are
// answered here and never reach a handler.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
