package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured origins to call the API. An empty list or a
// "*" entry allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowAny := false
	for _, o := range origins {
		if o == "*" {
			allowAny = true
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition", RequestIDHeader},
		// credentials with a wildcard origin are rejected by browsers
		AllowCredentials: !allowAny,
		MaxAge:           86400,
	})
}
