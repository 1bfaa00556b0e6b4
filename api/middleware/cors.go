package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/aurevo/storefront/internal/sessions"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
}

// CORS applies the storefront's allowed origin policy. The session header is
// both accepted and exposed so browser clients can keep their cart.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", requestIDHeader, sessions.HeaderSessionID},
		ExposedHeaders:   []string{requestIDHeader, sessions.HeaderSessionID},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
