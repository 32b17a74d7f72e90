package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows cross-origin requests from origins only. Credentials are
// allowed, as are all methods and headers.
func CORS(origins []string) Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler
}
