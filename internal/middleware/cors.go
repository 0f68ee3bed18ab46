package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

// CORS restricts cross-origin access to an explicit allow-list. Credentials are
// only ever returned to listed origins; requests without an Origin header pass.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
	})

	return func(next http.Handler) http.Handler {
		h := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && !c.OriginAllowed(r) {
				slog.Warn("CORS blocked origin", "origin", origin, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"CORS error","details":"Origin not allowed"}`))
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
