package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/replayd/internal/auth"
)

const unauthorizedBody = `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`

// Auth validates the access token and stores the user ID in the request
// context. Browsers cannot set headers on <img> and websocket requests, so
// the token may also arrive as the "token" query parameter.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				tok = r.URL.Query().Get("token")
			}
			if tok == "" {
				writeProblem(w, http.StatusUnauthorized, unauthorizedBody)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tok)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("auth: token rejected")
				writeProblem(w, http.StatusUnauthorized, unauthorizedBody)
				return
			}

			userID, err := claims.UserUUID()
			if err != nil {
				writeProblem(w, http.StatusUnauthorized, unauthorizedBody)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

func writeProblem(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
