package middlewares

import (
	"net/http"
	"strings"

	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"github.com/marcopiovanello/twitch-clip-dl/server/user"
)

// Authenticated accepts a token from the Authorization header or the login
// cookie.
func Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			if c, err := r.Cookie(user.TokenCookieName); err == nil {
				token = c.Value
			}
		}

		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		secret := []byte(config.Instance().Authentication.JWTSecret)
		if _, err := user.ParseToken(token, secret); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
