package middlewares

import (
	"net/http"

	"github.com/marcopiovanello/twitch-clip-dl/server/config"
)

func ApplyAuthenticationByConfig(next http.Handler) http.Handler {
	if config.Instance().Authentication.RequireAuth {
		return Authenticated(next)
	}
	return next
}
