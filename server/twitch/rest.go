package twitch

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type tokenReq struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResp struct {
	ClientID  string    `json:"client_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HTTPStatus maps the package errors to a response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRequestFailed), errors.Is(err, ErrInvalidResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func AcquireTokenHandler(am *AuthenticationManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req tokenReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		auth, err := am.AcquireToken(r.Context(), req.ClientID, req.ClientSecret)
		if err != nil {
			http.Error(w, err.Error(), HTTPStatus(err))
			return
		}

		res := tokenResp{ClientID: auth.ClientID, ExpiresAt: auth.ExpiresAt}
		if err := json.NewEncoder(w).Encode(res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func ValidateTokenHandler(am *AuthenticationManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		left, err := am.Validate(r.Context())
		if err != nil {
			http.Error(w, err.Error(), HTTPStatus(err))
			return
		}

		res := map[string]int64{"expires_in": int64(left.Seconds())}
		if err := json.NewEncoder(w).Encode(res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func BroadcasterHandler(c *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id, err := c.ResolveBroadcaster(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			http.Error(w, err.Error(), HTTPStatus(err))
			return
		}

		if err := json.NewEncoder(w).Encode(map[string]string{"id": id}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func GameHandler(g *GameResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		name := g.Resolve(r.Context(), chi.URLParam(r, "id"))

		if err := json.NewEncoder(w).Encode(map[string]string{"name": name}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
