package twitch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	auth settings.AuthConfig
	// saves counts SaveAuth calls
	saves int
}

func (m *memStore) Auth() settings.AuthConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth
}

func (m *memStore) SaveAuth(a settings.AuthConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = a
	m.saves++
	return nil
}

// fakeTwitch serves the token, validate and helix endpoints from memory.
type fakeTwitch struct {
	*httptest.Server

	tokenCalls atomic.Int32
	gameCalls  atomic.Int32
	clipCalls  atomic.Int32

	tokenBody   string
	tokenStatus int

	users map[string]string
	games map[string]string
	clips []Clip

	// hidden[first] lists clip ids a pass with that page size never returns
	hidden map[int]map[string]bool
	// failFirst makes the clips endpoint fail for that page size
	failFirst int
	// gameGate, when set, holds every games response until it is closed
	gameGate chan struct{}

	firsts  []int
	queries []url.Values
	mu      sync.Mutex
}

func newFakeTwitch(t *testing.T) *fakeTwitch {
	t.Helper()

	f := &fakeTwitch{
		tokenBody:   `{"access_token":"tok-1","expires_in":3600,"token_type":"bearer"}`,
		tokenStatus: http.StatusOK,
		users:       map[string]string{"exampleuser": "12345"},
		games:       map[string]string{"516575": "Valorant"},
		hidden:      map[int]map[string]bool{},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if r.FormValue("grant_type") != "client_credentials" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		w.Write([]byte(f.tokenBody))
	})

	mux.HandleFunc("/oauth2/validate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth tok-1" {
			http.Error(w, "invalid access token", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"client_id": "id", "expires_in": 1200})
	})

	mux.HandleFunc("/helix/users", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		data := []map[string]string{}
		if id, ok := f.users[r.URL.Query().Get("login")]; ok {
			data = append(data, map[string]string{"id": id, "login": r.URL.Query().Get("login")})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	mux.HandleFunc("/helix/games", func(w http.ResponseWriter, r *http.Request) {
		f.gameCalls.Add(1)
		if f.gameGate != nil {
			<-f.gameGate
		}
		if !f.authorized(w, r) {
			return
		}
		data := []map[string]string{}
		id := r.URL.Query().Get("id")
		if name, ok := f.games[id]; ok {
			data = append(data, map[string]string{"id": id, "name": name})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	mux.HandleFunc("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		f.clipCalls.Add(1)
		if !f.authorized(w, r) {
			return
		}

		q := r.URL.Query()
		first, _ := strconv.Atoi(q.Get("first"))
		offset, _ := strconv.Atoi(q.Get("after"))

		f.mu.Lock()
		f.queries = append(f.queries, q)
		if q.Get("after") == "" {
			f.firsts = append(f.firsts, first)
		}
		f.mu.Unlock()

		if first == f.failFirst {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		visible := []Clip{}
		for _, c := range f.clips {
			if !f.hidden[first][c.ID] {
				visible = append(visible, c)
			}
		}

		end := min(offset+first, len(visible))
		page := visible[min(offset, len(visible)):end]

		cursor := ""
		if end < len(visible) {
			cursor = strconv.Itoa(end)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"data":       page,
			"pagination": map[string]string{"cursor": cursor},
		})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)

	return f
}

func (f *fakeTwitch) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer tok-1" || r.Header.Get("Client-Id") != "id" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *fakeTwitch) config() config.TwitchConfig {
	return config.TwitchConfig{
		AuthURL:       f.URL + "/oauth2/token",
		ValidateURL:   f.URL + "/oauth2/validate",
		APIURL:        f.URL + "/helix",
		RefreshMargin: time.Minute,
	}
}

// newTestClient returns a client whose store already holds a valid token.
func newTestClient(t *testing.T, f *fakeTwitch) (*Client, *memStore) {
	t.Helper()

	store := &memStore{auth: settings.AuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		AccessToken:  "tok-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}

	am := NewAuthenticationManager(store, f.config(), f.Client())
	return NewTwitchClient(am, f.config().APIURL, f.Client()), store
}

func TestResolveBroadcaster(t *testing.T) {
	f := newFakeTwitch(t)
	c, _ := newTestClient(t, f)

	id, err := c.ResolveBroadcaster(context.Background(), "exampleuser")
	require.NoError(t, err)
	require.Equal(t, "12345", id)

	_, err = c.ResolveBroadcaster(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveBroadcasterTransportError(t *testing.T) {
	f := newFakeTwitch(t)
	c, _ := newTestClient(t, f)
	f.Close()

	_, err := c.ResolveBroadcaster(context.Background(), "exampleuser")
	require.ErrorIs(t, err, ErrRequestFailed)
}
