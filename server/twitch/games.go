package twitch

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// UnknownGame is returned whenever a game id cannot be resolved.
const UnknownGame = "Unknown"

// GameResolver maps game ids to display names. Resolved names are kept for
// the lifetime of the process; failures are not cached.
type GameResolver struct {
	client *Client
	cache  map[string]string
	mu     sync.RWMutex
	group  singleflight.Group
}

func NewGameResolver(client *Client) *GameResolver {
	return &GameResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// Resolve never fails; it degrades to UnknownGame.
func (g *GameResolver) Resolve(ctx context.Context, gameID string) string {
	if gameID == "" {
		return UnknownGame
	}

	g.mu.RLock()
	name, ok := g.cache[gameID]
	g.mu.RUnlock()
	if ok {
		return name
	}

	v, _, _ := g.group.Do(gameID, func() (any, error) {
		// a lookup that finished since the first check already filled the cache
		g.mu.RLock()
		name, ok := g.cache[gameID]
		g.mu.RUnlock()
		if ok {
			return name, nil
		}

		var gr gamesResp
		if err := g.client.doRequest(ctx, "/games", gamesQuery{ID: gameID}, &gr); err != nil {
			slog.Warn("failed to fetch game name", slog.String("game_id", gameID), slog.Any("err", err))
			return UnknownGame, nil
		}

		if len(gr.Data) == 0 || gr.Data[0].Name == "" {
			return UnknownGame, nil
		}

		name = gr.Data[0].Name

		g.mu.Lock()
		g.cache[gameID] = name
		g.mu.Unlock()

		return name, nil
	})

	return v.(string)
}

// Len is the number of cached names.
func (g *GameResolver) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cache)
}
