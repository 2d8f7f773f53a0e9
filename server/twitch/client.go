package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/go-querystring/query"
	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"golang.org/x/time/rate"
)

// helix grants app tokens 800 points per minute
const helixRequestsPerMinute = 800

// TokenSource hands out a usable app access token.
type TokenSource interface {
	Token(ctx context.Context) (*AccessToken, error)
	GetClientId() string
}

type Client struct {
	tokens     TokenSource
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewTwitchClient(tokens TokenSource, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = config.DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		tokens:     tokens,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(helixRequestsPerMinute)/60, helixRequestsPerMinute),
	}
}

// doRequest performs an authenticated GET against a helix endpoint, encoding
// params as the query string and decoding the JSON body into out.
func (c *Client) doRequest(ctx context.Context, endpoint string, params any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	q, err := query.Values(params)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Client-Id", c.tokens.GetClientId())
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s", ErrRequestFailed, endpoint, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return nil
}

// ResolveBroadcaster looks up the id of the channel with the given login name.
func (c *Client) ResolveBroadcaster(ctx context.Context, name string) (string, error) {
	var ur usersResp

	if err := c.doRequest(ctx, "/users", usersQuery{Login: name}, &ur); err != nil {
		return "", fmt.Errorf("failed to fetch broadcaster id for user '%s': %w", name, err)
	}

	if len(ur.Data) == 0 || ur.Data[0].ID == "" {
		return "", fmt.Errorf("%w: user '%s' not found", ErrUserNotFound, name)
	}

	return ur.Data[0].ID, nil
}
