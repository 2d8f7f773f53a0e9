package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// CredentialStore is where the auth section lives.
type CredentialStore interface {
	Auth() settings.AuthConfig
	SaveAuth(settings.AuthConfig) error
}

type AccessToken struct {
	Token  string
	Expiry time.Time
}

type validateResponse struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	Scopes    []string `json:"scopes"`
	UserID    string   `json:"user_id"`
	ExpiresIn int64    `json:"expires_in"`
}

type AuthenticationManager struct {
	store         CredentialStore
	authURL       string
	validateURL   string
	refreshMargin time.Duration
	httpClient    *http.Client
	mu            sync.Mutex
}

func NewAuthenticationManager(store CredentialStore, cfg config.TwitchConfig, httpClient *http.Client) *AuthenticationManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = config.DefaultAuthURL
	}
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = config.DefaultValidateURL
	}

	return &AuthenticationManager{
		store:         store,
		authURL:       cfg.AuthURL,
		validateURL:   cfg.ValidateURL,
		refreshMargin: cfg.RefreshMargin,
		httpClient:    httpClient,
	}
}

// AcquireToken exchanges the client credentials for an app access token and
// persists the result in the auth section.
func (a *AuthenticationManager) AcquireToken(ctx context.Context, clientID, clientSecret string) (settings.AuthConfig, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.acquire(ctx, clientID, clientSecret)
}

func (a *AuthenticationManager) acquire(ctx context.Context, clientID, clientSecret string) (settings.AuthConfig, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)

	if clientID == "" || clientSecret == "" {
		return settings.AuthConfig{}, ErrMissingCredentials
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     a.authURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := cc.Token(ctx)
	if err != nil {
		return settings.AuthConfig{}, classifyTokenError(err)
	}

	auth := settings.AuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AccessToken:  tok.AccessToken,
		ExpiresAt:    tok.Expiry,
	}

	if err := a.store.SaveAuth(auth); err != nil {
		return settings.AuthConfig{}, err
	}

	slog.Info("acquired twitch access token", slog.Time("expires_at", auth.ExpiresAt))

	return auth, nil
}

func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return fmt.Errorf("%w: failed to generate token: %s", ErrRequestFailed, re.Response.Status)
	}

	msg := err.Error()
	if strings.Contains(msg, "missing access_token") || strings.Contains(msg, "cannot parse json") {
		return fmt.Errorf("%w: %s", ErrInvalidResponse, msg)
	}

	return fmt.Errorf("%w: failed to generate token: %w", ErrRequestFailed, err)
}

// Token returns the stored access token, renewing it with the stored
// credentials when it is absent or about to expire.
func (a *AuthenticationManager) Token(ctx context.Context) (*AccessToken, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	auth := a.store.Auth()

	if auth.AccessToken != "" && (auth.ExpiresAt.IsZero() || time.Until(auth.ExpiresAt) > a.refreshMargin) {
		return &AccessToken{Token: auth.AccessToken, Expiry: auth.ExpiresAt}, nil
	}

	slog.Info("renewing twitch access token", slog.Time("expires_at", auth.ExpiresAt))

	renewed, err := a.acquire(ctx, auth.ClientID, auth.ClientSecret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{Token: renewed.AccessToken, Expiry: renewed.ExpiresAt}, nil
}

// Validate asks the platform whether the stored token is still accepted and
// returns its remaining lifetime.
func (a *AuthenticationManager) Validate(ctx context.Context) (time.Duration, error) {
	auth := a.store.Auth()
	if auth.AccessToken == "" {
		return 0, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.validateURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "OAuth "+auth.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return 0, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
	}

	var v validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return time.Duration(v.ExpiresIn) * time.Second, nil
}

func (a *AuthenticationManager) GetClientId() string {
	return a.store.Auth().ClientID
}
