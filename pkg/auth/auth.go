// Package auth provides the authorization header sources backends use to
// authenticate requests. Login flows live elsewhere; this package only turns
// already obtained credentials into header values.
package auth

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// Manager produces the Authorization header of the current session.
type Manager interface {
	// AuthorizationHeader returns the header value, or "" when the session
	// is not authenticated.
	AuthorizationHeader(ctx context.Context) (string, error)
}

// Provider returns the Manager of the active backend, or nil when the user
// is not authenticated.
type Provider interface {
	Get() Manager
}

// Header resolves the Authorization header through provider. A nil provider
// or a nil manager yields "".
func Header(ctx context.Context, provider Provider) (string, error) {
	if provider == nil {
		return "", nil
	}
	manager := provider.Get()
	if manager == nil {
		return "", nil
	}
	return manager.AuthorizationHeader(ctx)
}

// StaticProvider always returns the same manager.
type StaticProvider struct {
	Manager Manager
}

// Get returns the wrapped manager.
func (p StaticProvider) Get() Manager {
	return p.Manager
}

// NoAuth is a Provider for anonymous access.
var NoAuth Provider = StaticProvider{}

// BasicManager authenticates with a user name and password, as Nextcloud
// app passwords do.
type BasicManager struct {
	Username string
	Password string
}

// AuthorizationHeader returns "Basic base64(username:password)".
func (m BasicManager) AuthorizationHeader(_ context.Context) (string, error) {
	if m.Username == "" {
		return "", nil
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(m.Username + ":" + m.Password))
	return "Basic " + credentials, nil
}

// TokenManager authenticates with tokens from an OAuth2 token source. The
// source is responsible for refreshing expired tokens.
type TokenManager struct {
	source oauth2.TokenSource
}

// NewTokenManager creates a manager backed by source. Wrap source with
// oauth2.ReuseTokenSource to avoid a refresh per request.
func NewTokenManager(source oauth2.TokenSource) *TokenManager {
	return &TokenManager{source: source}
}

// NewStaticTokenManager creates a manager for a long lived bearer token.
func NewStaticTokenManager(token string) *TokenManager {
	return NewTokenManager(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

// AuthorizationHeader returns "<token type> <access token>".
func (m *TokenManager) AuthorizationHeader(_ context.Context) (string, error) {
	token, err := m.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain token: %w", err)
	}
	if token.AccessToken == "" {
		return "", nil
	}
	return token.Type() + " " + token.AccessToken, nil
}
