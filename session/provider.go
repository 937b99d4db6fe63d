package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// IdentityProvider looks a credential token up with the external identity
// service. A nil record with a nil error means the credential resolved to no
// session; an error means the provider could not be consulted at all.
type IdentityProvider interface {
	GetSession(ctx context.Context, token string) (*Record, error)
}

// HTTPIdentityProvider implements IdentityProvider against an HTTP identity
// service that accepts a bearer credential and returns the session's user.
type HTTPIdentityProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPIdentityProvider creates a provider for the identity service at
// baseURL. A nil client falls back to a default with a 10s timeout.
func NewHTTPIdentityProvider(baseURL string, client *http.Client) *HTTPIdentityProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPIdentityProvider{baseURL: baseURL, client: client}
}

// GetSession calls GET {baseURL}/session with the bearer token. 200 yields a
// user-bearing record, 204 and 401 yield no session, anything else is a
// provider error.
func (p *HTTPIdentityProvider) GetSession(ctx context.Context, token string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/session", nil)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user UserSummary
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("identity response: %w", err)
		}
		return &Record{Token: token, User: &user}, nil
	case http.StatusNoContent, http.StatusUnauthorized:
		return nil, nil
	default:
		return nil, fmt.Errorf("identity lookup: unexpected status %d", resp.StatusCode)
	}
}
