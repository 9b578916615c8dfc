package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenResult holds the fields extracted from a successful code exchange.
type TokenResult struct {
	AccessToken       string
	RefreshToken      string
	ProviderAccountID string
	TeamID            string
	TeamName          string
	Scope             string
	ExpiresIn         int
}

// ExchangeError is a token-exchange failure the provider reported (or a
// network failure reaching it). The reason is safe to surface in the outcome
// redirect; raw provider responses stay in the server log.
type ExchangeError struct {
	Reason    string
	Transport bool
}

func (e *ExchangeError) Error() string {
	if e.Transport {
		return fmt.Sprintf("token exchange transport failure: %s", e.Reason)
	}
	return fmt.Sprintf("token exchange rejected: %s", e.Reason)
}

// Provider describes one third-party OAuth integration. The callback handler
// is generic over this descriptor; only the request shape and response
// parsing differ between providers.
type Provider struct {
	Key          string // query-parameter key in redirects ("slack", "zoom")
	DisplayName  string
	AuthorizeURL string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	BasicAuth    bool   // send client credentials as an HTTP Basic header instead of form fields
	GrantType    string // included in the form body when non-empty
	Timeout      time.Duration

	// ParseToken interprets the token endpoint response. It returns an
	// *ExchangeError for logical failures the provider signals in-band.
	ParseToken func(statusCode int, body []byte) (*TokenResult, error)
}

// Shared HTTP client with connection pooling
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// BuildAuthorizeURL returns the consent-screen URL for this provider with the
// given CSRF state.
func (p *Provider) BuildAuthorizeURL(state string) string {
	u, err := url.Parse(p.AuthorizeURL)
	if err != nil {
		return p.AuthorizeURL
	}
	q := u.Query()
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("response_type", "code")
	if len(p.Scopes) > 0 {
		q.Set("scope", strings.Join(p.Scopes, ","))
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Exchange performs the single server-to-server POST that trades an
// authorization code for tokens. Codes are single-use, so no retry is ever
// attempted; any failure is terminal for this invocation.
func (p *Provider) Exchange(ctx context.Context, code string) (*TokenResult, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("redirect_uri", p.RedirectURI)
	if p.GrantType != "" {
		form.Set("grant_type", p.GrantType)
	}
	if !p.BasicAuth {
		form.Set("client_id", p.ClientID)
		form.Set("client_secret", p.ClientSecret)
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.BasicAuth {
		req.SetBasicAuth(p.ClientID, p.ClientSecret)
	}

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Reason: "provider unreachable", Transport: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ExchangeError{Reason: "provider response truncated", Transport: true}
	}

	return p.ParseToken(resp.StatusCode, body)
}
