package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// zoomTokenResponse mirrors the /oauth/token payload. Zoom signals logical
// failure with a non-200 status carrying a reason field.
type zoomTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
}

type zoomErrorResponse struct {
	Reason string `json:"reason"`
	Err    string `json:"error"`
}

func parseZoomToken(statusCode int, body []byte) (*TokenResult, error) {
	if statusCode != http.StatusOK {
		var payload zoomErrorResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, &ExchangeError{Reason: fmt.Sprintf("status %d", statusCode)}
		}
		reason := payload.Reason
		if reason == "" {
			reason = payload.Err
		}
		if reason == "" {
			reason = fmt.Sprintf("status %d", statusCode)
		}
		return nil, &ExchangeError{Reason: reason}
	}

	var payload zoomTokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid zoom token response: %w", err)
	}

	return &TokenResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Scope:        payload.Scope,
		ExpiresIn:    payload.ExpiresIn,
	}, nil
}

// NewZoomProvider builds the Zoom descriptor. Zoom authenticates the token
// request with HTTP Basic and requires an explicit grant_type.
func NewZoomProvider(settings ProviderSettings) *Provider {
	return &Provider{
		Key:          "zoom",
		DisplayName:  "Zoom",
		AuthorizeURL: settings.AuthorizeURL,
		TokenURL:     settings.TokenURL,
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RedirectURI:  settings.RedirectURI,
		Scopes:       settings.Scopes,
		BasicAuth:    true,
		GrantType:    "authorization_code",
		Timeout:      settings.Timeout,
		ParseToken:   parseZoomToken,
	}
}

// DefaultZoomSettings returns Zoom's production endpoints.
func DefaultZoomSettings() ProviderSettings {
	return ProviderSettings{
		AuthorizeURL: "https://zoom.us/oauth/authorize",
		TokenURL:     "https://zoom.us/oauth/token",
		Scopes:       []string{"meeting:read", "recording:read"},
		Timeout:      15 * time.Second,
	}
}
