package providers

import (
	"encoding/json"
	"fmt"
	"time"
)

// slackAccessResponse mirrors the oauth.v2.access payload. Slack signals
// logical failure with ok=false in a 200 response, not with the HTTP status.
type slackAccessResponse struct {
	OK           bool   `json:"ok"`
	Err          string `json:"error"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	AuthedUser   struct {
		ID string `json:"id"`
	} `json:"authed_user"`
	Team struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

func parseSlackToken(statusCode int, body []byte) (*TokenResult, error) {
	var payload slackAccessResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid slack token response: %w", err)
	}

	if !payload.OK {
		reason := payload.Err
		if reason == "" {
			reason = "unknown_error"
		}
		return nil, &ExchangeError{Reason: reason}
	}

	return &TokenResult{
		AccessToken:       payload.AccessToken,
		RefreshToken:      payload.RefreshToken,
		ProviderAccountID: payload.AuthedUser.ID,
		TeamID:            payload.Team.ID,
		TeamName:          payload.Team.Name,
		Scope:             payload.Scope,
	}, nil
}

// NewSlackProvider builds the Slack descriptor. Slack takes client
// credentials in the form body and omits grant_type.
func NewSlackProvider(settings ProviderSettings) *Provider {
	return &Provider{
		Key:          "slack",
		DisplayName:  "Slack",
		AuthorizeURL: settings.AuthorizeURL,
		TokenURL:     settings.TokenURL,
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RedirectURI:  settings.RedirectURI,
		Scopes:       settings.Scopes,
		Timeout:      settings.Timeout,
		ParseToken:   parseSlackToken,
	}
}

// DefaultSlackSettings returns Slack's production endpoints.
func DefaultSlackSettings() ProviderSettings {
	return ProviderSettings{
		AuthorizeURL: "https://slack.com/oauth/v2/authorize",
		TokenURL:     "https://slack.com/api/oauth.v2.access",
		Scopes:       []string{"channels:read", "chat:write", "team:read"},
		Timeout:      15 * time.Second,
	}
}
