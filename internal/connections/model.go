package connections

import "time"

// Connection links one application user to one third-party provider account.
// Keyed by (UserID, Provider); re-authorization replaces the prior record.
type Connection struct {
	UserID            string    `json:"user_id"`
	Provider          string    `json:"provider"`
	AccessToken       string    `json:"-"`
	RefreshToken      string    `json:"-"`
	ProviderAccountID string    `json:"provider_account_id,omitempty"`
	TeamID            string    `json:"team_id,omitempty"`
	TeamName          string    `json:"team_name,omitempty"`
	Scope             string    `json:"scope,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
