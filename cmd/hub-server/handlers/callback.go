package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/flowai-hub/flowai-hub/cmd/hub-server/auth"
	"github.com/flowai-hub/flowai-hub/internal/connections"
	"github.com/flowai-hub/flowai-hub/internal/events"
	"github.com/flowai-hub/flowai-hub/internal/outcome"
	"github.com/flowai-hub/flowai-hub/internal/providers"
)

// ConnectionStore is the persistence contract the callback flow needs.
type ConnectionStore interface {
	UpsertConnection(ctx context.Context, conn *connections.Connection) error
	ListConnections(ctx context.Context, userID string) ([]connections.Connection, error)
}

// UserResolver resolves the acting user from the incoming request's session.
type UserResolver func(r *http.Request) (*auth.UserContext, error)

// CallbackHandler processes one provider's OAuth redirect: it exchanges the
// authorization code for tokens, persists the connection, and sends the
// browser back to the application root with the outcome in the URL.
type CallbackHandler struct {
	provider    *providers.Provider
	store       ConnectionStore
	states      *connections.StateStore
	events      *events.Publisher
	resolveUser UserResolver
	appRoot     string
}

// NewCallbackHandler creates a callback handler for one provider.
func NewCallbackHandler(provider *providers.Provider, store ConnectionStore, states *connections.StateStore, publisher *events.Publisher, resolveUser UserResolver) *CallbackHandler {
	return &CallbackHandler{
		provider:    provider,
		store:       store,
		states:      states,
		events:      publisher,
		resolveUser: resolveUser,
		appRoot:     "/",
	}
}

// HandleCallback is the provider redirect entry point. Exactly one outcome
// redirect is issued per invocation; the only non-redirect responses are the
// 400 for a malformed request and the 500 for an internal failure.
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	// The provider reports consent denial and its own errors in-band; no
	// exchange is attempted for those.
	if errParam := query.Get("error"); errParam != "" {
		detail := query.Get("error_description")
		if detail == "" {
			detail = errParam
		}
		fmt.Printf("%s callback error from provider: %s\n", h.provider.Key, errParam)
		h.redirectOutcome(w, r, outcome.StatusError, detail, "")
		return
	}

	code := query.Get("code")
	if code == "" {
		// Neither code nor error: not a provider redirect. Don't redirect a
		// broken caller to the app root, surface the bug instead.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no code provided"})
		return
	}

	// CSRF state is issued by the connect-start endpoint. A callback without
	// state is still accepted; a callback with a state we never issued is not.
	if state := query.Get("state"); state != "" && h.states != nil {
		if !h.states.Consume(r.Context(), state, h.provider.Key) {
			fmt.Printf("%s callback error: state mismatch\n", h.provider.Key)
			h.redirectOutcome(w, r, outcome.StatusError, "state_mismatch", "")
			return
		}
	}

	// Resolve the acting user before burning the single-use code.
	user, err := h.resolveUser(r)
	if err != nil {
		fmt.Printf("%s callback error: no session: %v\n", h.provider.Key, err)
		h.redirectOutcome(w, r, outcome.StatusError, "session_expired", "")
		return
	}

	result, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		var exchangeErr *providers.ExchangeError
		if errors.As(err, &exchangeErr) {
			// Codes are single-use; the user must restart the flow to retry.
			fmt.Printf("%s token exchange failed: %v\n", h.provider.Key, err)
			h.redirectOutcome(w, r, outcome.StatusError, exchangeErr.Reason, "")
			return
		}
		fmt.Printf("%s callback internal error: %v\n", h.provider.Key, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("failed to connect %s", h.provider.Key),
		})
		return
	}

	conn := &connections.Connection{
		UserID:            user.UserID,
		Provider:          h.provider.Key,
		AccessToken:       result.AccessToken,
		RefreshToken:      result.RefreshToken,
		ProviderAccountID: result.ProviderAccountID,
		TeamID:            result.TeamID,
		TeamName:          result.TeamName,
		Scope:             result.Scope,
	}

	if err := h.store.UpsertConnection(r.Context(), conn); err != nil {
		// A valid token now exists unreferenced; log this distinctly.
		fmt.Printf("%s connection store failure for user %s (token obtained but not persisted): %v\n", h.provider.Key, user.UserID, err)
		h.redirectOutcome(w, r, outcome.StatusError, "could not save connection", "")
		return
	}

	if err := h.events.PublishUpserted(r.Context(), user.UserID, h.provider.Key, result.TeamID); err != nil {
		fmt.Printf("%s connection event publish failed: %v\n", h.provider.Key, err)
	}

	h.redirectOutcome(w, r, outcome.StatusConnected, "", result.TeamName)
}

func (h *CallbackHandler) redirectOutcome(w http.ResponseWriter, r *http.Request, status outcome.Status, message, team string) {
	target := outcome.BuildRedirect(h.appRoot, outcome.Outcome{
		Provider: h.provider.Key,
		Status:   status,
		Message:  message,
		Team:     team,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
