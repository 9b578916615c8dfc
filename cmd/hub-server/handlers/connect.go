package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/flowai-hub/flowai-hub/internal/connections"
	"github.com/flowai-hub/flowai-hub/internal/providers"
)

// ConnectHandler starts the OAuth flow for one provider: it issues a CSRF
// state and sends the signed-in user to the provider's consent screen.
type ConnectHandler struct {
	provider    *providers.Provider
	states      *connections.StateStore
	resolveUser UserResolver
}

// NewConnectHandler creates a connect-start handler for one provider.
func NewConnectHandler(provider *providers.Provider, states *connections.StateStore, resolveUser UserResolver) *ConnectHandler {
	return &ConnectHandler{
		provider:    provider,
		states:      states,
		resolveUser: resolveUser,
	}
}

// HandleConnect redirects to the provider consent screen. The redirect URI
// sent here must match the one used in the token exchange byte for byte.
func (h *ConnectHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := h.resolveUser(r); err != nil {
		// Connecting only makes sense for a signed-in user; bounce to the
		// login page.
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	state := uuid.New().String()
	if err := h.states.Save(r.Context(), state, h.provider.Key); err != nil {
		fmt.Printf("%s connect error: failed to save state: %v\n", h.provider.Key, err)
		http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.provider.BuildAuthorizeURL(state), http.StatusFound)
}
