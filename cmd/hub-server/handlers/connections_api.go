package handlers

import (
	"fmt"
	"net/http"

	"github.com/flowai-hub/flowai-hub/cmd/hub-server/auth"
	"github.com/flowai-hub/flowai-hub/internal/connections"
)

// ConnectionsAPIHandler serves the dashboard's connected-provider indicators.
type ConnectionsAPIHandler struct {
	store ConnectionStore
}

// NewConnectionsAPIHandler creates the connections listing handler.
func NewConnectionsAPIHandler(store ConnectionStore) *ConnectionsAPIHandler {
	return &ConnectionsAPIHandler{store: store}
}

// HandleList returns the acting user's connections. Token material never
// leaves the store.
func (h *ConnectionsAPIHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := auth.ExtractUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conns, err := h.store.ListConnections(r.Context(), user.UserID)
	if err != nil {
		fmt.Printf("failed to list connections for user %s: %v\n", user.UserID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list connections"})
		return
	}
	if conns == nil {
		conns = []connections.Connection{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"connections": conns})
}
