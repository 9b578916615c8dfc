package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowai-hub/flowai-hub/internal/connections"
)

func TestConnectRedirectsToConsent(t *testing.T) {
	states := connections.NewStateStore(nil, time.Minute)
	h := NewConnectHandler(slackFor("https://slack.com/api/oauth.v2.access"), states, sessionFor("user-1"))

	w := httptest.NewRecorder()
	h.HandleConnect(w, httptest.NewRequest(http.MethodGet, "/connect/slack", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	path, q := location(t, w)
	assert.Equal(t, "/oauth/v2/authorize", path)
	assert.Equal(t, "slack-client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))

	// The state in the URL was recorded for the callback to consume.
	state := q.Get("state")
	require.NotEmpty(t, state)
	assert.True(t, states.Consume(context.Background(), state, "slack"))
}

func TestConnectRequiresSession(t *testing.T) {
	states := connections.NewStateStore(nil, time.Minute)
	h := NewConnectHandler(slackFor("https://slack.com/api/oauth.v2.access"), states, noSession)

	w := httptest.NewRecorder()
	h.HandleConnect(w, httptest.NewRequest(http.MethodGet, "/connect/slack", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestConnectMethodNotAllowed(t *testing.T) {
	states := connections.NewStateStore(nil, time.Minute)
	h := NewConnectHandler(slackFor("https://slack.com/api/oauth.v2.access"), states, sessionFor("user-1"))

	w := httptest.NewRecorder()
	h.HandleConnect(w, httptest.NewRequest(http.MethodPost, "/connect/slack", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
