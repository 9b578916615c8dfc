package outcome

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnected(t *testing.T) {
	u, err := url.Parse("/?slack=connected&team=Acme")
	require.NoError(t, err)

	o, ok := Parse(u.Query())
	require.True(t, ok)
	assert.Equal(t, "slack", o.Provider)
	assert.Equal(t, StatusConnected, o.Status)
	assert.Equal(t, "Acme", o.Team)
}

func TestParseError(t *testing.T) {
	u, err := url.Parse("/?zoom=error&message=invalid_grant")
	require.NoError(t, err)

	o, ok := Parse(u.Query())
	require.True(t, ok)
	assert.Equal(t, "zoom", o.Provider)
	assert.Equal(t, StatusError, o.Status)
	assert.Equal(t, "invalid_grant", o.Message)
}

func TestParseUnrecognizedStatus(t *testing.T) {
	u, err := url.Parse("/?slack=pending")
	require.NoError(t, err)

	_, ok := Parse(u.Query())
	assert.False(t, ok)
}

func TestParseUnknownProviderIgnored(t *testing.T) {
	u, err := url.Parse("/?teams=connected")
	require.NoError(t, err)

	_, ok := Parse(u.Query())
	assert.False(t, ok)
}

func TestParseNoParams(t *testing.T) {
	u, err := url.Parse("/")
	require.NoError(t, err)

	_, ok := Parse(u.Query())
	assert.False(t, ok)
}

func TestStripRemovesOutcomeParams(t *testing.T) {
	u, err := url.Parse("/?slack=connected&team=Acme")
	require.NoError(t, err)

	assert.Equal(t, "/", Strip(u))
}

func TestStripKeepsUnrelatedParams(t *testing.T) {
	u, err := url.Parse("/?zoom=error&message=denied&ref=launch")
	require.NoError(t, err)

	assert.Equal(t, "/?ref=launch", Strip(u))
}

// Viewing is idempotent: once stripped, a reload of the same URL must not
// produce a banner again.
func TestStripThenParse(t *testing.T) {
	u, err := url.Parse("/?slack=connected&team=Acme")
	require.NoError(t, err)

	stripped, err := url.Parse(Strip(u))
	require.NoError(t, err)

	_, ok := Parse(stripped.Query())
	assert.False(t, ok)
}

func TestBuildRedirect(t *testing.T) {
	got := BuildRedirect("/", Outcome{Provider: "slack", Status: StatusConnected, Team: "Acme"})
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "connected", u.Query().Get("slack"))
	assert.Equal(t, "Acme", u.Query().Get("team"))
}

func TestBuildRedirectEscapesMessage(t *testing.T) {
	got := BuildRedirect("/", Outcome{Provider: "zoom", Status: StatusError, Message: "bad scope & more"})
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "error", u.Query().Get("zoom"))
	assert.Equal(t, "bad scope & more", u.Query().Get("message"))
}
