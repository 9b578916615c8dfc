package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPage() *PageHandler {
	return &PageHandler{
		identityURL:   "https://identity.flowai-hub.example.com",
		identityKey:   "public-anon-key",
		identityJSURL: defaultIdentityJSURL,
		sessionCookie: "sb-access-token",
	}
}

func servePage(target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	testPage().HandleHome(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHomeWithoutOutcome(t *testing.T) {
	w := servePage("/")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "FlowAI Hub")
	assert.NotContains(t, body, "banner-ok")
	assert.NotContains(t, body, "banner-err")
}

func TestHomeShowsConnectedBanner(t *testing.T) {
	w := servePage("/?slack=connected&team=Acme")

	body := w.Body.String()
	assert.Contains(t, body, "Slack connected (Acme)")
	// The rendered page scrubs the outcome from the URL.
	assert.Contains(t, body, `history.replaceState(null, '', scrubbedUrl)`)
	assert.Contains(t, body, `const scrubbedUrl = "/"`)
}

func TestHomeShowsErrorBanner(t *testing.T) {
	w := servePage("/?zoom=error&message=invalid_grant")

	body := w.Body.String()
	assert.Contains(t, body, "Could not connect Zoom: invalid_grant")
	assert.Contains(t, body, `const scrubbedUrl = "/"`)
}

func TestHomeEscapesOutcomeValues(t *testing.T) {
	w := servePage("/?slack=error&message=%3Cscript%3Ealert(1)%3C/script%3E")

	body := w.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestHomeIgnoresUnknownOutcome(t *testing.T) {
	w := servePage("/?slack=sideways")

	body := w.Body.String()
	assert.NotContains(t, body, "banner-ok")
	assert.NotContains(t, body, "banner-err")
}

func TestHomePreservesUnrelatedQuery(t *testing.T) {
	w := servePage("/?slack=connected&team=Acme&utm_source=launch")

	assert.Contains(t, w.Body.String(), `const scrubbedUrl = "/?utm_source=launch"`)
}

func TestHomeNotFoundElsewhere(t *testing.T) {
	w := servePage("/nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
