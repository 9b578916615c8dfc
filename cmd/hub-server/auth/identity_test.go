package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signSession(t *testing.T, secret, subject, email string, expiry time.Time) string {
	t.Helper()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func testAuth(secret string) *IdentityAuth {
	return &IdentityAuth{
		jwtSecret:     secret,
		sessionCookie: defaultSessionCookie,
	}
}

func TestVerifyTokenValid(t *testing.T) {
	a := testAuth("session-secret")
	token := signSession(t, "session-secret", "user-1", "ada@example.com", time.Now().Add(time.Hour))

	user, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	a := testAuth("session-secret")
	token := signSession(t, "other-secret", "user-1", "", time.Now().Add(time.Hour))

	_, err := a.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	a := testAuth("session-secret")
	token := signSession(t, "session-secret", "user-1", "", time.Now().Add(-time.Hour))

	_, err := a.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	a := testAuth("session-secret")
	token := signSession(t, "session-secret", "", "", time.Now().Add(time.Hour))

	_, err := a.VerifyToken(token)
	assert.Error(t, err)
}

func TestResolveUserFromCookie(t *testing.T) {
	a := testAuth("session-secret")
	token := signSession(t, "session-secret", "user-2", "", time.Now().Add(time.Hour))

	r := httptest.NewRequest(http.MethodGet, "/callback/slack?code=AUTH123", nil)
	r.AddCookie(&http.Cookie{Name: defaultSessionCookie, Value: token})

	user, err := a.ResolveUser(r)
	require.NoError(t, err)
	assert.Equal(t, "user-2", user.UserID)
}

func TestResolveUserFromBearerHeader(t *testing.T) {
	a := testAuth("session-secret")
	token := signSession(t, "session-secret", "user-3", "", time.Now().Add(time.Hour))

	r := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	user, err := a.ResolveUser(r)
	require.NoError(t, err)
	assert.Equal(t, "user-3", user.UserID)
}

func TestResolveUserNoToken(t *testing.T) {
	a := testAuth("session-secret")

	r := httptest.NewRequest(http.MethodGet, "/callback/slack?code=AUTH123", nil)
	_, err := a.ResolveUser(r)
	assert.Error(t, err)
}

func TestMiddlewareRejectsWithoutSession(t *testing.T) {
	m := RequireAuth(testAuth("session-secret"))
	called := false
	h := m.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/api/connections", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestMiddlewareInjectsUserContext(t *testing.T) {
	a := testAuth("session-secret")
	token := signSession(t, "session-secret", "user-4", "", time.Now().Add(time.Hour))

	m := RequireAuth(a)
	var gotUser *UserContext
	h := m.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = ExtractUserFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	h(httptest.NewRecorder(), r)

	require.NotNil(t, gotUser)
	assert.Equal(t, "user-4", gotUser.UserID)
}
