package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Context keys for storing user information
type contextKey string

const (
	UserContextKey contextKey = "user"

	defaultSessionCookie = "sb-access-token"
)

// IdentityAuth verifies session tokens issued by the identity backend. It
// supports the backend's shared-secret HS256 tokens and, when a JWKS URL is
// configured, RS256 tokens verified against the published keys.
type IdentityAuth struct {
	jwtSecret     string
	jwksURL       string
	sessionCookie string
	publicKeys    map[string]*rsa.PublicKey
	keysMutex     sync.RWMutex
}

// UserContext represents the authenticated user the session token resolves to.
type UserContext struct {
	UserID string
	Email  string
}

// SessionClaims represents the identity backend's JWT claims.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// NewIdentityAuth creates the verifier from environment configuration. It
// returns nil when neither a JWT secret nor a JWKS URL is configured.
func NewIdentityAuth() *IdentityAuth {
	jwtSecret := os.Getenv("IDENTITY_JWT_SECRET")
	jwksURL := os.Getenv("IDENTITY_JWKS_URL")
	if jwtSecret == "" && jwksURL == "" {
		return nil
	}

	sessionCookie := os.Getenv("IDENTITY_SESSION_COOKIE")
	if sessionCookie == "" {
		sessionCookie = defaultSessionCookie
	}

	auth := &IdentityAuth{
		jwtSecret:     jwtSecret,
		jwksURL:       jwksURL,
		sessionCookie: sessionCookie,
		publicKeys:    make(map[string]*rsa.PublicKey),
	}

	if jwksURL != "" {
		// Fetch public keys on initialization
		go auth.refreshPublicKeys()
	}

	return auth
}

// ResolveUser resolves the acting user from the incoming request's session
// token (cookie or bearer header). Callback handlers use this to attribute
// the persisted connection.
func (a *IdentityAuth) ResolveUser(r *http.Request) (*UserContext, error) {
	if a == nil {
		return nil, fmt.Errorf("identity authentication not configured")
	}

	token := a.ExtractToken(r)
	if token == "" {
		return nil, fmt.Errorf("no session token")
	}
	return a.VerifyToken(token)
}

// VerifyToken verifies an identity session token.
func (a *IdentityAuth) VerifyToken(tokenString string) (*UserContext, error) {
	if a == nil {
		return nil, fmt.Errorf("identity authentication not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if a.jwtSecret == "" {
				return nil, fmt.Errorf("HS256 tokens not accepted without IDENTITY_JWT_SECRET")
			}
			return []byte(a.jwtSecret), nil
		case *jwt.SigningMethodRSA:
			if a.jwksURL == "" {
				return nil, fmt.Errorf("RS256 tokens not accepted without IDENTITY_JWKS_URL")
			}
			kid, ok := token.Header["kid"].(string)
			if !ok {
				return nil, fmt.Errorf("missing kid in token header")
			}
			return a.getPublicKey(kid)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	})
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}

	return &UserContext{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

// ExtractToken pulls the session token from the Authorization header or the
// session cookie.
func (a *IdentityAuth) ExtractToken(r *http.Request) string {
	if token := ExtractTokenFromHeader(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(a.sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// getPublicKey retrieves a public key by kid
func (a *IdentityAuth) getPublicKey(kid string) (*rsa.PublicKey, error) {
	a.keysMutex.RLock()
	key, exists := a.publicKeys[kid]
	a.keysMutex.RUnlock()

	if exists {
		return key, nil
	}

	// Refresh keys and try again
	if err := a.refreshPublicKeys(); err != nil {
		return nil, err
	}

	a.keysMutex.RLock()
	key, exists = a.publicKeys[kid]
	a.keysMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("public key not found for kid: %s", kid)
	}

	return key, nil
}

// refreshPublicKeys fetches the latest keys from the identity backend's JWKS endpoint
func (a *IdentityAuth) refreshPublicKeys() error {
	req, err := http.NewRequest("GET", a.jwksURL, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch JWKS: status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return err
	}

	a.keysMutex.Lock()
	defer a.keysMutex.Unlock()

	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}

		nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			continue
		}

		var eInt int
		for _, b := range eBytes {
			eInt = eInt<<8 + int(b)
		}

		a.publicKeys[key.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: eInt,
		}
	}

	return nil
}

// WithUser attaches a user context to a request context
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// ExtractUserFromContext extracts user context from request context
func ExtractUserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(UserContextKey).(*UserContext)
	return user, ok
}

// ExtractTokenFromHeader extracts a bearer token from the Authorization header
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
