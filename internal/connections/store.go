package connections

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/flowai-hub/flowai-hub/internal/crypto"
)

// Store persists provider connections in Postgres with an optional Redis
// cache in front of the per-user listing.
type Store struct {
	db            *sql.DB
	redis         *redis.Client
	encryptionKey string
	cacheTTL      time.Duration
}

// NewStoreFromEnv initializes the connection store using Postgres and
// optional Redis.
func NewStoreFromEnv() (*Store, error) {
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	encryptionKey := os.Getenv("CONNECTIONS_ENCRYPTION_KEY")
	if encryptionKey == "" {
		return nil, fmt.Errorf("CONNECTIONS_ENCRYPTION_KEY is required")
	}

	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(parseEnvInt("DB_MAX_OPEN_CONNS", 25))
	db.SetMaxIdleConns(parseEnvInt("DB_MAX_IDLE_CONNS", 5))
	db.SetConnMaxLifetime(parseEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute))

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &Store{
		db:            db,
		encryptionKey: encryptionKey,
		cacheTTL:      parseEnvDuration("CONNECTIONS_CACHE_TTL", 30*time.Second),
	}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		store.redis = redis.NewClient(opts)
		if err := store.redis.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
	}

	return store, nil
}

// Redis returns the Redis client when configured, for collaborators that
// share the connection (the CSRF state store).
func (s *Store) Redis() *redis.Client {
	return s.redis
}

// UpsertConnection encrypts the tokens and writes the connection. The upsert
// is atomic per (user_id, provider); the last writer wins, so two concurrent
// re-authorizations can never interleave into a mixed record.
func (s *Store) UpsertConnection(ctx context.Context, conn *Connection) error {
	encryptedAccess, err := crypto.Encrypt(conn.AccessToken, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	var encryptedRefresh sql.NullString
	if conn.RefreshToken != "" {
		value, err := crypto.Encrypt(conn.RefreshToken, s.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		encryptedRefresh = sql.NullString{String: value, Valid: true}
	}

	query := `
		INSERT INTO provider_connections
			(user_id, provider, access_token_encrypted, refresh_token_encrypted, provider_account_id, team_id, team_name, scope, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			access_token_encrypted = EXCLUDED.access_token_encrypted,
			refresh_token_encrypted = EXCLUDED.refresh_token_encrypted,
			provider_account_id = EXCLUDED.provider_account_id,
			team_id = EXCLUDED.team_id,
			team_name = EXCLUDED.team_name,
			scope = EXCLUDED.scope,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, query,
		conn.UserID,
		conn.Provider,
		encryptedAccess,
		encryptedRefresh,
		nullableString(conn.ProviderAccountID),
		nullableString(conn.TeamID),
		nullableString(conn.TeamName),
		nullableString(conn.Scope),
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err != nil {
		return err
	}

	s.invalidateUserCache(ctx, conn.UserID)
	return nil
}

// ListConnections returns a user's connections without token material, for
// the dashboard's connected indicators.
func (s *Store) ListConnections(ctx context.Context, userID string) ([]Connection, error) {
	if cached, ok := s.cachedConnections(ctx, userID); ok {
		return cached, nil
	}

	query := `
		SELECT user_id, provider, provider_account_id, team_id, team_name, scope, created_at, updated_at
		FROM provider_connections
		WHERE user_id = $1
		ORDER BY provider
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []Connection
	for rows.Next() {
		var conn Connection
		var accountID, teamID, teamName, scope sql.NullString
		if err := rows.Scan(
			&conn.UserID,
			&conn.Provider,
			&accountID,
			&teamID,
			&teamName,
			&scope,
			&conn.CreatedAt,
			&conn.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conn.ProviderAccountID = accountID.String
		conn.TeamID = teamID.String
		conn.TeamName = teamName.String
		conn.Scope = scope.String
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cacheConnections(ctx, userID, conns)
	return conns, nil
}

// GetAccessToken retrieves and decrypts the stored access token for one
// user+provider pair. Downstream workers use this to call the provider APIs.
func (s *Store) GetAccessToken(ctx context.Context, userID, provider string) (string, error) {
	var encrypted string
	query := `
		SELECT access_token_encrypted
		FROM provider_connections
		WHERE user_id = $1 AND provider = $2
	`
	err := s.db.QueryRowContext(ctx, query, userID, provider).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return crypto.Decrypt(encrypted, s.encryptionKey)
}

// Ping verifies database and Redis connectivity.
func (s *Store) Ping() error {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			return err
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(context.Background()).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes connections.
func (s *Store) Close() error {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) cachedConnections(ctx context.Context, userID string) ([]Connection, bool) {
	if s.redis == nil {
		return nil, false
	}
	val, err := s.redis.Get(ctx, userCacheKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var conns []Connection
	if err := json.Unmarshal([]byte(val), &conns); err != nil {
		return nil, false
	}
	return conns, true
}

func (s *Store) cacheConnections(ctx context.Context, userID string, conns []Connection) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(conns)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, userCacheKey(userID), payload, s.cacheTTL).Err()
}

func (s *Store) invalidateUserCache(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, userCacheKey(userID)).Err()
}

func userCacheKey(userID string) string {
	return fmt.Sprintf("connections:user:%s", userID)
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS provider_connections (
		user_id VARCHAR(255) NOT NULL,
		provider VARCHAR(32) NOT NULL,
		access_token_encrypted TEXT NOT NULL,
		refresh_token_encrypted TEXT,
		provider_account_id VARCHAR(255),
		team_id VARCHAR(255),
		team_name VARCHAR(255),
		scope TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, provider)
	);

	CREATE INDEX IF NOT EXISTS idx_provider_connections_user ON provider_connections(user_id);
	`

	_, err := s.db.Exec(query)
	return err
}

var ErrNotFound = &NotFoundError{}

type NotFoundError struct{}

func (e *NotFoundError) Error() string {
	return "connection not found"
}

func nullableString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

func parseEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
