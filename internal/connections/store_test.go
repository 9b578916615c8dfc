package connections

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNullableString(t *testing.T) {
	assert.False(t, nullableString("").Valid)

	ns := nullableString("T1")
	assert.True(t, ns.Valid)
	assert.Equal(t, "T1", ns.String)
}

func TestParseEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STORE_INT", "42")
	t.Setenv("TEST_STORE_DURATION", "90s")

	assert.Equal(t, 42, parseEnvInt("TEST_STORE_INT", 7))
	assert.Equal(t, 7, parseEnvInt("TEST_STORE_INT_MISSING", 7))
	assert.Equal(t, 90*time.Second, parseEnvDuration("TEST_STORE_DURATION", time.Minute))
	assert.Equal(t, time.Minute, parseEnvDuration("TEST_STORE_DURATION_MISSING", time.Minute))

	t.Setenv("TEST_STORE_INT", "not a number")
	assert.Equal(t, 7, parseEnvInt("TEST_STORE_INT", 7))
}

func TestNotFoundError(t *testing.T) {
	var notFound *NotFoundError
	assert.True(t, errors.As(ErrNotFound, &notFound))
	assert.EqualError(t, ErrNotFound, "connection not found")
}
