package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sealed, err := Encrypt("xoxb-abc", "test-key")
	require.NoError(t, err)
	assert.NotEqual(t, "xoxb-abc", sealed)

	opened, err := Decrypt(sealed, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-abc", opened)
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := Encrypt("xoxb-abc", "test-key")
	require.NoError(t, err)

	_, err = Decrypt(sealed, "other-key")
	assert.Error(t, err)
}

func TestEncryptEmptyKey(t *testing.T) {
	_, err := Encrypt("value", "")
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	_, err := Decrypt("not base64!!", "test-key")
	assert.Error(t, err)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := Encrypt("value", "test-key")
	require.NoError(t, err)
	b, err := Encrypt("value", "test-key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
