package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// HashToken returns a hex-encoded SHA-256 hash. State tokens are stored
// hashed so a leaked store never yields usable values.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Encrypt seals a plaintext with a key derived from the configured secret and
// returns it base64-encoded with the nonce prepended. Stored provider tokens
// never hit the database in the clear.
func Encrypt(plaintext, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("encryption key is empty")
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	secret := deriveKey(key)
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &secret)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func Decrypt(ciphertext, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("encryption key is empty")
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	if len(raw) < 24 {
		return "", fmt.Errorf("ciphertext too short")
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])

	secret := deriveKey(key)
	opened, ok := secretbox.Open(nil, raw[24:], &nonce, &secret)
	if !ok {
		return "", fmt.Errorf("decryption failed")
	}
	return string(opened), nil
}

// deriveKey stretches the configured secret into the 32-byte key secretbox
// requires, so operators can use any sufficiently random string.
func deriveKey(key string) [32]byte {
	return sha256.Sum256([]byte(key))
}
