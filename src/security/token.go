package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateToken returns a new opaque API token. The plaintext is shown to the
// caller exactly once; only its hash is persisted.
func GenerateToken() string {
	raw := uuid.NewString() + uuid.NewString()
	return strings.ReplaceAll(raw, "-", "")
}

// HashToken returns the hex-encoded SHA-256 digest of a token, the form stored
// in users.api_token_hash and matched by the auth middleware.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
