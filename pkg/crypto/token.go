package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintLength is the number of hex characters kept by Fingerprint.
const FingerprintLength = 12

// HashToken returns the hex SHA-256 of a token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Fingerprint returns a short, non-reversible identifier for a token, safe to log.
// The empty token has the empty fingerprint.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return HashToken(token)[:FingerprintLength]
}
