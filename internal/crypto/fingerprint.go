package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns the hex BLAKE2b-256 digest of data. It identifies a
// payload in logs and API responses without printing all of it.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 16 hex characters of Fingerprint
func ShortFingerprint(data []byte) string {
	return Fingerprint(data)[:16]
}
