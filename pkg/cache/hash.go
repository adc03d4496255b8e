package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key hashes an arbitrary string into a fixed-width cache key.
// The full SHA-256 digest (64 hex characters) is used so distinct inputs
// cannot collide in practice.
func Key(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
