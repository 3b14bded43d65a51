package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns the hex sha256 of s. Used to fingerprint inputs
// without storing them.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
