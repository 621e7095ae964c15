package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex digests input with SHA-256 and hex-encodes the result. Refresh
// tokens and idempotency keys are stored in this form, never raw.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
