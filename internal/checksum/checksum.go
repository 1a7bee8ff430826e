// Package checksum computes content digests used to detect unchanged files
// and to key cached parses.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String returns the digest of s.
func String(s string) string {
	return Sum([]byte(s))
}

// Same reports whether a and b have equal digests.
func Same(a, b []byte) bool {
	return sha256.Sum256(a) == sha256.Sum256(b)
}
