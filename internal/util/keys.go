package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns prefix + ":" + the first 16 hex chars of a sha256 over parts.
// Parts are separated by 0x1f so ("ab","c") and ("a","bc") differ.
func HashKey(prefix string, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(p))
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}
