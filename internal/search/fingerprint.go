package search

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the cache key for a query. The input must already be
// normalized (lower-cased, trimmed) so that trivially different spellings of
// the same question share one cache entry.
func Fingerprint(normalizedQuery string) string {
	sum := sha256.Sum256([]byte(normalizedQuery))
	return hex.EncodeToString(sum[:])
}
