package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Cache defines a write-once byte store. Entries never expire and are
// never replaced once written.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// CacheKey derives the fingerprint of a fully constructed request URL.
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])
}
