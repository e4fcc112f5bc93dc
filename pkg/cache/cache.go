// Package cache is the key-value layer that sits in front of the record
// queries. Keys have the shape "{operation}:{scope}:{hash(params)}" so that a
// mutation can drop every entry of a scope with a single prefix delete.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Operation TTLs.
const (
	TTLList   = 5 * time.Minute
	TTLSearch = 3 * time.Minute
	TTLStats  = 10 * time.Minute
	TTLDetail = 15 * time.Minute
)

// Cache is a byte-oriented store with TTL and prefix invalidation.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key derives a deterministic cache key. params is serialized as JSON, which
// sorts map keys and keeps struct field order, and then hashed.
func Key(operation, scope string, params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(raw)
	return ScopePrefix(operation, scope) + hex.EncodeToString(sum[:12])
}

// ScopePrefix is the prefix shared by all keys of one operation and scope.
func ScopePrefix(operation, scope string) string {
	return operation + ":" + scope + ":"
}
