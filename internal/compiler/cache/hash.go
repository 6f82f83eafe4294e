// Package cache provides incremental generation support: content
// hashing of extracted type batches and a persistent record of what was
// emitted last run, so unchanged packages skip emission entirely. The
// whole pipeline past projection is a pure function of value records,
// which is what makes the batch hash a sound cache key.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/nino-go/nino/internal/compiler/metadata"
)

// Hasher computes content hashes for cache keys.
type Hasher struct{}

// NewHasher creates a new hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashString computes a SHA-256 hash of the given content.
func (h *Hasher) HashString(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// HashBatch computes the cache key for a batch of extracted records.
// The records are canonicalized and sorted first, so the hash depends
// only on observable content, never on extraction order.
func (h *Hasher) HashBatch(types []*metadata.NinoType) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, t.CanonicalString())
	}
	sort.Strings(parts)

	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write([]byte(p))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
