package cache

import (
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// GenerationMetrics tracks one generation run.
type GenerationMetrics struct {
	TotalPackages int
	CacheHits     int
	CacheMisses   int
	TypesEmitted  int
	TotalDuration time.Duration
	StartTime     time.Time
	EndTime       time.Time
}

// CacheHitRate returns the hit rate as a percentage.
func (m *GenerationMetrics) CacheHitRate() float64 {
	if m.TotalPackages == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(m.TotalPackages) * 100.0
}

// GenerationCache remembers the batch hash emitted per package. It is
// safe for concurrent use and optionally persists to disk between runs.
type GenerationCache struct {
	mu      sync.Mutex
	entries map[string]string // package path -> batch hash
	path    string
}

type cacheFile struct {
	Entries map[string]string `json:"entries"`
}

// NewGenerationCache creates an empty in-memory cache.
func NewGenerationCache() *GenerationCache {
	return &GenerationCache{entries: make(map[string]string)}
}

// LoadGenerationCache reads a persisted cache from path. A missing or
// corrupt file yields an empty cache bound to the same path; staleness
// is never an error, just a full regeneration.
func LoadGenerationCache(path string) *GenerationCache {
	c := &GenerationCache{entries: make(map[string]string), path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil || f.Entries == nil {
		return c
	}
	c.entries = f.Entries
	return c
}

// Fresh reports whether pkgPath was last emitted from the same batch
// hash, updating the stored hash otherwise.
func (c *GenerationCache) Fresh(pkgPath, batchHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[pkgPath] == batchHash {
		return true
	}
	c.entries[pkgPath] = batchHash
	return false
}

// Invalidate forgets pkgPath so the next run re-emits it.
func (c *GenerationCache) Invalidate(pkgPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pkgPath)
}

// Save persists the cache when it was loaded from a path. Saving an
// in-memory cache is a no-op.
func (c *GenerationCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(cacheFile{Entries: c.entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
