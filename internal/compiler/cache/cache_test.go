package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nino-go/nino/internal/compiler/metadata"
)

func record(name string, memberNames ...string) *metadata.NinoType {
	t := &metadata.NinoType{Info: metadata.TypeInfo{
		FullName: name,
		TypeID:   metadata.TypeIDOf(name),
	}}
	for _, m := range memberNames {
		t.Members = append(t.Members, metadata.NinoMember{
			Name: m,
			Type: metadata.TypeInfo{FullName: "int32", TypeID: metadata.TypeIDOf("int32"), Kind: metadata.KindInt32},
		})
	}
	return t
}

func TestHashBatchOrderIndependent(t *testing.T) {
	h := NewHasher()
	a, b := record("game.A", "X"), record("game.B", "Y")

	h1 := h.HashBatch([]*metadata.NinoType{a, b})
	h2 := h.HashBatch([]*metadata.NinoType{b, a})
	assert.Equal(t, h1, h2)
}

func TestHashBatchContentSensitive(t *testing.T) {
	h := NewHasher()
	before := h.HashBatch([]*metadata.NinoType{record("game.A", "X")})
	after := h.HashBatch([]*metadata.NinoType{record("game.A", "X", "Y")})
	assert.NotEqual(t, before, after)
}

func TestFreshness(t *testing.T) {
	c := NewGenerationCache()
	assert.False(t, c.Fresh("github.com/acme/game", "h1"), "first sight is a miss")
	assert.True(t, c.Fresh("github.com/acme/game", "h1"), "same hash is a hit")
	assert.False(t, c.Fresh("github.com/acme/game", "h2"), "changed hash is a miss")
	assert.True(t, c.Fresh("github.com/acme/game", "h2"))

	c.Invalidate("github.com/acme/game")
	assert.False(t, c.Fresh("github.com/acme/game", "h2"))
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nino-cache.json")

	c := LoadGenerationCache(path)
	c.Fresh("github.com/acme/game", "h1")
	require.NoError(t, c.Save())

	reloaded := LoadGenerationCache(path)
	assert.True(t, reloaded.Fresh("github.com/acme/game", "h1"))
}

func TestLoadMissingFileYieldsEmptyCache(t *testing.T) {
	c := LoadGenerationCache(filepath.Join(t.TempDir(), "absent.json"))
	assert.False(t, c.Fresh("p", "h"))
}

func TestMetrics(t *testing.T) {
	m := &GenerationMetrics{TotalPackages: 4, CacheHits: 3, CacheMisses: 1}
	assert.InDelta(t, 75.0, m.CacheHitRate(), 0.001)

	empty := &GenerationMetrics{}
	assert.Zero(t, empty.CacheHitRate())
}
