package errors

import (
	"strings"
	"testing"

	"github.com/nino-go/nino/internal/compiler/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticFormat(t *testing.T) {
	d := NewMissingMember("game.Player", "Inventory", "game.Bag", metadata.SourceLocation{File: "player.go", Line: 12, Column: 2})

	out := d.Format()
	assert.Contains(t, out, "GEN301")
	assert.Contains(t, out, "game.Player")
	assert.Contains(t, out, "player.go:12:2")
	assert.Contains(t, out, "hint:")
}

func TestDiagnosticToJSON(t *testing.T) {
	d := NewEmissionFailed("game.Player", metadata.SourceLocation{}, "stack trace here")
	js, err := d.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"code": "GEN302"`)
	assert.Contains(t, js, `"severity": "warning"`)
	assert.Contains(t, js, "stack trace here")
}

func TestSourceLocationString(t *testing.T) {
	assert.Equal(t, "<unknown>", metadata.SourceLocation{}.String())
	assert.Equal(t, "a.go:3:7", metadata.SourceLocation{File: "a.go", Line: 3, Column: 7}.String())
}

func TestCollector(t *testing.T) {
	var c Collector
	assert.False(t, c.HasErrors())

	c.Add(NewMissingMember("T", "M", "U", metadata.SourceLocation{}))
	assert.False(t, c.HasErrors())

	c.Add(NewBadDirective("T", metadata.SourceLocation{}, "//nino:type bogus==1"))
	assert.True(t, c.HasErrors())
	assert.Len(t, c.All(), 2)
}

func TestDiagnosticImplementsError(t *testing.T) {
	var err error = NewNoFactory("T", metadata.SourceLocation{})
	assert.True(t, strings.Contains(err.Error(), "EXT104") || strings.Contains(err.Error(), "factory"))
}
