package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeIDDeterminism(t *testing.T) {
	names := []string{
		"github.com/acme/game.Player",
		"github.com/acme/game.Item",
		"[]*github.com/acme/game.Item",
		"map[int32]string",
		"",
	}

	seen := make(map[uint32]string)
	for _, name := range names {
		first := TypeIDOf(name)
		// The hash depends only on the string: repeated calls agree.
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, TypeIDOf(name), "unstable id for %q", name)
		}
		if prev, ok := seen[first]; ok {
			t.Fatalf("id collision between %q and %q", prev, name)
		}
		seen[first] = name
	}
}

func TestTypeIDNeverNullSentinel(t *testing.T) {
	// The zero id is reserved for the null sentinel.
	for _, name := range []string{"", "a", "ab", "github.com/acme/game.Player"} {
		assert.NotZero(t, TypeIDOf(name))
	}
}

func TestTypeIDSensitivity(t *testing.T) {
	a := TypeIDOf("github.com/acme/game.Player")
	b := TypeIDOf("github.com/acme/game.Player2")
	assert.NotEqual(t, a, b)
}

func TestSanitizeDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"game.Player", "game.Player"},
		{"T[*,*]", "T[,]"},
		{"T[*,*,*]", "T[,,]"},
		{"[]*game.Item", "[]*game.Item"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeDisplayName(tt.in), tt.in)
	}
}

func TestInstanceNameOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"game.Player", "nino__game_player"},
		{"[]*game.Item", "nino_____game_item"},
		{"map[int32]string", "nino__map_int32_string"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InstanceNameOf(tt.in), tt.in)
	}
}
