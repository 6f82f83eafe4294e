package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"player.go", true},
		{"dir/player.go", true},
		{"nino.gen.go", false},
		{"notes.txt", false},
		{".hidden.go", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevant(tt.path), tt.path)
	}
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "model.go")
	require.NoError(t, os.WriteFile(src, []byte("package model\n"), 0o644))

	var rebuilds atomic.Int32
	w := New([]string{dir}, func(ctx context.Context) error {
		rebuilds.Add(1)
		return nil
	}, nil)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Initial generation fires immediately.
	require.Eventually(t, func() bool { return rebuilds.Load() >= 1 }, time.Second, 10*time.Millisecond)

	// A burst of writes debounces into one extra rebuild.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(src, []byte("package model\n// edit\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return rebuilds.Load() >= 2 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
