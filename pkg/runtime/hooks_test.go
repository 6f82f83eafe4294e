package runtime

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadHooks(t *testing.T) {
	var fired atomic.Int32
	RegisterLoadHook(func() { fired.Add(1) })

	// Registration runs the hook once immediately.
	assert.Equal(t, int32(1), fired.Load())

	FireLoadHooks()
	assert.GreaterOrEqual(t, fired.Load(), int32(2))
}
