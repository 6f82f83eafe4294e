package runtime

import "sync"

// Load hooks support host runtimes with their own lifecycle: generated
// registration can be re-fired on scene or level load in addition to
// process start. Hooks are idempotent by construction because the
// registrars they wrap are.
var (
	hooksMu   sync.Mutex
	loadHooks []func()
)

// RegisterLoadHook records fn to run on every FireLoadHooks call and
// runs it once immediately.
func RegisterLoadHook(fn func()) {
	hooksMu.Lock()
	loadHooks = append(loadHooks, fn)
	hooksMu.Unlock()
	fn()
}

// FireLoadHooks replays every registered hook. Host integrations call
// this from their scene-load callback.
func FireLoadHooks() {
	hooksMu.Lock()
	hooks := make([]func(), len(loadHooks))
	copy(hooks, loadHooks)
	hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
