// Package watch regenerates serialization artifacts whenever watched
// source changes. It debounces bursts of filesystem events so a save
// that touches several files triggers one regeneration.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches rapid-fire editor events into one rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Watcher monitors directories for Go source changes and invokes a
// rebuild callback.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	log      *zap.Logger
	onChange func(ctx context.Context) error
}

// New creates a watcher over dirs. A nil logger disables logging.
func New(dirs []string, onChange func(ctx context.Context) error, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dirs:     dirs,
		debounce: DefaultDebounce,
		log:      log,
		onChange: onChange,
	}
}

// relevant filters events down to Go source edits, excluding generated
// artifacts so a rebuild does not retrigger itself.
func relevant(path string) bool {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".go") {
		return false
	}
	if strings.HasSuffix(base, ".gen.go") {
		return false
	}
	return !strings.HasPrefix(base, ".")
}

// Run watches until ctx is cancelled. The first rebuild fires
// immediately so the artifacts start fresh.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			w.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	if err := w.onChange(ctx); err != nil {
		w.log.Warn("initial generation failed", zap.Error(err))
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !relevant(ev.Name) {
				continue
			}
			w.log.Debug("source changed", zap.String("file", ev.Name))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.onChange(ctx); err != nil {
				w.log.Warn("regeneration failed", zap.Error(err))
			}
		}
	}
}
