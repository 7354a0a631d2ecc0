package resources

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher re-probes a resource root when key images appear or disappear, so
// an edited bundle is picked up without a mode flip.
type Watcher struct {
	fw       *fsnotify.Watcher
	logger   zerolog.Logger
	onChange func()
}

// NewWatcher watches root and its group subdirectories. onChange fires
// debounced after any PNG create/remove/rename under them.
func NewWatcher(root string, onChange func(), logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := []string{root, filepath.Join(root, GroupLeft), filepath.Join(root, GroupRight)}
	for _, d := range dirs {
		// Missing directories are fine; the bundle may not ship every group.
		_ = fw.Add(d)
	}

	return &Watcher{
		fw:       fw,
		logger:   logger.With().Str("component", "resource-watcher").Logger(),
		onChange: onChange,
	}, nil
}

// Run processes events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fw.Close()

	var pending *time.Timer
	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".png") {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Resource changed")
			// Editors touch files in bursts; coalesce before re-probing.
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, w.onChange)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Resource watch error")
		}
	}
}
