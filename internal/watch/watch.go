// Package watch reformats TLA+ files as they change on disk.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long a file must stay quiet before it is reformatted.
// Editors commonly emit several write events per save.
const debounce = 100 * time.Millisecond

// Handler is invoked with the path of a changed file.
type Handler func(path string) error

// Watcher reformats files when the OS reports writes to them.
type Watcher struct {
	w       *fsnotify.Watcher
	handler Handler
	erC     chan error
}

// New creates a watcher over the given files or directories. Directory
// entries are filtered to .tla files.
func New(paths []string, handler Handler) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &Watcher{w: w, handler: handler, erC: make(chan error, 1)}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

// Errors reports handler and watch failures. Failing to format one file
// does not stop the watcher.
func (fw *Watcher) Errors() <-chan error { return fw.erC }

// Run processes events until the context is cancelled.
func (fw *Watcher) Run(ctx context.Context) {
	// Writes are debounced per path so a save producing several events
	// formats once.
	pending := map[string]time.Time{}
	tick := time.NewTicker(debounce / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isSpec(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			fw.report(err)

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < debounce {
					continue
				}
				delete(pending, path)

				if err := fw.handler(path); err != nil {
					fw.report(err)
				}
			}
		}
	}
}

// Close stops the underlying OS watcher.
func (fw *Watcher) Close() error { return fw.w.Close() }

func (fw *Watcher) report(err error) {
	select {
	case fw.erC <- err:
	default:
	}
}

func isSpec(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tla")
}
