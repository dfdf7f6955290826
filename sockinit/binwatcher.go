package sockinit

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// BinWatcher watches the service binary directory and journals changes to
// it. The supervisor never acts on these events: the registry is sealed
// and binaries are resolved at spawn time, so a swapped binary simply
// takes effect on the next activation.
type BinWatcher struct {
	w   *fsnotify.Watcher
	j   Journaler
	dir string
}

// TryWatch attempts to watch the given directory asynchronously, but it
// will log into the journaler if, for some reason, it fails to watch the
// directory.
func TryWatch(ctx context.Context, dir string, j Journaler) *BinWatcher {
	w := newBinWatcher(dir, j)

	go func() {
		if err := w.init(); err != nil {
			j.Write(&EventWarning{
				Component: "binwatcher",
				Error:     fmt.Sprintf("not watching dir because: %v", err),
			})
			return
		}

		w.watch(ctx)
	}()

	return w
}

// NewBinWatcher watches the given directory and journals binary changes.
// The watcher is stopped once the given context is canceled.
func NewBinWatcher(ctx context.Context, dir string, j Journaler) (*BinWatcher, error) {
	w := newBinWatcher(dir, j)
	if err := w.init(); err != nil {
		return nil, err
	}

	go w.watch(ctx)
	return w, nil
}

func newBinWatcher(dir string, j Journaler) *BinWatcher {
	return &BinWatcher{
		w:   nil,
		j:   j,
		dir: dir,
	}
}

func (w *BinWatcher) init() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}

	if err := watcher.Add(w.dir); err != nil {
		return errors.Wrap(err, "failed to watch dir")
	}

	w.w = watcher
	return nil
}

func (w *BinWatcher) watch(ctx context.Context) {
	defer w.w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-w.w.Errors:
			w.j.Write(&EventWarning{
				Component: "binwatcher",
				Error:     "inotify error: " + err.Error(),
			})

		case evt := <-w.w.Events:
			event := translateFsnotifyEvt(evt)
			if event == nil {
				w.j.Write(&EventWarning{
					Component: "binwatcher",
					Error:     fmt.Sprintf("skipped unknown %s event at %q", evt.Op, evt.Name),
				})

				continue
			}

			w.j.Write(event)
		}
	}
}

// translateFsnotifyEvt translates an fsnotify event into an
// EventBinaryListModify event.
func translateFsnotifyEvt(evt fsnotify.Event) *EventBinaryListModify {
	name := filepath.Base(evt.Name)

	switch {
	case evt.Op&fsnotify.Write != 0:
		return &EventBinaryListModify{Op: BinaryListUpdate, File: name}

	case evt.Op&fsnotify.Create != 0:
		return &EventBinaryListModify{Op: BinaryListAdd, File: name}

	case evt.Op&fsnotify.Rename != 0:
		// Treat a rename as a remove; fsnotify does not report renames
		// properly, so it's apparently treated like a remove.
		// See: https://github.com/fsnotify/fsnotify/issues/26

		fallthrough
	case evt.Op&fsnotify.Remove != 0:
		return &EventBinaryListModify{Op: BinaryListRemove, File: name}
	}

	return nil
}
