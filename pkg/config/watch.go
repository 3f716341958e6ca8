package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/go-drift/immediate/pkg/core"
)

// ThemeWatcher reloads a theme file whenever it is written. It watches the
// parent directory, so saves that rename over the file are seen too.
type ThemeWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan core.Defaults
	errs    chan error
}

// WatchTheme starts watching the theme at path.
func WatchTheme(path string) (*ThemeWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, themeError(err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, themeError(fmt.Errorf("watch %s: %w", path, err))
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, themeError(fmt.Errorf("watch %s: %w", path, err))
	}
	tw := &ThemeWatcher{
		path:    abs,
		watcher: w,
		updates: make(chan core.Defaults, 1),
		errs:    make(chan error, 1),
	}
	go tw.run()
	return tw, nil
}

// Updates delivers the defaults of each successful reload. Only the
// latest reload is kept when the receiver falls behind. The channel is
// closed by Close.
func (tw *ThemeWatcher) Updates() <-chan core.Defaults { return tw.updates }

// Errors delivers reload and watch failures. Errors are dropped while one
// is pending.
func (tw *ThemeWatcher) Errors() <-chan error { return tw.errs }

// Close stops watching.
func (tw *ThemeWatcher) Close() error { return tw.watcher.Close() }

func (tw *ThemeWatcher) run() {
	defer close(tw.updates)
	defer close(tw.errs)
	for {
		select {
		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != tw.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			d, err := LoadTheme(tw.path)
			if err != nil {
				tw.report(err)
				continue
			}
			// Replace a pending update with the newer one.
			select {
			case <-tw.updates:
			default:
			}
			tw.updates <- d
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.report(themeError(err))
		}
	}
}

func (tw *ThemeWatcher) report(err error) {
	select {
	case tw.errs <- err:
	default:
	}
}
