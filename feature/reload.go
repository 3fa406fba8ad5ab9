// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/fxgraph"
)

// reloadDebounce coalesces the burst of filesystem events an editor save
// produces into a single reload.
const reloadDebounce = 250 * time.Millisecond

// Reloader watches a bundle directory and reloads it through a Loader when
// manifests change. A reload that fails validation is logged and the
// registry keeps serving the previous bundle.
type Reloader struct {
	loader  *Loader
	dir     string
	watcher *fsnotify.Watcher

	closeOnce sync.Once
	done      chan struct{}
}

// NewReloader starts watching dir for manifest changes. The caller keeps
// ownership of the loader and its registry; Close stops the watch.
func NewReloader(loader *Loader, dir string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	r := &Reloader{
		loader:  loader,
		dir:     dir,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// Close stops watching. Safe to call more than once.
func (r *Reloader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.watcher.Close()
	})
	return err
}

func (r *Reloader) run() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-r.done:
			return

		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !IsManifestPath(ev.Name) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			r.reload()

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			fxgraph.Logger().Warn("bundle watch error", "dir", r.dir, "error", err)
		}
	}
}

func (r *Reloader) reload() {
	if err := r.loader.LoadBundle(os.DirFS(r.dir)); err != nil {
		fxgraph.Logger().Warn("bundle reload rejected, keeping previous feature set",
			"dir", r.dir, "error", err)
		return
	}
	fxgraph.Logger().Info("bundle reloaded", "dir", r.dir)
}
