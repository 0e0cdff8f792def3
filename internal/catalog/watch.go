package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/agentic-research/simready/internal/ingest"
	"github.com/agentic-research/simready/internal/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads folders of a local catalog when their listing changes.
type Watcher struct {
	Index *Index
	// Base is the directory folder locators are resolved against.
	Base        string
	ListingFile string
	// Debounce coalesces bursts of events for the same folder.
	Debounce time.Duration
	Log      *log.Logger

	dirs map[string]string // OS dir -> folder locator
}

// Watch runs a Watcher with default settings until ctx is done.
func Watch(ctx context.Context, x *Index, base string, l *log.Logger) error {
	w := &Watcher{Index: x, Base: base, Log: l}
	return w.Run(ctx)
}

func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	l := w.Log.Named("watch")
	listing := w.ListingFile
	if listing == "" {
		listing = ingest.DefaultListingFile
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	w.dirs = map[string]string{}
	w.sync(fw, l)

	dirty := map[string]bool{}
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != listing {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			locator, ok := w.dirs[filepath.Dir(event.Name)]
			if !ok {
				continue
			}
			dirty[locator] = true
			timer = time.After(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			l.Warn("%v", err)
		case <-timer:
			timer = nil
			for locator := range dirty {
				if err := w.Index.Reload(ctx, locator); err != nil {
					l.Warn("reload %s: %v", locator, err)
				}
			}
			clear(dirty)
			w.sync(fw, l)
		}
	}
}

// sync watches the directory of every folder currently in the index.
func (w *Watcher) sync(fw *fsnotify.Watcher, l *log.Logger) {
	for _, root := range w.Index.Roots() {
		f, ok := w.Index.Folder(root)
		if !ok {
			continue
		}
		f.Walk(func(f *ingest.Folder) {
			dir := filepath.Join(w.Base, filepath.FromSlash(f.Locator))
			if _, ok := w.dirs[dir]; ok {
				return
			}
			if err := fw.Add(dir); err != nil {
				l.Debug("watch %s: %v", dir, err)
				return
			}
			w.dirs[dir] = f.Locator
		})
	}
}
