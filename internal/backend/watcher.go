package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Kind identifies which watched source changed.
type Kind int

const (
	KindConfig Kind = iota
	KindCatalog
	KindScripts
	// KindWatch reports failures of the watcher itself.
	KindWatch
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindCatalog:
		return "catalog"
	case KindScripts:
		return "scripts"
	case KindWatch:
		return "watch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event conveys a change (or a watch failure) for one source.
type Event struct {
	Kind Kind
	Path string
	Err  error
}

// Sources lists the paths to watch. Empty entries are skipped. Files are
// watched through their parent directory so editors that replace files on
// save are still observed.
type Sources struct {
	ConfigFile  string
	CatalogFile string
	ScriptsDir  string
}

const defaultDebounce = 150 * time.Millisecond

// Watcher turns filesystem notifications into debounced backend events.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]Kind
	dirs     map[string]Kind
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup
}

// NewWatcher starts watching the given sources. A zero debounce uses the
// default.
func NewWatcher(src Sources, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fs:       fsw,
		files:    map[string]Kind{},
		dirs:     map[string]Kind{},
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, 16),
	}

	watched := map[string]bool{}
	addDir := func(dir string) error {
		if watched[dir] {
			return nil
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched[dir] = true
		return nil
	}
	for path, kind := range map[string]Kind{src.ConfigFile: KindConfig, src.CatalogFile: KindCatalog} {
		if path == "" {
			continue
		}
		abs := filepath.Clean(path)
		if err := addDir(filepath.Dir(abs)); err != nil {
			fsw.Close()
			cancel()
			return nil, err
		}
		w.files[abs] = kind
	}
	if src.ScriptsDir != "" {
		dir := filepath.Clean(src.ScriptsDir)
		if err := addDir(dir); err != nil {
			fsw.Close()
			cancel()
			return nil, err
		}
		w.dirs[dir] = KindScripts
	}

	w.wg.Add(1)
	go w.run()

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w, nil
}

// Events returns a channel of backend events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. Use Wait if a clean drain is required.
func (w *Watcher) Stop() {
	w.cancel()
}

// Wait blocks until the watch loop has exited and the events channel is
// closed.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) classify(name string) (Kind, bool) {
	name = filepath.Clean(name)
	if kind, ok := w.files[name]; ok {
		return kind, true
	}
	if kind, ok := w.dirs[filepath.Dir(name)]; ok {
		return kind, true
	}
	return 0, false
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer w.fs.Close()

	timers := map[Kind]*time.Timer{}
	paths := map[Kind]string{}
	fire := make(chan Kind, 8)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	emit := func(evt Event) bool {
		select {
		case <-w.ctx.Done():
			return false
		case w.events <- evt:
			return true
		}
	}

	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			kind, ok := w.classify(ev.Name)
			if !ok {
				continue
			}
			paths[kind] = ev.Name
			if t, ok := timers[kind]; ok {
				// A timer that already fired has a send pending on fire
				// which covers this change.
				if t.Stop() {
					t.Reset(w.debounce)
				}
				continue
			}
			k := kind
			timers[kind] = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- k:
				case <-w.ctx.Done():
				}
			})
		case kind := <-fire:
			delete(timers, kind)
			if !emit(Event{Kind: kind, Path: paths[kind]}) {
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if !emit(Event{Kind: KindWatch, Err: err}) {
				return
			}
		}
	}
}
