// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It recursively watches a directory tree, filters out VCS, dependency and editor
// scratch files, and debounces rapid events: a path is reported once its
// events have been quiet for the debounce interval (editors often trigger
// multiple writes per save).
package fsnotify

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corey/acscan/internal/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounce is how long a path must be quiet before its callback fires.
const DefaultDebounce = 50 * time.Millisecond

// Directories to ignore when watching.
var ignoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	".venv":        true,
	"__pycache__":  true,
	"vendor":       true,
	".acscan":      true,
}

// Editor scratch files that never hold scan input.
var ignoreSuffixes = []string{
	".swp",
	".swx",
	"~",
	".DS_Store",
}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw         *fsnotify.Watcher
	root       string
	log        zerolog.Logger
	debounce   time.Duration
	excludeDir string
	done       chan struct{}
	stopped    bool
	mu         sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger routes watcher errors to log instead of dropping them.
func WithLogger(log zerolog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExcludeDir skips directories whose base name matches glob.
func WithExcludeDir(glob string) Option {
	return func(w *Watcher) { w.excludeDir = glob }
}

// NewWatcher creates a new file system watcher.
func NewWatcher(opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:       fw,
		log:      zerolog.Nop(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts monitoring root recursively.
// onChange is called with the absolute path of each changed file.
func (w *Watcher) Watch(root string, onChange func(filePath string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if err := w.addTree(absRoot, true); err != nil {
		return err
	}
	w.root = absRoot

	// Timers are owned by the event loop; a fired timer hands its path back
	// through ready so onChange always runs on the loop goroutine.
	pending := make(map[string]*time.Timer)
	ready := make(chan string)

	go func() {
		defer func() {
			for _, t := range pending {
				t.Stop()
			}
		}()
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name

				// New directories join the watch list with everything below them.
				if event.Has(fsnotify.Create) {
					if err := w.addTree(path, false); err != nil {
						w.log.Warn().Err(err).Str("path", path).Msg("watch new directory")
					}
				}

				if w.shouldIgnorePath(path) {
					continue
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}

				if t, ok := pending[path]; ok {
					t.Reset(w.debounce)
					continue
				}
				pending[path] = time.AfterFunc(w.debounce, func() {
					select {
					case ready <- path:
					case <-w.done:
					}
				})

			case path := <-ready:
				delete(pending, path)
				onChange(path)

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				w.log.Warn().Err(err).Msg("fsnotify")

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// addTree watches dir and every non-ignored directory below it. Paths that
// are not directories are ignored. Unreadable subtrees are skipped unless
// strict is set and the root itself fails.
func (w *Watcher) addTree(dir string, strict bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if strict && path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.shouldIgnoreDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// shouldIgnoreDir returns true if the directory name should be skipped.
func (w *Watcher) shouldIgnoreDir(name string) bool {
	if ignoreDirs[name] {
		return true
	}
	if w.excludeDir != "" {
		if ok, _ := filepath.Match(w.excludeDir, name); ok {
			return true
		}
	}
	return false
}

// shouldIgnorePath returns true if the file path should not trigger onChange.
func (w *Watcher) shouldIgnorePath(path string) bool {
	base := filepath.Base(path)
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}

	// Only components below the watched root count.
	dir, err := filepath.Rel(w.root, filepath.Dir(path))
	if err != nil {
		dir = filepath.Dir(path)
	}
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		if part != "" && w.shouldIgnoreDir(part) {
			return true
		}
	}
	return false
}
