// Package watcher ingests resumes dropped into inbox directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const settleDelay = 400 * time.Millisecond

// Sink receives inbox changes. Indexer implements it.
type Sink interface {
	IngestFile(ctx context.Context, path, ownerID string) error
	RemoveFile(ctx context.Context, path string) error
}

// Options describes what to watch.
type Options struct {
	Directories []string
	// Extensions filters files by extension; empty accepts all.
	Extensions []string
	Recursive  bool
	// OwnerID is passed to the sink for every ingested file.
	OwnerID string
}

// inbox is one watched root and the directories registered with fsnotify for it.
type inbox struct {
	root       string
	registered []string
}

// Watcher watches inbox directories and forwards resume file changes to a Sink.
// Writes are debounced per path so a file being copied is ingested once.
type Watcher struct {
	opts   Options
	sink   Sink
	delay  time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	fsw     *fsnotify.Watcher // nil until Start and after Stop
	inboxes []*inbox
	pending map[string]*time.Timer

	quit      chan struct{}
	closeOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the per-file settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// New creates a watcher for opts.Directories that forwards changes to sink.
func New(opts Options, sink Sink, options ...Option) *Watcher {
	w := &Watcher{
		opts:    opts,
		sink:    sink,
		delay:   settleDelay,
		logger:  zap.NewNop(),
		ctx:     context.Background(),
		pending: make(map[string]*time.Timer),
		quit:    make(chan struct{}),
	}
	for _, dir := range opts.Directories {
		w.inboxes = append(w.inboxes, &inbox{root: filepath.Clean(dir)})
	}
	for _, o := range options {
		o(w)
	}
	return w
}

// Start begins watching. Missing inbox directories are created. The watcher runs until
// ctx is cancelled or Stop is called; sink calls use ctx.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, in := range w.inboxes {
		dirs, err := register(fsw, in.root, w.opts.Recursive)
		if err != nil {
			_ = fsw.Close()
			return err
		}
		in.registered = dirs
	}
	w.fsw = fsw
	w.ctx = ctx
	w.logger.Debug("watcher starting",
		zap.Strings("inboxes", w.rootsLocked()),
		zap.Strings("extensions", w.opts.Extensions),
		zap.Bool("recursive", w.opts.Recursive))
	go w.loop(ctx, fsw)
	return nil
}

// register creates root if needed and adds it, plus its subdirectories when recursive,
// to fsw. It returns the registered directories.
func register(fsw *fsnotify.Watcher, root string, recursive bool) ([]string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	if !recursive {
		if err := fsw.Add(root); err != nil {
			return nil, err
		}
		return []string{root}, nil
	}
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if err := fsw.Add(p); err != nil {
			return err
		}
		dirs = append(dirs, p)
		return nil
	})
	return dirs, err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.quit:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.dispatch(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) dispatch(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.watched(path) {
		return
	}
	w.logger.Debug("inbox event", zap.String("op", ev.Op.String()), zap.String("path", path))

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		// Renames report the old name; the new one arrives as Create.
		w.unschedule(path)
		if w.accept(path) {
			w.drop(path)
		}
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		w.adoptDirectory(path)
		return
	}
	if w.accept(path) {
		w.schedule(path)
	}
}

// adoptDirectory registers a directory created or moved into an inbox and ingests its files.
func (w *Watcher) adoptDirectory(dir string) {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	if _, err := register(fsw, dir, w.opts.Recursive); err != nil {
		w.logger.Debug("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
	}
	w.scan(dir)
}

func (w *Watcher) watched(path string) bool {
	for _, root := range w.Directories() {
		if isUnder(root, path) {
			return true
		}
	}
	return false
}

// isUnder reports whether path is dir or lies beneath it.
func isUnder(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// accept reports whether path looks like a resume: matching extension and not a hidden
// or office lock file such as "~$resume.docx".
func (w *Watcher) accept(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	return hasExtension(path, w.opts.Extensions)
}

func hasExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, want := range extensions {
		if ext == strings.TrimPrefix(strings.ToLower(want), ".") {
			return true
		}
	}
	return false
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t := w.pending[path]; t != nil {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.deliver(path)
	})
}

func (w *Watcher) unschedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t := w.pending[path]; t != nil {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) deliver(path string) {
	if w.sink == nil {
		return
	}
	if err := w.sink.IngestFile(w.context(), path, w.opts.OwnerID); err != nil {
		w.logger.Warn("failed to ingest inbox file", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("inbox file ingested", zap.String("path", path))
}

func (w *Watcher) drop(path string) {
	if w.sink == nil {
		return
	}
	if err := w.sink.RemoveFile(w.context(), path); err != nil {
		w.logger.Warn("failed to remove inbox file", zap.String("path", path), zap.Error(err))
	}
}

func (w *Watcher) context() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctx
}

// scan ingests the accepted files under root, descending only when recursive.
func (w *Watcher) scan(root string) {
	w.logger.Debug("scanning inbox", zap.String("root", root))
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && p != root && !w.opts.Recursive:
			return filepath.SkipDir
		case d.IsDir():
			return nil
		case w.accept(p):
			w.deliver(p)
		}
		return nil
	})
}

// AddDirectory starts watching another inbox and optionally ingests the files already in it.
// It is a no-op before Start or when the directory is already watched.
func (w *Watcher) AddDirectory(dir string, syncExisting bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil || w.indexLocked(abs) >= 0 {
		return nil
	}
	registered, err := register(w.fsw, abs, w.opts.Recursive)
	if err != nil {
		return err
	}
	w.inboxes = append(w.inboxes, &inbox{root: abs, registered: registered})
	w.logger.Debug("inbox added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting {
		go w.scan(abs)
	}
	return nil
}

// RemoveDirectory stops watching dir. Resumes already ingested from it are kept.
func (w *Watcher) RemoveDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return nil
	}
	i := w.indexLocked(abs)
	if i < 0 {
		return nil
	}
	for _, p := range w.inboxes[i].registered {
		_ = w.fsw.Remove(p)
	}
	w.inboxes = append(w.inboxes[:i], w.inboxes[i+1:]...)
	w.logger.Debug("inbox removed", zap.String("path", abs))
	return nil
}

func (w *Watcher) indexLocked(abs string) int {
	abs = filepath.Clean(abs)
	for i, in := range w.inboxes {
		if in.root == abs {
			return i
		}
	}
	return -1
}

func (w *Watcher) rootsLocked() []string {
	roots := make([]string, len(w.inboxes))
	for i, in := range w.inboxes {
		roots[i] = in.root
	}
	return roots
}

// Directories returns the watched inbox directories.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rootsLocked()
}

// SyncExistingFiles ingests every accepted file already present in the inboxes.
// Call it after Start.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		w.scan(root)
	}
}

// Stop cancels pending ingests and closes the fsnotify watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.mu.Unlock()
	w.closeOnce.Do(func() { close(w.quit) })
}
