// Package watch rebuilds on source changes and serves the output directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
)

var errEventsClosed = errors.New("fsnotify event stream closed")

// DefaultDebounce is the quiet window between the last change and a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Builder runs one build.
type Builder interface {
	Build(ctx context.Context, req pipeline.BuildRequest) (*pipeline.BuildResult, error)
}

// Options configures a Watcher.
type Options struct {
	// Addr is the listen address of the preview server; empty disables it.
	Addr     string
	Debounce time.Duration
	Request  pipeline.BuildRequest
	// Registry backs /metrics; nil serves the default registry.
	Registry *prom.Registry
}

// Watcher rebuilds whenever a file below the source root changes. Builds run
// on a single worker, so they never overlap.
type Watcher struct {
	builder Builder
	opts    Options
	filter  filter
	status  *buildStatus
	deb     *debouncer

	ready chan struct{}
	srv   *server
}

// New creates a watcher for the project described by cfg.
func New(b Builder, cfg *config.Config, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root := cfg.SourceRootPath()
	if opts.Request.SourceRoot != "" {
		if abs, err := filepath.Abs(opts.Request.SourceRoot); err == nil {
			root = abs
		}
	}
	output := cfg.OutputPath()
	if opts.Request.OutputRoot != "" {
		if abs, err := filepath.Abs(opts.Request.OutputRoot); err == nil {
			output = abs
		}
	}
	return &Watcher{
		builder: b,
		opts:    opts,
		filter:  filter{root: root, output: output},
		status:  &buildStatus{},
		deb:     newDebouncer(opts.Debounce),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the initial build ran and the watches are in place.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Addr returns the preview server address, or "" when it is disabled or not started.
func (w *Watcher) Addr() string {
	if w.srv == nil {
		return ""
	}
	return w.srv.Addr()
}

// Run performs an initial build and then watches until ctx is canceled.
// A failing build is logged and reported on /healthz; watching continues.
// Every return stops the preview server and waits for the worker.
func (w *Watcher) Run(ctx context.Context) error {
	w.rebuild(ctx)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		w.shutdown()
	}()

	if w.opts.Addr != "" {
		srv, err := startServer(w.opts.Addr, newHandler(w.filter.output, w.status, w.opts.Registry))
		if err != nil {
			return err
		}
		w.srv = srv
		slog.Info("Watch server listening", logfields.URL("http://"+srv.Addr()))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	if err := w.addDirsRecursive(fsw, w.filter.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.filter.root, err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	close(w.ready)
	slog.Info("Watching for changes", logfields.Path(w.filter.root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return errEventsClosed
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return errEventsClosed
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// worker consumes debounced signals one at a time. A change arriving during
// a build leaves one queued signal, which yields exactly one follow-up build.
func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.deb.C():
			slog.Info("Change detected; rebuilding")
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	res, err := w.builder.Build(ctx, w.opts.Request)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Rebuild failed", logfields.Error(err))
		w.status.setError(err)
		return
	}
	id := ""
	if res != nil && res.Report != nil {
		id = res.Report.ID
	}
	w.status.setSuccess(id)
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if w.filter.ignore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fsw, ev.Name)
		}
	}
	if ev.Op == fsnotify.Chmod {
		return
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	w.deb.Trigger()
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.filter.root && w.filter.skipDir(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", "dir", path, logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) shutdown() {
	slog.Info("Shutting down watcher")
	w.deb.Stop()
	if w.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.srv.stop(ctx); err != nil {
		slog.Warn("Watch server shutdown error", logfields.Error(err))
	}
}
