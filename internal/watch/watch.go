// Package watch rebuilds the site whenever its content changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/folio/internal/build"
	"git.home.luguber.info/inful/folio/internal/logfields"
)

// Watcher runs an initial build, then rebuilds on debounced filesystem
// changes below the content root and, optionally, on a fixed interval.
type Watcher struct {
	service  build.BuildService
	req      build.BuildRequest
	clock    clockwork.Clock
	debounce time.Duration
	interval time.Duration
	onResult func(*build.BuildResult, error)

	metricsAddr    string
	metricsPath    string
	metricsHandler http.Handler
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock replaces the clock driving debounce and scheduling.
func WithClock(c clockwork.Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

// WithInterval schedules a full rebuild every d. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithDebounce sets the quiet period after the last change.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithResultHook is called after every build.
func WithResultHook(fn func(*build.BuildResult, error)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// WithMetrics serves h at path on addr while watching.
func WithMetrics(addr, path string, h http.Handler) Option {
	return func(w *Watcher) {
		w.metricsAddr = addr
		w.metricsPath = path
		w.metricsHandler = h
	}
}

// New returns a Watcher building req with service.
func New(service build.BuildService, req build.BuildRequest, opts ...Option) *Watcher {
	w := &Watcher{
		service:  service,
		req:      req,
		clock:    clockwork.NewRealClock(),
		debounce: 300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. Build failures are reported through the
// result hook and logged; they never stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	root := w.req.Config.Content.Root
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := addDirsRecursive(watcher, root, w.req.Config.Content.PrivateMarker); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rebuilder := NewRebuilder(w.build)
	go rebuilder.Run(ctx)
	rebuilder.Request()

	debouncer := NewDebouncer(w.clock, w.debounce, rebuilder.Request)
	defer debouncer.Stop()

	if w.interval > 0 {
		scheduler, err := w.schedule(rebuilder.Request)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if w.metricsHandler != nil {
		stop, err := serveMetrics(w.metricsAddr, w.metricsPath, w.metricsHandler)
		if err != nil {
			return err
		}
		defer stop()
	}

	slog.Info("Watching for changes",
		logfields.Path(root),
		slog.Duration("debounce", w.debounce),
		slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev, debouncer)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, debouncer *Debouncer) {
	marker := w.req.Config.Content.PrivateMarker
	if ShouldIgnore(ev.Name, marker) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := addDirsRecursive(watcher, ev.Name, marker); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}
	slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	debouncer.Trigger()
}

func (w *Watcher) build(ctx context.Context) {
	res, err := w.service.Run(ctx, w.req)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		slog.Warn("Rebuild finished with errors", logfields.Error(err))
	}
	if w.onResult != nil {
		w.onResult(res, err)
	}
}

func (w *Watcher) schedule(request func()) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(w.clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(request),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return s, nil
}

func addDirsRecursive(w *fsnotify.Watcher, root, marker string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && ShouldIgnore(path, marker) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// MetricsMux serves h at path.
func MetricsMux(path string, h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	return mux
}

func serveMetrics(addr, path string, h http.Handler) (func(), error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           MetricsMux(path, h),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return nil, fmt.Errorf("metrics endpoint %s: %w", addr, err)
	case <-time.After(50 * time.Millisecond):
	}
	slog.Info("Serving metrics", slog.String("addr", addr), logfields.Path(path))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("Metrics endpoint shutdown failed", logfields.Error(err))
		}
	}, nil
}
