package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/folio/internal/build"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/report"
	"git.home.luguber.info/inful/folio/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output   string `short:"o" help:"Output directory (overrides build.output_dir)"`
	Debounce string `help:"Quiet period after the last change (overrides watch.debounce)"`
	Interval string `help:"Periodic full rebuild interval (overrides watch.interval)"`
	Metrics  bool   `help:"Serve Prometheus metrics (overrides metrics.enabled)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if w.Debounce != "" {
		cfg.Watch.Debounce = w.Debounce
	}
	if w.Interval != "" {
		cfg.Watch.Interval = w.Interval
	}
	if w.Metrics {
		cfg.Metrics.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := g.Recorder
	opts := []watch.Option{
		watch.WithDebounce(cfg.Watch.DebounceDuration()),
		watch.WithInterval(cfg.Watch.IntervalDuration()),
	}
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusRecorder(nil)
		recorder = prom
		opts = append(opts, watch.WithMetrics(cfg.Metrics.Listen, cfg.Metrics.Path, prom.Handler()))
	}

	printer := report.New(g.Stdout)
	opts = append(opts, watch.WithResultHook(func(res *build.BuildResult, _ error) {
		if res != nil {
			printer.Build(res, "build")
		}
	}))

	svc := build.NewBuildService().WithRecorder(recorder)
	return watch.New(svc, build.BuildRequest{Config: cfg, OutputDir: w.Output}, opts...).Run(ctx)
}
