// Package commands implements the folio command line.
package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/folio/internal/build"
	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/report"
)

// Global carries what every command shares.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer

	// Recorder receives build metrics. Nil discards them.
	Recorder metrics.Recorder
}

// NewGlobal returns a Global writing to the process streams.
func NewGlobal() *Global {
	return &Global{Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"folio.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build every collection into the output directory"`
	Check   CheckCmd   `cmd:"" help:"Validate entries and run the pipeline without writing output"`
	Stages  StagesCmd  `cmd:"" help:"Print the pipeline stage registry (text, mermaid, dot, json)"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever content changes"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the build journal"`
}

// AfterApply runs after flag parsing; it installs a logger honoring -v until
// a command loads the configured logging settings.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// LoadConfig reads the configuration file and applies its logging section.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(NewLogger(g.Stderr, cfg.Logging, c.Verbose))
	return cfg, nil
}

// NewLogger builds the logger described by the logging section. Verbose
// forces the debug level.
func NewLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := config.SlogLevel(lc.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if config.LogFormat(lc.Format) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// runBuild executes one build and prints its report. Configuration and
// output errors are returned without a report.
func runBuild(ctx context.Context, g *Global, req build.BuildRequest, verb string) error {
	svc := build.NewBuildService().WithRecorder(g.Recorder)
	res, err := svc.Run(ctx, req)
	if err == nil || errors.Is(err, build.ErrBuildFailed) || errors.Is(err, context.Canceled) {
		report.New(g.Stdout).Build(res, verb)
	}
	return err
}
