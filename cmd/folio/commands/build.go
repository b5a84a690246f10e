package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/folio/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string   `short:"o" help:"Output directory (overrides build.output_dir)"`
	Collections []string `short:"C" name:"collection" help:"Only build the named collections (repeatable)"`
	Clean       bool     `help:"Remove the output directory before writing"`
	Drafts      bool     `help:"Include draft entries in the output"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if b.Clean {
		cfg.Build.Clean = true
	}
	if b.Drafts {
		cfg.Build.IncludeDrafts = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runBuild(ctx, g, build.BuildRequest{
		Config:    cfg,
		OutputDir: b.Output,
		Options:   build.BuildOptions{Collections: b.Collections},
	}, "build")
}
