package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/folio/internal/build"
)

// CheckCmd implements the 'check' command: a dry-run build that reports
// every problem and exits non-zero when there is one.
type CheckCmd struct {
	Collections []string `short:"C" name:"collection" help:"Only check the named collections (repeatable)"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runBuild(ctx, g, build.BuildRequest{
		Config:  cfg,
		Options: build.BuildOptions{DryRun: true, Collections: c.Collections},
	}, "check")
}
