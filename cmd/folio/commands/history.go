package commands

import (
	"context"

	"git.home.luguber.info/inful/folio/internal/eventstore"
	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
	"git.home.luguber.info/inful/folio/internal/report"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"10"`
	Store string `help:"Build journal path (overrides build.event_store)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	path := cfg.Build.EventStore
	if h.Store != "" {
		path = h.Store
	}
	if path == "" {
		return ferrors.ConfigError("build journal disabled").
			WithContext("hint", "set build.event_store or pass --store").
			Build()
	}

	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit := h.Limit
	if limit <= 0 {
		limit = 10
	}
	proj := eventstore.NewBuildHistoryProjection(store, limit)
	if err := proj.Rebuild(context.Background()); err != nil {
		return err
	}
	report.New(g.Stdout).History(proj.History())
	return nil
}
