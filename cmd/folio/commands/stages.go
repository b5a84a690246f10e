package commands

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/folio/internal/pipeline"
	"git.home.luguber.info/inful/folio/internal/pipeline/stages"
)

// StagesCmd implements the 'stages' command.
type StagesCmd struct {
	Format string `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output string `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
}

// Run prints the registry built from the loaded configuration, so stage
// options reflect the config file.
func (cmd *StagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	reg, err := stages.NewRegistry(cfg)
	if err != nil {
		return err
	}

	output, err := reg.Visualize(pipeline.VisualizationFormat(cmd.Format))
	if err != nil {
		return fmt.Errorf("failed to visualize stages: %w", err)
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("Stage registry written", slog.String("file", cmd.Output), slog.String("format", cmd.Format))
		return nil
	}
	_, err = fmt.Fprint(g.Stdout, output)
	return err
}
