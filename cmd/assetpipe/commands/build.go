package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Mode    string `short:"m" help:"Build mode (development|release). Falls back to ASSETPIPE_MODE, then NODE_ENV."`
	Source  string `name:"source" help:"Override the source root"`
	Output  string `short:"o" name:"output" help:"Override the output directory"`
	History string `name:"history" help:"Record the build in this sqlite database"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, cfg, b)
}

// RunBuild performs one build and prints the emitted files.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config, b *BuildCmd) error {
	drv := pipeline.NewDriver(cfg, nil)
	store, err := openHistory(historyPath(b.History, cfg))
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
		drv = drv.WithHistory(store)
	}

	res, err := drv.Build(ctx, pipeline.BuildRequest{
		SourceRoot: b.Source,
		OutputRoot: b.Output,
		ModeSignal: config.ModeSignal(b.Mode),
	})
	if err != nil {
		return err
	}

	w := g.out()
	_, _ = fmt.Fprintf(w, "Built %s assets into %s\n", res.Mode, res.OutputDir)
	for _, name := range res.Report.Artifacts {
		_, _ = fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}
