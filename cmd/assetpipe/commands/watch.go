package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
	"git.home.luguber.info/inful/assetpipe/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Mode     string        `short:"m" help:"Build mode (development|release). Falls back to ASSETPIPE_MODE, then NODE_ENV."`
	Port     int           `short:"p" help:"Port of the preview server (0 disables it)" default:"8080"`
	Host     string        `help:"Interface the preview server binds to" default:"127.0.0.1"`
	Output   string        `short:"o" name:"output" help:"Override the output directory"`
	History  string        `name:"history" help:"Record builds in this sqlite database"`
	Debounce time.Duration `help:"Quiet window before a rebuild" default:"300ms"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	if w.Port < 0 || w.Port > 65535 {
		return errors.ValidationError(fmt.Sprintf("--port must be between 0 and 65535, got %d", w.Port)).Build()
	}
	if w.Debounce < 0 {
		return errors.ValidationError(fmt.Sprintf("--debounce must not be negative, got %s", w.Debounce)).Build()
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	reg := prom.NewRegistry()
	drv := pipeline.NewDriver(cfg, nil).WithRecorder(metrics.NewPrometheusRecorder(reg))
	store, err := openHistory(historyPath(w.History, cfg))
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
		drv = drv.WithHistory(store)
	}

	opts := watch.Options{
		Debounce: w.Debounce,
		Registry: reg,
		Request: pipeline.BuildRequest{
			OutputRoot: w.Output,
			ModeSignal: config.ModeSignal(w.Mode),
		},
	}
	if w.Port > 0 {
		opts.Addr = fmt.Sprintf("%s:%d", w.Host, w.Port)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return watch.New(drv, cfg, opts).Run(ctx)
}
