// Package pipeline orchestrates one asset build: mode resolution, module
// graph traversal, loader chains, extraction, optimization, naming, HTML
// emission and atomic promotion of the output directory.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/history"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
	"git.home.luguber.info/inful/assetpipe/internal/loader/transforms"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/manifest"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/vcs"
)

// BuildRequest selects what to build. Empty fields fall back to the config.
type BuildRequest struct {
	SourceRoot string
	OutputRoot string
	// ModeSignal is the raw mode value (flag or environment).
	ModeSignal string
}

// BuildResult describes a successful build.
type BuildResult struct {
	Mode      config.BuildMode
	OutputDir string
	Artifacts []NamedArtifact
	Manifest  *manifest.AssetManifest
	Report    *BuildReport
}

// Driver runs builds. Builds against the same output directory must not run
// concurrently; the watch command serializes them.
type Driver struct {
	cfg      *config.Config
	registry *loader.Registry
	recorder metrics.Recorder
	history  history.Store
	stages   []StageDef
}

// NewDriver creates a driver for cfg. A nil registry gets the built-in transforms.
func NewDriver(cfg *config.Config, reg *loader.Registry) *Driver {
	if reg == nil {
		reg = transforms.Builtins(cfg)
	}
	return &Driver{
		cfg:      cfg,
		registry: reg,
		recorder: metrics.NoopRecorder{},
		stages:   defaultStages(),
	}
}

// WithRecorder sets the metrics recorder.
func (d *Driver) WithRecorder(r metrics.Recorder) *Driver {
	if r != nil {
		d.recorder = r
	}
	return d
}

// WithHistory records every build, successful or not, in store.
func (d *Driver) WithHistory(store history.Store) *Driver {
	d.history = store
	return d
}

// Build runs one build. On failure the previous output directory is left
// untouched and the returned error is a *StageError.
func (d *Driver) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	cfg, err := d.effectiveConfig(req)
	if err != nil {
		return nil, err
	}
	mode := config.ParseMode(req.ModeSignal)
	pc := config.NewPipelineConfig(mode, cfg)

	bs := newBuildState(cfg, pc, d.registry, d.recorder)
	if rev, err := vcs.Read(cfg.SourceRootPath()); err != nil {
		slog.Debug("Source revision unavailable", logfields.Error(err))
	} else {
		bs.Report.Revision = rev.Short()
	}

	log := slog.With(logfields.BuildID(bs.Report.ID), logfields.Mode(mode.String()))
	log.Info("Build started", logfields.Path(cfg.EntryPath()), logfields.Output(bs.outputDir))

	err = RunStages(ctx, bs, d.stages)
	if err != nil {
		bs.abortStaging()
	}

	outcome, label := OutcomeSuccess, metrics.BuildOutcomeSuccess
	switch {
	case err == nil:
	case ctx.Err() != nil:
		outcome, label = OutcomeCanceled, metrics.BuildOutcomeCanceled
	default:
		outcome, label = OutcomeFailed, metrics.BuildOutcomeFailed
	}
	bs.Report.finish(outcome, err)
	d.recorder.ObserveBuildDuration(bs.Report.Duration())
	d.recorder.IncBuildOutcome(label)
	d.recordHistory(bs.Report)

	if err != nil {
		log.Error("Build failed", logfields.Error(err), logfields.DurationMS(ms(bs.Report.Duration())))
		return nil, err
	}
	log.Info("Build complete",
		logfields.Output(bs.outputDir),
		logfields.Modules(bs.graph.Len()),
		slog.Int("artifacts", len(bs.artifacts)),
		logfields.Revision(bs.Report.Revision),
		logfields.DurationMS(ms(bs.Report.Duration())))

	return &BuildResult{
		Mode:      mode,
		OutputDir: bs.outputDir,
		Artifacts: bs.artifacts,
		Manifest:  bs.manifest,
		Report:    bs.Report,
	}, nil
}

// effectiveConfig applies request overrides to a copy of the driver config.
func (d *Driver) effectiveConfig(req BuildRequest) (*config.Config, error) {
	cfg := *d.cfg
	if req.SourceRoot != "" {
		abs, err := filepath.Abs(req.SourceRoot)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "resolve source root").
				WithContext(errors.ContextPath, req.SourceRoot).Fatal().Build()
		}
		cfg.SourceRoot = abs
	}
	if req.OutputRoot != "" {
		abs, err := filepath.Abs(req.OutputRoot)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "resolve output root").
				WithContext(errors.ContextPath, req.OutputRoot).Fatal().Build()
		}
		cfg.Output.Directory = abs
	}
	return &cfg, nil
}

func (d *Driver) recordHistory(r *BuildReport) {
	if d.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.history.Append(ctx, r.Record()); err != nil {
		slog.Warn("Failed to record build history", logfields.BuildID(r.ID), logfields.Error(err))
	}
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }
