package pipeline

import (
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/extract"
	"git.home.luguber.info/inful/assetpipe/internal/graph"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
	"git.home.luguber.info/inful/assetpipe/internal/manifest"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/namer"
	"git.home.luguber.info/inful/assetpipe/internal/optimize"
)

// NamedArtifact is a finished output file.
type NamedArtifact struct {
	LogicalName string // e.g. main.js
	Kind        string
	Filename    string // slash separated, relative to the output root
	Content     []byte
}

// BuildState carries everything one build run shares between stages.
type BuildState struct {
	cfg      *config.Config
	pc       config.PipelineConfig
	registry *loader.Registry
	recorder metrics.Recorder

	chain     *loader.Chain
	graph     *graph.Graph
	results   []loader.ModuleResult // by graph position
	sink      *extract.Sink
	texts     map[string]string // artifact kind -> text
	namer     *namer.Namer
	optimizer optimize.Optimizer
	artifacts []NamedArtifact
	manifest  *manifest.AssetManifest

	outputDir string
	stageDir  string

	Report *BuildReport
}

func newBuildState(cfg *config.Config, pc config.PipelineConfig, reg *loader.Registry, rec metrics.Recorder) *BuildState {
	return &BuildState{
		cfg:       cfg,
		pc:        pc,
		registry:  reg,
		recorder:  rec,
		sink:      extract.NewSink(),
		texts:     map[string]string{},
		optimizer: optimize.ForPipeline(pc),
		namer: namer.New(namer.Options{
			Fingerprint: pc.Fingerprint,
			Length:      pc.FingerprintLength,
			Dirs: map[string]string{
				namer.KindJS:  cfg.Output.JSDir,
				namer.KindCSS: cfg.Output.CSSDir,
			},
		}),
		outputDir: cfg.OutputPath(),
		Report:    newBuildReport(pc.Mode.String()),
	}
}
