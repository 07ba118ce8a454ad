package config

import (
	"maps"
	"runtime"
	"time"
)

// PipelineConfig is the per-mode configuration selected once at build start
// and passed explicitly to every stage.
type PipelineConfig struct {
	Mode              BuildMode
	Fingerprint       bool
	FingerprintLength int
	Optimize          bool
	ExtractCSS        bool
	Concurrency       int
	LoaderTimeout     time.Duration

	loaderFlags map[string]any
}

// NewPipelineConfig builds the PipelineConfig for mode.
func NewPipelineConfig(mode BuildMode, cfg *Config) PipelineConfig {
	concurrency := cfg.Build.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	pc := PipelineConfig{
		Mode:              mode,
		FingerprintLength: cfg.Build.FingerprintLength,
		ExtractCSS:        cfg.ExtractCSSEnabled(),
		Concurrency:       concurrency,
		LoaderTimeout:     cfg.Build.LoaderTimeout,
	}
	switch mode {
	case Release:
		pc.Fingerprint = true
		pc.Optimize = true
		pc.loaderFlags = map[string]any{"debug": false, "optimize": true}
	default:
		pc.loaderFlags = map[string]any{"debug": true, "optimize": false}
	}
	return pc
}

// LoaderFlags returns a copy of the mode-derived loader flags. They override
// static rule options with the same key.
func (p PipelineConfig) LoaderFlags() map[string]any {
	return maps.Clone(p.loaderFlags)
}
