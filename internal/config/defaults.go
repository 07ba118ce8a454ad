package config

import "time"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// LayoutDefaultApplier handles input/output layout defaults.
type LayoutDefaultApplier struct{}

func (LayoutDefaultApplier) Domain() string { return "layout" }

func (LayoutDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.SourceRoot == "" {
		cfg.SourceRoot = "."
	}
	if cfg.Entry == "" {
		cfg.Entry = "src/static/index.js"
	}
	if cfg.Template == "" {
		cfg.Template = "src/static/index.html"
	}
	if cfg.StylesDir == "" {
		cfg.StylesDir = "src/static/styles"
	}
	if cfg.Chunk == "" {
		cfg.Chunk = "main"
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "build"
	}
	if cfg.Output.JSDir == "" {
		cfg.Output.JSDir = "static/js"
	}
	if cfg.Output.CSSDir == "" {
		cfg.Output.CSSDir = "static/css"
	}
	if cfg.Output.Manifest == "" {
		cfg.Output.Manifest = "asset-manifest.json"
	}
	if len(cfg.Resolve.Extensions) == 0 {
		cfg.Resolve.Extensions = []string{".js", ".elm", ".css"}
	}
	return nil
}

// HTMLDefaultApplier handles HTML shell defaults.
type HTMLDefaultApplier struct{}

func (HTMLDefaultApplier) Domain() string { return "html" }

func (HTMLDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.HTML.Filename == "" {
		cfg.HTML.Filename = "index.html"
	}
	if cfg.HTML.Inject == "" {
		cfg.HTML.Inject = "head"
	}
	if cfg.HTML.ScriptAttribute == "" {
		cfg.HTML.ScriptAttribute = "defer"
	}
	return nil
}

// BuildDefaultApplier handles pipeline tuning defaults.
type BuildDefaultApplier struct{}

func (BuildDefaultApplier) Domain() string { return "build" }

func (BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Concurrency < 0 {
		cfg.Build.Concurrency = 0
	}
	if cfg.Build.LoaderTimeout <= 0 {
		cfg.Build.LoaderTimeout = 2 * time.Minute
	}
	if cfg.Build.FingerprintLength == 0 {
		cfg.Build.FingerprintLength = 20
	}
	if cfg.Elm.Command == "" {
		cfg.Elm.Command = "elm"
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = DefaultRules()
	}
	return nil
}

var defaultAppliers = []DefaultApplier{
	LayoutDefaultApplier{},
	HTMLDefaultApplier{},
	BuildDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
