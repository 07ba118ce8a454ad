// Package optimize implements the release-only post-processing applied to
// finished artifacts.
package optimize

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/namer"
)

// Optimizer transforms a sealed artifact. Implementations must be pure and
// idempotent on their own output.
type Optimizer interface {
	Optimize(kind, text string) (string, error)
}

// Identity returns its input unchanged; used outside Release.
type Identity struct{}

// Optimize implements Optimizer.
func (Identity) Optimize(_ string, text string) (string, error) { return text, nil }

// ESBuild minifies CSS and JavaScript with esbuild. Other kinds pass through.
type ESBuild struct {
	// MangleJS additionally renames local identifiers in JavaScript.
	MangleJS bool
}

// Optimize implements Optimizer.
func (e ESBuild) Optimize(kind, text string) (string, error) {
	opts := api.TransformOptions{
		MinifyWhitespace: true,
		MinifySyntax:     true,
		LogLevel:         api.LogLevelSilent,
	}
	switch kind {
	case namer.KindCSS:
		opts.Loader = api.LoaderCSS
	case namer.KindJS:
		opts.Loader = api.LoaderJS
		opts.MinifyIdentifiers = e.MangleJS
	default:
		return text, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	result := api.Transform(text, opts)
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return "", fmt.Errorf("minify %s: %s", kind, strings.Join(msgs, "; "))
	}
	return string(result.Code), nil
}

// ForPipeline returns the optimizer selected by the pipeline mode.
func ForPipeline(pc config.PipelineConfig) Optimizer {
	if !pc.Optimize {
		return Identity{}
	}
	return ESBuild{MangleJS: true}
}
