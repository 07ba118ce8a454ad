package loader

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"regexp"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Observer receives the duration of every transform invocation.
// metrics.Recorder satisfies it.
type Observer interface {
	ObserveLoaderDuration(loader string, d time.Duration, success bool)
}

type noopObserver struct{}

func (noopObserver) ObserveLoaderDuration(string, time.Duration, bool) {}

// Step is one resolved chain entry with its effective options.
type Step struct {
	Loader  string         `json:"loader"`
	Options map[string]any `json:"options,omitempty"`
}

// EffectiveRule describes a rule as it will run for the current mode.
type EffectiveRule struct {
	Name    string   `json:"name"`
	Test    string   `json:"test"`
	Exclude []string `json:"exclude,omitempty"`
	Extract string   `json:"extract,omitempty"`
	Steps   []Step   `json:"steps"`
}

type compiledRule struct {
	rule    config.Rule
	test    *regexp.Regexp
	exclude []*regexp.Regexp
}

// Chain dispatches files to the loader chain of the first matching rule.
type Chain struct {
	rules    []compiledRule
	registry *Registry
	flags    map[string]any
	timeout  time.Duration
	extract  bool
	observer Observer
}

// NewChain compiles rules against reg for the given pipeline configuration.
// Every loader a rule uses must be registered.
func NewChain(rules []config.Rule, reg *Registry, pc config.PipelineConfig) (*Chain, error) {
	c := &Chain{
		registry: reg,
		flags:    pc.LoaderFlags(),
		timeout:  pc.LoaderTimeout,
		extract:  pc.ExtractCSS,
		observer: noopObserver{},
	}
	for _, r := range rules {
		test, err := regexp.Compile(r.Test)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid rule test").
				WithContext("rule", r.Name).Build()
		}
		cr := compiledRule{rule: r, test: test}
		for _, ex := range r.Exclude {
			re, err := regexp.Compile(ex)
			if err != nil {
				return nil, errors.WrapError(err, errors.CategoryConfig, "invalid rule exclude").
					WithContext("rule", r.Name).Build()
			}
			cr.exclude = append(cr.exclude, re)
		}
		for _, u := range r.Use {
			if _, ok := reg.Lookup(u.Loader); !ok {
				return nil, errors.ConfigError("rule uses unregistered loader").
					WithContext("rule", r.Name).
					WithContext(errors.ContextLoader, u.Loader).Build()
			}
		}
		if r.Extract != "" && !c.extract {
			if _, ok := reg.Lookup(config.LoaderStyle); !ok {
				return nil, errors.ConfigError("extraction disabled but no style loader registered").
					WithContext("rule", r.Name).Build()
			}
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// WithObserver sets the transform duration observer.
func (c *Chain) WithObserver(o Observer) *Chain {
	if o != nil {
		c.observer = o
	}
	return c
}

// Match returns the first rule matching file, honoring excludes.
func (c *Chain) Match(file SourceFile) (config.Rule, bool) {
	if cr := c.match(file); cr != nil {
		return cr.rule, true
	}
	return config.Rule{}, false
}

func (c *Chain) match(file SourceFile) *compiledRule {
	slashed := filepath.ToSlash(file.Path)
	for i := range c.rules {
		cr := &c.rules[i]
		if !cr.test.MatchString(file.ContentType) {
			continue
		}
		if excluded(cr.exclude, slashed) {
			continue
		}
		return cr
	}
	return nil
}

func excluded(patterns []*regexp.Regexp, path string) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Apply runs text through the chain selected for file. Files no rule matches
// pass through unchanged as bundle code.
func (c *Chain) Apply(ctx context.Context, file SourceFile, text string) (ModuleResult, error) {
	cr := c.match(file)
	if cr == nil {
		return BundleContribution{Code: text}, nil
	}

	out := text
	for _, step := range c.steps(cr.rule) {
		var err error
		out, err = c.run(ctx, file, step, out)
		if err != nil {
			return nil, err
		}
	}
	if cr.rule.Extract != "" && c.extract {
		return ExtractionEmission{Kind: cr.rule.Extract, Text: out}, nil
	}
	return BundleContribution{Code: out}, nil
}

// Describe lists the rules with the options each step runs with.
func (c *Chain) Describe() []EffectiveRule {
	out := make([]EffectiveRule, 0, len(c.rules))
	for _, cr := range c.rules {
		out = append(out, EffectiveRule{
			Name:    cr.rule.Name,
			Test:    cr.rule.Test,
			Exclude: cr.rule.Exclude,
			Extract: cr.rule.Extract,
			Steps:   c.steps(cr.rule),
		})
	}
	return out
}

// steps resolves the rule's use list. When extraction is disabled the
// extracted kind is routed into the bundle through the style loader.
func (c *Chain) steps(r config.Rule) []Step {
	steps := make([]Step, 0, len(r.Use)+1)
	for _, u := range r.Use {
		steps = append(steps, Step{Loader: u.Loader, Options: c.mergeOptions(u.Options)})
	}
	if r.Extract != "" && !c.extract {
		steps = append(steps, Step{
			Loader:  config.LoaderStyle,
			Options: c.mergeOptions(map[string]any{"kind": r.Extract}),
		})
	}
	return steps
}

// mergeOptions overlays mode flags on static options.
func (c *Chain) mergeOptions(static map[string]any) map[string]any {
	merged := make(map[string]any, len(static)+len(c.flags))
	maps.Copy(merged, static)
	maps.Copy(merged, c.flags)
	return merged
}

func (c *Chain) run(ctx context.Context, file SourceFile, step Step, text string) (string, error) {
	t, ok := c.registry.Lookup(step.Loader)
	if !ok {
		return "", &CompileError{FilePath: file.Path, Loader: step.Loader, Message: "loader not registered"}
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := t.Apply(runCtx, Input{
		Path:        file.Path,
		ContentType: file.ContentType,
		Text:        text,
		Options:     step.Options,
	})
	elapsed := time.Since(start)
	c.observer.ObserveLoaderDuration(step.Loader, elapsed, err == nil)
	if err != nil {
		return "", c.compileError(ctx, runCtx, file, step.Loader, err)
	}
	slog.Debug("Loader applied",
		logfields.Path(file.Path),
		logfields.Loader(step.Loader),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000.0))
	return out, nil
}

func (c *Chain) compileError(parent, runCtx context.Context, file SourceFile, name string, err error) error {
	var ce *CompileError
	if stderrors.As(err, &ce) {
		if ce.FilePath == "" {
			ce.FilePath = file.Path
		}
		if ce.Loader == "" {
			ce.Loader = name
		}
		return ce
	}
	msg := err.Error()
	if parent.Err() == nil && stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
		msg = fmt.Sprintf("timed out after %s", c.timeout)
	}
	return &CompileError{FilePath: file.Path, Loader: name, Message: msg, Err: err}
}
