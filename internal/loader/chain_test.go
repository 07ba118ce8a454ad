package loader

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/config"
)

type recordingTransform struct {
	name string
	mu   sync.Mutex
	seen []Input
	fn   func(Input) (string, error)
}

func (r *recordingTransform) Name() string { return r.name }

func (r *recordingTransform) Apply(_ context.Context, in Input) (string, error) {
	r.mu.Lock()
	r.seen = append(r.seen, in)
	r.mu.Unlock()
	if r.fn != nil {
		return r.fn(in)
	}
	return in.Text + "|" + r.name, nil
}

func (r *recordingTransform) last() Input {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[len(r.seen)-1]
}

func testRegistry() (*Registry, map[string]*recordingTransform) {
	ts := map[string]*recordingTransform{}
	reg := NewRegistry()
	for _, n := range config.KnownLoaders {
		rt := &recordingTransform{name: n}
		ts[n] = rt
		reg.Register(rt)
	}
	return reg, ts
}

func newChain(t *testing.T, mode config.BuildMode, mutate func(*config.Config)) (*Chain, map[string]*recordingTransform) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	reg, ts := testRegistry()
	c, err := NewChain(cfg.Rules, reg, config.NewPipelineConfig(mode, cfg))
	require.NoError(t, err)
	return c, ts
}

func TestNewSourceFile(t *testing.T) {
	require.Equal(t, "elm", NewSourceFile("/src/Main.ELM").ContentType)
	require.Equal(t, "css", NewSourceFile("/src/a.b.css").ContentType)
	require.Equal(t, "", NewSourceFile("/src/Makefile").ContentType)
}

func TestChain_RunsStepsLeftToRight(t *testing.T) {
	c, _ := newChain(t, config.Development, nil)
	res, err := c.Apply(context.Background(), NewSourceFile("/app/src/static/styles/main.css"), "body{}")
	require.NoError(t, err)
	em, ok := res.(ExtractionEmission)
	require.True(t, ok, "css rule must extract, got %T", res)
	require.Equal(t, "css", em.Kind)
	require.Equal(t, "body{}|css|postcss", em.Text)
}

func TestChain_ModeFlagsOverrideStaticOptions(t *testing.T) {
	c, ts := newChain(t, config.Release, nil)
	_, err := c.Apply(context.Background(), NewSourceFile("/app/src/Main.elm"), "module Main")
	require.NoError(t, err)

	in := ts[config.LoaderElm].last()
	require.Equal(t, false, in.Options["debug"], "static debug:true must lose against release flags")
	require.Equal(t, true, in.Options["optimize"])
	require.Equal(t, true, in.Options["verbose"])

	c, ts = newChain(t, config.Development, nil)
	_, err = c.Apply(context.Background(), NewSourceFile("/app/src/Main.elm"), "module Main")
	require.NoError(t, err)
	in = ts[config.LoaderElm].last()
	require.Equal(t, true, in.Options["debug"])
	require.Equal(t, false, in.Options["optimize"])
}

func TestChain_ExcludeSkipsRule(t *testing.T) {
	c, ts := newChain(t, config.Development, nil)
	res, err := c.Apply(context.Background(), NewSourceFile("/app/elm-stuff/0.19/Gen.elm"), "raw")
	require.NoError(t, err)
	require.Equal(t, BundleContribution{Code: "raw"}, res)
	require.Empty(t, ts[config.LoaderElm].seen)
}

func TestChain_UnmatchedPassesThrough(t *testing.T) {
	c, _ := newChain(t, config.Development, nil)
	res, err := c.Apply(context.Background(), NewSourceFile("/app/data.json"), `{"a":1}`)
	require.NoError(t, err)
	require.Equal(t, BundleContribution{Code: `{"a":1}`}, res)

	_, matched := c.Match(NewSourceFile("/app/data.json"))
	require.False(t, matched)
	r, matched := c.Match(NewSourceFile("/app/index.mjs"))
	require.True(t, matched)
	require.Equal(t, "js", r.Name)
}

func TestChain_StyleFallbackWhenExtractionDisabled(t *testing.T) {
	off := false
	c, ts := newChain(t, config.Development, func(cfg *config.Config) { cfg.Build.ExtractCSS = &off })
	res, err := c.Apply(context.Background(), NewSourceFile("/app/main.css"), "a{}")
	require.NoError(t, err)
	bc, ok := res.(BundleContribution)
	require.True(t, ok, "got %T", res)
	require.Equal(t, "a{}|css|postcss|style", bc.Code)
	require.Equal(t, "css", ts[config.LoaderStyle].last().String("kind"))
}

func TestChain_FailureBecomesCompileError(t *testing.T) {
	c, ts := newChain(t, config.Development, nil)
	ts[config.LoaderCSS].fn = func(Input) (string, error) { return "", stderrors.New("unexpected }") }

	_, err := c.Apply(context.Background(), NewSourceFile("/app/bad.css"), "}")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "/app/bad.css", ce.FilePath)
	require.Equal(t, config.LoaderCSS, ce.Loader)
	require.Contains(t, ce.Error(), "unexpected }")
	require.Empty(t, ts[config.LoaderPostCSS].seen, "chain must stop at the failing step")
}

func TestChain_TransformTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Build.LoaderTimeout = 20 * time.Millisecond
	reg, _ := testRegistry()
	reg.Register(TransformFunc(config.LoaderJS, func(ctx context.Context, _ Input) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))
	c, err := NewChain(cfg.Rules, reg, config.NewPipelineConfig(config.Development, cfg))
	require.NoError(t, err)

	_, err = c.Apply(context.Background(), NewSourceFile("/app/index.js"), "x")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.True(t, strings.HasPrefix(ce.Message, "timed out after"), ce.Message)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewChain_RejectsUnregisteredLoader(t *testing.T) {
	cfg := config.Default()
	_, err := NewChain(cfg.Rules, NewRegistry(), config.NewPipelineConfig(config.Development, cfg))
	require.Error(t, err)
}

type countingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *countingObserver) ObserveLoaderDuration(name string, _ time.Duration, _ bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[name]++
}

func TestChain_ObserverAndDescribe(t *testing.T) {
	c, _ := newChain(t, config.Release, nil)
	obs := &countingObserver{calls: map[string]int{}}
	c.WithObserver(obs)

	_, err := c.Apply(context.Background(), NewSourceFile("/app/main.css"), "a{}")
	require.NoError(t, err)
	require.Equal(t, 1, obs.calls[config.LoaderCSS])
	require.Equal(t, 1, obs.calls[config.LoaderPostCSS])

	rules := c.Describe()
	require.Len(t, rules, 3)
	require.Equal(t, "elm", rules[0].Name)
	require.Equal(t, false, rules[0].Steps[0].Options["debug"])
	require.Equal(t, "css", rules[1].Extract)
	require.Len(t, rules[1].Steps, 2)
}

func TestInputOptionHelpers(t *testing.T) {
	in := Input{Options: map[string]any{
		"on":   true,
		"str":  "true",
		"list": []any{"a", 1},
		"one":  "solo",
	}}
	require.True(t, in.Bool("on"))
	require.True(t, in.Bool("str"))
	require.False(t, in.Bool("missing"))
	require.Equal(t, "solo", in.String("one"))
	require.Equal(t, []string{"a", "1"}, in.Strings("list"))
	require.Equal(t, []string{"solo"}, in.Strings("one"))
	require.Nil(t, in.Strings("missing"))
}
