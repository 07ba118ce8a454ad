package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetpipe/internal/bundle"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/graph"
	"git.home.luguber.info/inful/assetpipe/internal/htmlemit"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/manifest"
	"git.home.luguber.info/inful/assetpipe/internal/namer"
)

func stageValidate(_ context.Context, bs *BuildState) error {
	cfg := bs.cfg
	if err := config.ValidateRules(cfg.Rules, config.ContentTypes(cfg)); err != nil {
		return err
	}
	for _, f := range []struct{ what, path string }{
		{"entry", cfg.EntryPath()},
		{"template", cfg.TemplatePath()},
	} {
		fi, err := os.Stat(f.path)
		if err != nil || !fi.Mode().IsRegular() {
			return errors.ConfigError(f.what+" file not found").
				WithContext(errors.ContextPath, f.path).Build()
		}
	}
	src := filepath.Clean(cfg.SourceRootPath())
	out := filepath.Clean(bs.outputDir)
	if out == src || strings.HasPrefix(src+string(filepath.Separator), out+string(filepath.Separator)) {
		return errors.ConfigError("output directory must not contain the source root").
			WithContext(errors.ContextPath, out).Build()
	}

	chain, err := loader.NewChain(cfg.Rules, bs.registry, bs.pc)
	if err != nil {
		return err
	}
	bs.chain = chain.WithObserver(bs.recorder)
	return nil
}

func stageTraverse(ctx context.Context, bs *BuildState) error {
	g, err := graph.Walk(ctx, bs.cfg.EntryPath(), graph.Resolver{
		Root:       bs.cfg.SourceRootPath(),
		Extensions: bs.cfg.Resolve.Extensions,
		StylesDir:  bs.cfg.StylesPath(),
	})
	if err != nil {
		return err
	}
	bs.graph = g
	slog.Debug("Module graph resolved", logfields.Modules(g.Len()))
	return nil
}

// stageLoad compiles every module concurrently. Results are stored and
// emitted by graph position, so scheduling order never shows in the output.
func stageLoad(ctx context.Context, bs *BuildState) error {
	mods := bs.graph.Modules
	bs.results = make([]loader.ModuleResult, len(mods))
	bs.recorder.SetLoadConcurrency(bs.pc.Concurrency)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(bs.pc.Concurrency)
	for _, m := range mods {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res, err := bs.chain.Apply(egCtx, loader.SourceFile{Path: m.Path, ContentType: m.ContentType}, m.Source)
			if err != nil {
				return err
			}
			if em, ok := res.(loader.ExtractionEmission); ok {
				if err := bs.sink.EmitAt(bs.cfg.Chunk, em.Kind, m.Position, em.Text); err != nil {
					return err
				}
			}
			bs.results[m.Position] = res
			return nil
		})
	}
	return eg.Wait()
}

func stageSeal(_ context.Context, bs *BuildState) error {
	for kind, text := range bs.sink.SealAll(bs.cfg.Chunk) {
		bs.texts[kind] = text
	}

	mods := make([]bundle.Module, 0, bs.graph.Len())
	for _, m := range bs.graph.Modules {
		bm := bundle.Module{Index: m.Position, ID: m.ID, Deps: make(map[string]int, len(m.Deps))}
		switch res := bs.results[m.Position].(type) {
		case loader.BundleContribution:
			bm.Code = res.Code
		case loader.ExtractionEmission:
			bm.Extracted = true
		default:
			return fmt.Errorf("module %s has no load result", m.ID)
		}
		for spec, depPath := range m.Deps {
			dep, ok := bs.graph.Lookup(depPath)
			if !ok {
				return fmt.Errorf("module %s: dependency %s missing from graph", m.ID, depPath)
			}
			if _, extracted := bs.results[dep.Position].(loader.ExtractionEmission); extracted {
				bm.Deps[spec] = bundle.Extracted
				continue
			}
			bm.Deps[spec] = dep.Position
		}
		mods = append(mods, bm)
	}

	var nodeEnv string
	if bs.cfg.Build.DefineNodeEnv {
		nodeEnv = "development"
		if bs.pc.Mode.IsRelease() {
			nodeEnv = "production"
		}
	}
	js, err := bundle.Assemble(mods, bs.graph.Entry.Position, bundle.Options{NodeEnv: nodeEnv})
	if err != nil {
		return err
	}
	bs.texts[namer.KindJS] = js
	return nil
}

func stageOptimize(_ context.Context, bs *BuildState) error {
	for _, kind := range sortedKinds(bs.texts) {
		out, err := bs.optimizer.Optimize(kind, bs.texts[kind])
		if err != nil {
			return errors.WrapError(err, errors.CategoryBuild, "optimization failed").
				WithContext("kind", kind).Fatal().Build()
		}
		bs.texts[kind] = out
	}
	return nil
}

// stageName names every final artifact from its content. Kinds that ended up
// empty (no stylesheet was imported) produce no file.
func stageName(_ context.Context, bs *BuildState) error {
	bs.artifacts = bs.artifacts[:0]
	for _, kind := range sortedKinds(bs.texts) {
		text := bs.texts[kind]
		if kind != namer.KindJS && strings.TrimSpace(text) == "" {
			continue
		}
		content := []byte(text)
		bs.artifacts = append(bs.artifacts, NamedArtifact{
			LogicalName: bs.cfg.Chunk + "." + namer.Extension(kind),
			Kind:        kind,
			Filename:    bs.namer.Path(bs.cfg.Chunk, kind, content),
			Content:     content,
		})
	}
	return nil
}

func stageWrite(_ context.Context, bs *BuildState) error {
	if err := bs.beginStaging(); err != nil {
		return err
	}
	for _, a := range bs.artifacts {
		if err := bs.writeStaged(a.Filename, a.Content); err != nil {
			return errors.FileSystemError("write artifact").WithCause(err).
				WithContext(errors.ContextPath, a.Filename).
				WithContext(errors.ContextOp, "write").Build()
		}
		bs.recorder.ObserveArtifactBytes(a.Kind, len(a.Content))
		slog.Debug("Wrote artifact", logfields.Artifact(a.Filename), logfields.Kind(a.Kind), logfields.Bytes(len(a.Content)))
	}
	return nil
}

// stageEmitHTML runs after every referenced artifact is on disk.
func stageEmitHTML(_ context.Context, bs *BuildState) error {
	tmplPath := bs.cfg.TemplatePath()
	tmpl, err := os.ReadFile(tmplPath)
	if err != nil {
		return errors.FileSystemError("read html template").WithCause(err).
			WithContext(errors.ContextPath, tmplPath).
			WithContext(errors.ContextOp, "read").Build()
	}

	var refs []htmlemit.Reference
	for _, kind := range []string{namer.KindCSS, namer.KindJS} {
		for _, a := range bs.artifacts {
			if a.Kind == kind {
				refs = append(refs, htmlemit.Reference{Kind: kind, Path: a.Filename})
			}
		}
	}
	doc, err := htmlemit.Emit(tmpl, refs, htmlemit.Options{
		Inject:          bs.cfg.HTML.Inject,
		ScriptAttribute: bs.cfg.HTML.ScriptAttribute,
		PublicPath:      bs.cfg.Output.PublicPath,
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryBuild, "emit html").
			WithContext(errors.ContextPath, tmplPath).Fatal().Build()
	}
	name := bs.cfg.HTML.Filename
	if err := bs.writeStaged(name, doc); err != nil {
		return err
	}
	bs.artifacts = append(bs.artifacts, NamedArtifact{
		LogicalName: name,
		Kind:        namer.KindHTML,
		Filename:    name,
		Content:     doc,
	})
	return nil
}

func stageManifest(_ context.Context, bs *BuildState) error {
	entries := make([]manifest.Entry, 0, len(bs.artifacts))
	for _, a := range bs.artifacts {
		entries = append(entries, manifest.Entry{Logical: a.LogicalName, Kind: a.Kind, Path: a.Filename, Content: a.Content})
	}
	m := manifest.Build(bs.pc.Mode.String(), entries)
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := bs.writeStaged(bs.cfg.Output.Manifest, data); err != nil {
		return err
	}
	hash, err := m.Hash()
	if err != nil {
		return err
	}
	bs.manifest = m
	bs.Report.OutputHash = hash
	return nil
}

func stagePromote(_ context.Context, bs *BuildState) error {
	if err := bs.finalizeStaging(); err != nil {
		return err
	}
	for _, a := range bs.artifacts {
		bs.Report.Artifacts = append(bs.Report.Artifacts, a.Filename)
	}
	bs.Report.Artifacts = append(bs.Report.Artifacts, bs.cfg.Output.Manifest)
	slices.Sort(bs.Report.Artifacts)
	return nil
}

func sortedKinds(m map[string]string) []string {
	kinds := make([]string, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
