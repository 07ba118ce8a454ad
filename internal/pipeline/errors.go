package pipeline

import (
	"context"
	stderrors "errors"

	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/graph"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// classify turns a stage failure into a ClassifiedError carrying the stage
// and, where known, the file and loader.
func classify(stage StageName, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		var ce *loader.CompileError
		if !stderrors.As(err, &ce) {
			return errors.WrapError(err, errors.CategoryRuntime, "build canceled").Fatal().
				WithContext(errors.ContextStage, string(stage)).Build()
		}
	}

	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext(errors.ContextStage, string(stage))
	}

	var compileErr *loader.CompileError
	if stderrors.As(err, &compileErr) {
		return errors.CompileError(compileErr.Message).
			WithCause(compileErr.Err).
			WithContext(errors.ContextStage, string(stage)).
			WithContext(errors.ContextPath, compileErr.FilePath).
			WithContext(errors.ContextLoader, compileErr.Loader).
			Build()
	}

	var resolveErr *graph.ResolveError
	if stderrors.As(err, &resolveErr) {
		return errors.CompileError("unresolved import").
			WithCause(resolveErr).
			WithContext(errors.ContextStage, string(stage)).
			WithContext(errors.ContextPath, resolveErr.Importer).
			Build()
	}

	switch stage {
	case StageWrite, StageEmitHTML, StageManifest, StagePromote, StageTraverse:
		return errors.WrapError(err, errors.CategoryFileSystem, "filesystem operation failed").Fatal().
			WithContext(errors.ContextStage, string(stage)).Build()
	default:
		return errors.WrapError(err, errors.CategoryBuild, "build step failed").Fatal().
			WithContext(errors.ContextStage, string(stage)).Build()
	}
}
