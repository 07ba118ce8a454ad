package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
)

// Stage is a discrete unit of work in the build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageValidate StageName = "validate"
	StageTraverse StageName = "traverse"
	StageLoad     StageName = "load"
	StageSeal     StageName = "seal"
	StageOptimize StageName = "optimize"
	StageNaming   StageName = "name"
	StageWrite    StageName = "write"
	StageEmitHTML StageName = "emit_html"
	StageManifest StageName = "manifest"
	StagePromote  StageName = "promote"
)

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// StageError reports the stage a build failed in.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// defaultStages returns the fixed build order.
func defaultStages() []StageDef {
	return []StageDef{
		{StageValidate, stageValidate},
		{StageTraverse, stageTraverse},
		{StageLoad, stageLoad},
		{StageSeal, stageSeal},
		{StageOptimize, stageOptimize},
		{StageNaming, stageName},
		{StageWrite, stageWrite},
		{StageEmitHTML, stageEmitHTML},
		{StageManifest, stageManifest},
		{StagePromote, stagePromote},
	}
}

// RunStages executes stages in order, recording timing and stopping on the
// first error. Cancellation is checked before each stage.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			bs.Report.recordStage(st.Name, 0, StageResultCanceled)
			bs.recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return &StageError{Stage: st.Name, Err: classify(st.Name, ctx.Err())}
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			result := StageResultFatal
			label := metrics.ResultFatal
			cause := err
			if ctxErr := ctx.Err(); ctxErr != nil {
				result, label, cause = StageResultCanceled, metrics.ResultCanceled, ctxErr
			}
			bs.Report.recordStage(st.Name, dur, result)
			bs.recorder.IncStageResult(string(st.Name), label)
			slog.Debug("Stage failed", logfields.Stage(string(st.Name)), logfields.Error(err))
			return &StageError{Stage: st.Name, Err: classify(st.Name, cause)}
		}

		bs.Report.recordStage(st.Name, dur, StageResultSuccess)
		bs.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		slog.Debug("Stage complete",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000.0))
	}
	return nil
}
