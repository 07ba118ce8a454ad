package pipeline

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/assetpipe/internal/history"
)

// Build outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// StageRecord is the timing and result of one executed stage.
type StageRecord struct {
	Name     StageName
	Duration time.Duration
	Result   StageResult
}

// BuildReport describes one build. It is logged and stored in the build
// history, never written into the output directory.
type BuildReport struct {
	ID         string
	Mode       string
	Start      time.Time
	End        time.Time
	Stages     []StageRecord
	Outcome    string
	Artifacts  []string
	Revision   string
	OutputHash string
	Error      string
}

func newBuildReport(mode string) *BuildReport {
	return &BuildReport{ID: uuid.NewString(), Mode: mode, Start: time.Now()}
}

func (r *BuildReport) recordStage(name StageName, d time.Duration, result StageResult) {
	r.Stages = append(r.Stages, StageRecord{Name: name, Duration: d, Result: result})
}

// StageDuration returns the recorded duration of stage, or zero.
func (r *BuildReport) StageDuration(stage StageName) time.Duration {
	for _, s := range r.Stages {
		if s.Name == stage {
			return s.Duration
		}
	}
	return 0
}

// Duration returns the wall time of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r *BuildReport) finish(outcome string, err error) {
	r.End = time.Now()
	r.Outcome = outcome
	if err != nil {
		r.Error = err.Error()
	}
}

// Record converts the report into a history record.
func (r *BuildReport) Record() history.Record {
	rec := history.Record{
		ID:         r.ID,
		Mode:       r.Mode,
		Outcome:    r.Outcome,
		StartedAt:  r.Start,
		FinishedAt: r.End,
		Revision:   r.Revision,
		OutputHash: r.OutputHash,
		Error:      r.Error,
		Artifacts:  r.Artifacts,
	}
	for _, s := range r.Stages {
		rec.Stages = append(rec.Stages, history.StageTiming{
			Name:       string(s.Name),
			DurationMS: s.Duration.Milliseconds(),
			Result:     string(s.Result),
		})
	}
	return rec
}
