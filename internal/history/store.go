// Package history persists a record of every build for the history command.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no build with the requested ID exists.
var ErrNotFound = errors.New("build not found")

// StageTiming is the outcome of one pipeline stage.
type StageTiming struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	Result     string `json:"result"`
}

// Record summarizes one build.
type Record struct {
	ID         string        `json:"id"`
	Mode       string        `json:"mode"`
	Outcome    string        `json:"outcome"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Revision   string        `json:"revision,omitempty"`
	OutputHash string        `json:"output_hash,omitempty"`
	Error      string        `json:"error,omitempty"`
	Stages     []StageTiming `json:"stages,omitempty"`
	Artifacts  []string      `json:"artifacts,omitempty"`
}

// Duration returns the wall time of the build.
func (r Record) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Store defines the interface for persisting and retrieving build records.
type Store interface {
	// Append stores rec; IDs are unique.
	Append(ctx context.Context, rec Record) error

	// Get retrieves the record with id.
	Get(ctx context.Context, id string) (Record, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Close closes the store and releases resources.
	Close() error
}
