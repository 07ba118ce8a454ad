package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// beginStaging creates an empty sibling staging directory <output>_stage.
// Leftovers of an interrupted build are discarded.
func (bs *BuildState) beginStaging() error {
	stage := bs.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return errors.FileSystemError("clear staging directory").WithCause(err).
			WithContext(errors.ContextPath, stage).
			WithContext(errors.ContextOp, "remove").Build()
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return errors.FileSystemError("create staging directory").WithCause(err).
			WithContext(errors.ContextPath, stage).
			WithContext(errors.ContextOp, "mkdir").Build()
	}
	bs.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", bs.outputDir)
	return nil
}

// writeStaged writes data to rel (slash separated) inside the staging directory.
func (bs *BuildState) writeStaged(rel string, data []byte) error {
	if bs.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	p := filepath.Join(bs.stageDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// finalizeStaging promotes the staging directory to the output location:
//  1. Move the existing output (if any) to <output>.prev.
//  2. Rename staging to output; on failure restore the backup.
//  3. Remove the backup.
func (bs *BuildState) finalizeStaging() error {
	if bs.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(bs.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(bs.outputDir), 0o755); err != nil {
		return err
	}

	prev := bs.outputDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove stale backup: %w", err)
	}
	backedUp := false
	if _, err := os.Stat(bs.outputDir); err == nil {
		if err := os.Rename(bs.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
		backedUp = true
	}
	if err := os.Rename(bs.stageDir, bs.outputDir); err != nil {
		if backedUp {
			if rerr := os.Rename(prev, bs.outputDir); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		return fmt.Errorf("promote staging: %w", err)
	}
	bs.stageDir = ""
	if backedUp {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	slog.Debug("Promoted staging directory", logfields.Output(bs.outputDir))
	return nil
}

// abortStaging removes the staging directory after a failed build so the
// previous output stays the only one on disk.
func (bs *BuildState) abortStaging() {
	if bs.stageDir == "" {
		return
	}
	dir := bs.stageDir
	bs.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
	} else {
		slog.Debug("Removed staging directory after abort", "staging", dir)
	}
}
