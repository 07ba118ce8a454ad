package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyMode       = "mode"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyLoader     = "loader"
	KeyKind       = "kind"
	KeyChunk      = "chunk"
	KeyArtifact   = "artifact"
	KeyBytes      = "bytes"
	KeyModules    = "modules"
	KeyOutput     = "output"
	KeyRevision   = "revision"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Loader(name string) slog.Attr    { return slog.String(KeyLoader, name) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Chunk(c string) slog.Attr        { return slog.String(KeyChunk, c) }
func Artifact(name string) slog.Attr  { return slog.String(KeyArtifact, name) }
func Bytes(n int) slog.Attr           { return slog.Int(KeyBytes, n) }
func Modules(n int) slog.Attr         { return slog.Int(KeyModules, n) }
func Output(dir string) slog.Attr     { return slog.String(KeyOutput, dir) }
func Revision(rev string) slog.Attr   { return slog.String(KeyRevision, rev) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
