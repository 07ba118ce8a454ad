package config

import (
	"os"
	"strings"
)

// BuildMode selects between fast iteration and size-optimized output. It is
// resolved once per build and never changes during it.
type BuildMode int

const (
	// Development keeps stable file names, skips optimization and enables loader debug flags.
	Development BuildMode = iota
	// Release fingerprints file names and runs the optimizer stage.
	Release
)

// Environment variables consulted, in order, when no explicit mode flag is given.
const (
	EnvMode    = "ASSETPIPE_MODE"
	EnvNodeEnv = "NODE_ENV"
)

func (m BuildMode) String() string {
	if m == Release {
		return "release"
	}
	return "development"
}

// IsRelease reports whether m is Release.
func (m BuildMode) IsRelease() bool { return m == Release }

// ParseMode maps an external signal to a BuildMode. Unrecognized or empty
// signals resolve to Development.
func ParseMode(signal string) BuildMode {
	switch strings.ToLower(strings.TrimSpace(signal)) {
	case "release", "production", "prod":
		return Release
	default:
		return Development
	}
}

// ModeSignal returns the raw mode signal: the explicit flag when set, otherwise
// ASSETPIPE_MODE, otherwise NODE_ENV.
func ModeSignal(flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	if v := os.Getenv(EnvMode); v != "" {
		return v
	}
	return os.Getenv(EnvNodeEnv)
}
