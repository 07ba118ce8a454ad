package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/history"
)

// EnvLogLevel selects the log level when -v is not given.
const EnvLogLevel = "ASSETPIPE_LOG_LEVEL"

// Global carries state shared by all subcommands.
type Global struct {
	// Stdout receives user-facing output; nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"assetpipe.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the application assets once"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild on changes and serve the output directory"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Rules   RulesCmd   `cmd:"" help:"Print the effective loader chains for the resolved mode"`
	History HistoryCmd `cmd:"" help:"List recorded builds"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors -v first, then ASSETPIPE_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv(EnvLogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.LoadOrDefault(root.Config)
}

// historyPath resolves the history database: the flag wins over the config,
// and relative config paths are taken from the config file directory.
func historyPath(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	p := cfg.History.Path
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.BaseDir(), p)
}

func openHistory(path string) (history.Store, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}
