package transforms

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Elm compiles an Elm entry module with the external `elm make`. The compiler
// reads the module tree from disk, so the incoming text is ignored.
//
// Options: debug, optimize (mode flags), verbose (log compiler stdout), warn
// (log compiler stderr on success).
type Elm struct {
	// Command is the executable, "elm" by default.
	Command string
	// Args are placed before the make sub command, e.g. command "npx" with
	// args ["elm"].
	Args []string
	// Dir is the working directory holding elm.json.
	Dir string
}

// NewElm configures the transform from the elm section of the config.
func NewElm(cfg config.ElmConfig, dir string) *Elm {
	return &Elm{Command: cfg.Command, Args: slices.Clone(cfg.Args), Dir: dir}
}

func (e *Elm) Name() string { return config.LoaderElm }

func (e *Elm) Apply(ctx context.Context, in loader.Input) (string, error) {
	command := e.Command
	if command == "" {
		command = "elm"
	}

	tmp, err := os.MkdirTemp("", "assetpipe-elm-")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.RemoveAll(tmp) }()
	outFile := filepath.Join(tmp, "elm.js")

	args := append(slices.Clone(e.Args), "make", in.Path, "--output="+outFile)
	switch {
	case in.Bool("optimize"):
		args = append(args, "--optimize")
	case in.Bool("debug"):
		args = append(args, "--debug")
	}

	dir := e.Dir
	if dir == "" {
		dir = filepath.Dir(in.Path)
	}
	slog.Debug("Invoking elm compiler", logfields.Path(in.Path), slog.Any("args", args))

	res, err := runCommand(ctx, command, args, dir, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		msg := res.output()
		if msg == "" {
			msg = err.Error()
		}
		return "", &loader.CompileError{FilePath: in.Path, Loader: config.LoaderElm, Message: msg, Err: err}
	}
	if in.Bool("verbose") && res.stdout != "" {
		slog.Debug("elm stdout", logfields.Path(in.Path), slog.String("output", res.stdout))
	}
	if in.Bool("warn") && res.stderr != "" {
		slog.Warn("elm compiler warnings", logfields.Path(in.Path), slog.String("output", res.stderr))
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		return "", &loader.CompileError{FilePath: in.Path, Loader: config.LoaderElm, Message: "compiler produced no output", Err: err}
	}
	return string(data), nil
}
