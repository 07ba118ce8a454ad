package transforms

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// Pipe feeds the text to an external command on stdin and returns its
// stdout. An empty command makes it the identity.
type Pipe struct {
	name    string
	Command string
	Args    []string
	Dir     string
}

// NewPostCSS returns the postcss loader configured from cfg.
func NewPostCSS(cfg config.CommandConfig, dir string) *Pipe {
	return &Pipe{name: config.LoaderPostCSS, Command: cfg.Command, Args: slices.Clone(cfg.Args), Dir: dir}
}

func (p *Pipe) Name() string { return p.name }

func (p *Pipe) Apply(ctx context.Context, in loader.Input) (string, error) {
	if p.Command == "" {
		return in.Text, nil
	}
	return pipe(ctx, p.name, p.Command, p.Args, p.Dir, in)
}

// Exec is the generic command loader. The command and its arguments come
// from the rule options `command` and `args`.
type Exec struct {
	Dir string
}

func (Exec) Name() string { return config.LoaderExec }

func (e Exec) Apply(ctx context.Context, in loader.Input) (string, error) {
	command := in.String("command")
	if command == "" {
		return "", &loader.CompileError{FilePath: in.Path, Loader: config.LoaderExec, Message: "exec loader requires the command option"}
	}
	return pipe(ctx, config.LoaderExec, command, in.Strings("args"), e.Dir, in)
}

func pipe(ctx context.Context, name, command string, args []string, dir string, in loader.Input) (string, error) {
	if dir == "" {
		dir = filepath.Dir(in.Path)
	}
	res, err := runCommand(ctx, command, args, dir, strings.NewReader(in.Text))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		msg := strings.TrimSpace(res.stderr)
		if msg == "" {
			msg = err.Error()
		}
		return "", &loader.CompileError{FilePath: in.Path, Loader: name, Message: msg, Err: err}
	}
	return res.stdout, nil
}
