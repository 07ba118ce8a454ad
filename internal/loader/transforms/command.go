package transforms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrCommandNotFound is returned when a configured executable is not on PATH.
var ErrCommandNotFound = errors.New("command not found")

type commandResult struct {
	stdout string
	stderr string
}

// output combines both streams for diagnostics; compilers write errors to either.
func (r commandResult) output() string {
	out := strings.TrimSpace(r.stdout)
	errOut := strings.TrimSpace(r.stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// runCommand executes name with args in dir, feeding stdin when non-nil.
func runCommand(ctx context.Context, name string, args []string, dir string, stdin io.Reader) (commandResult, error) {
	if _, err := exec.LookPath(name); err != nil {
		return commandResult{}, fmt.Errorf("%w: %s: %w", ErrCommandNotFound, name, err)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := commandResult{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, err
	}
	return res, nil
}
