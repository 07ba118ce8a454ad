package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, discardLogger())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "compile", err: CompileError("syntax error").Build(), expected: 3},
		{name: "config", err: ConfigError("missing template").Build(), expected: 7},
		{name: "filesystem", err: FileSystemError("disk full").Build(), expected: 11},
		{name: "build", err: BuildError("naming failed").Build(), expected: 11},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "wrapped compile", err: fmt.Errorf("stage: %w", CompileError("x").Build()), expected: 3},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, discardLogger())

	err := WrapError(errors.New("unexpected token"), CategoryCompile, "loader chain failed").
		WithContext(ContextStage, "load").
		WithContext(ContextPath, "/src/elm/Main.elm").
		Build()

	got := adapter.FormatError(err)
	for _, want := range []string{"stage load failed", "/src/elm/Main.elm", "loader chain failed", "unexpected token"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatError() = %q, missing %q", got, want)
		}
	}

	if adapter.FormatError(nil) != "" {
		t.Error("expected empty string for nil error")
	}
	if got := adapter.FormatError(errors.New("boom")); got != "assetpipe: boom" {
		t.Errorf("unexpected unclassified format %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var stderr bytes.Buffer
	adapter := NewCLIErrorAdapter(false, discardLogger())

	code := adapter.Report(&stderr, ConfigError("template not found").WithContext(ContextPath, "index.html").Build())
	if code != 7 {
		t.Fatalf("expected exit code 7, got %d", code)
	}
	if !strings.Contains(stderr.String(), "index.html: template not found") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
	if adapter.Report(&stderr, nil) != 0 {
		t.Fatal("expected 0 for nil error")
	}
}
