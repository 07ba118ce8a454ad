package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// run parses args like the binary does and executes the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("assetpipe"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = ctx.Run(&Global{Stdout: &out}, &cli)
	return out.String(), err
}

const fakeElmScript = `#!/bin/sh
out=""
src=""
for a in "$@"; do
  case "$a" in
    --output=*) out="${a#--output=}" ;;
    *.elm) src="$a" ;;
  esac
done
if grep -q BROKEN "$src"; then
  echo "-- TYPE MISMATCH ------ $src" >&2
  exit 1
fi
echo '(function(scope){scope.Elm={Main:{init:function(){}}};}(this));' > "$out"
`

// newProject lays out a minimal application and returns its config path.
func newProject(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("compiler stub requires a POSIX shell")
	}
	root := t.TempDir()
	files := map[string]string{
		"bin/elm":                    fakeElmScript,
		"src/Main.elm":               "module Main exposing (main)\n",
		"src/static/index.js":        "import './styles/main.css';\nimport { Elm } from '../Main.elm';\nElm.Main.init({});\n",
		"src/static/styles/main.css": "body { color: red; }\n",
		"src/static/index.html":      "<html><head><title>x</title></head><body></body></html>\n",
	}
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o755))
	}
	cfgPath := filepath.Join(root, "assetpipe.yaml")
	yaml := "elm:\n  command: " + filepath.Join(root, "bin", "elm") + "\nhistory:\n  path: .assetpipe/history.db\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))
	return cfgPath
}

func TestInitCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "assetpipe.yaml")

	out, err := run(t, "-c", cfgPath, "init")
	require.NoError(t, err)
	require.Contains(t, out, "initialized successfully")
	require.FileExists(t, cfgPath)

	_, err = run(t, "-c", cfgPath, "init")
	require.Error(t, err, "existing config must not be overwritten without --force")

	_, err = run(t, "-c", cfgPath, "init", "--force")
	require.NoError(t, err)
}

func TestRulesCommand_JSON(t *testing.T) {
	cfgPath := newProject(t)

	out, err := run(t, "-c", cfgPath, "rules", "--mode", "release", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Mode  string                 `json:"mode"`
		Rules []loader.EffectiveRule `json:"rules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, "release", doc.Mode)
	require.NotEmpty(t, doc.Rules)

	found := false
	for _, r := range doc.Rules {
		for _, s := range r.Steps {
			if s.Loader == "elm" {
				found = true
				require.Equal(t, true, s.Options["optimize"])
				require.Equal(t, false, s.Options["debug"])
			}
		}
	}
	require.True(t, found, "default rules compile .elm files")
}

func TestRulesCommand_Text(t *testing.T) {
	cfgPath := newProject(t)
	out, err := run(t, "-c", cfgPath, "rules")
	require.NoError(t, err)
	require.Contains(t, out, "mode: development")
	require.Contains(t, out, "debug=true")
}

func TestBuildAndHistoryCommands(t *testing.T) {
	cfgPath := newProject(t)
	root := filepath.Dir(cfgPath)

	out, err := run(t, "-c", cfgPath, "build", "--mode", "development")
	require.NoError(t, err)
	require.Contains(t, out, "static/js/main.js")
	require.Contains(t, out, "static/css/main.css")
	require.FileExists(t, filepath.Join(root, "build", "index.html"))
	require.FileExists(t, filepath.Join(root, ".assetpipe", "history.db"))

	out, err = run(t, "-c", cfgPath, "history", "--limit", "5")
	require.NoError(t, err)
	require.Contains(t, out, "OUTCOME")
	require.Contains(t, out, "success")
	require.Contains(t, out, "development")
}

func TestBuildCommand_CompileFailureExitCode(t *testing.T) {
	cfgPath := newProject(t)
	root := filepath.Dir(cfgPath)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Main.elm"), []byte("BROKEN\n"), 0o644))

	_, err := run(t, "-c", cfgPath, "build")
	require.Error(t, err)

	var stderr bytes.Buffer
	adapter := errors.NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.Equal(t, 3, adapter.Report(&stderr, err))
	require.Contains(t, stderr.String(), "stage load failed")
	require.Contains(t, stderr.String(), filepath.Join(root, "src", "Main.elm"))
	require.Contains(t, stderr.String(), "TYPE MISMATCH")
	require.NoDirExists(t, filepath.Join(root, "build"))
}

func TestBuildCommand_MissingEntryExitCode(t *testing.T) {
	cfgPath := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(cfgPath), "src", "static", "index.js")))

	_, err := run(t, "-c", cfgPath, "build")
	require.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestHistoryCommand_Unconfigured(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "assetpipe.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("chunk: main\n"), 0o644))
	_, err := run(t, "-c", cfgPath, "history")
	require.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
}

func TestHistoryCommand_NegativeLimitIsUsageError(t *testing.T) {
	cfgPath := newProject(t)
	_, err := run(t, "-c", cfgPath, "history", "--limit=-1")
	require.Equal(t, errors.CategoryValidation, errors.GetCategory(err))
	require.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	require.Equal(t, slog.LevelInfo, parseLogLevel(false))
	require.Equal(t, slog.LevelDebug, parseLogLevel(true))
	t.Setenv(EnvLogLevel, "DEBUG")
	require.Equal(t, slog.LevelDebug, parseLogLevel(false))
	t.Setenv(EnvLogLevel, "warn")
	require.Equal(t, slog.LevelWarn, parseLogLevel(false))
}
