package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaging_PromoteReplacesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.js"), []byte("old"), 0o644))

	bs := &BuildState{outputDir: out}
	require.NoError(t, bs.beginStaging())
	require.NoError(t, bs.writeStaged("static/js/main.js", []byte("new")))
	require.NoError(t, bs.finalizeStaging())

	data, err := os.ReadFile(filepath.Join(out, "static", "js", "main.js"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
	_, err = os.Stat(filepath.Join(out, "stale.js"))
	require.True(t, os.IsNotExist(err), "files of the previous build must not survive promotion")
	_, err = os.Stat(out + ".prev")
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(out + "_stage")
	require.True(t, os.IsNotExist(err))
}

func TestStaging_BeginDiscardsLeftovers(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build")
	leftover := filepath.Join(out+"_stage", "junk.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(leftover), 0o755))
	require.NoError(t, os.WriteFile(leftover, []byte("x"), 0o644))

	bs := &BuildState{outputDir: out}
	require.NoError(t, bs.beginStaging())
	_, err := os.Stat(leftover)
	require.True(t, os.IsNotExist(err))
}

func TestStaging_Abort(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build")
	bs := &BuildState{outputDir: out}
	require.NoError(t, bs.beginStaging())
	require.NoError(t, bs.writeStaged("index.html", []byte("<html></html>")))

	bs.abortStaging()
	_, err := os.Stat(out + "_stage")
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))

	// A second abort is a no-op.
	bs.abortStaging()
}

func TestStaging_WriteWithoutBegin(t *testing.T) {
	bs := &BuildState{outputDir: filepath.Join(t.TempDir(), "build")}
	require.Error(t, bs.writeStaged("a.js", nil))
	require.Error(t, bs.finalizeStaging())
}
