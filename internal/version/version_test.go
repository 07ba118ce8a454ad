package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = v, c, b })

	Version, GitCommit, BuildTime = "v1.2.3", "unknown", "unknown"
	require.Equal(t, "v1.2.3", String())

	GitCommit, BuildTime = "abc123", "2026-01-02"
	require.Equal(t, "v1.2.3 (commit abc123, built 2026-01-02)", String())
}
