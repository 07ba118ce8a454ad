package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func TestRead_OutsideRepository(t *testing.T) {
	rev, err := Read(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Revision{}, rev)
	require.Equal(t, "", rev.Short())
}

func TestRead_CommittedTree(t *testing.T) {
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)

	src := filepath.Join(repoPath, "src", "static")
	require.NoError(t, os.MkdirAll(src, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.js"), []byte("console.log(1)\n"), 0o600))

	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add(".")
	require.NoError(t, err)
	commit, err := w.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	rev, err := Read(src)
	require.NoError(t, err)
	require.Equal(t, commit.String(), rev.Commit)
	require.False(t, rev.Dirty)
	require.NotEmpty(t, rev.Branch)
	require.Len(t, rev.Short(), 12)

	require.NoError(t, os.WriteFile(filepath.Join(src, "index.js"), []byte("console.log(2)\n"), 0o600))
	rev, err = Read(src)
	require.NoError(t, err)
	require.True(t, rev.Dirty)
	require.Equal(t, commit.String()[:12]+"+dirty", rev.Short())
}
