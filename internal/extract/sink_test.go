package extract

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSink_EmitSealOrder(t *testing.T) {
	s := NewSink()
	require.NoError(t, s.Emit("main", "css", "a{}"))
	require.NoError(t, s.Emit("main", "css", "b{}\n"))
	require.NoError(t, s.Emit("main", "css", "c{}"))

	require.Equal(t, "a{}\nb{}\nc{}\n", s.Seal("main", "css"))
	require.True(t, s.Sealed("main", "css"))
}

func TestSink_RejectsEmitAfterSeal(t *testing.T) {
	s := NewSink()
	require.NoError(t, s.Emit("main", "css", "a{}"))
	first := s.Seal("main", "css")

	err := s.Emit("main", "css", "late{}")
	require.True(t, errors.Is(err, ErrSealed))
	require.Error(t, s.EmitAt("main", "css", 9, "late{}"))
	require.Equal(t, first, s.Seal("main", "css"), "sealing twice must return the same text")
}

func TestSink_EmptyAndIsolatedKinds(t *testing.T) {
	s := NewSink()
	require.Equal(t, "", s.Seal("empty", "css"))
	require.True(t, s.Sealed("empty", "css"))
	require.ErrorIs(t, s.Emit("empty", "css", "late{}"), ErrSealed)
	require.Empty(t, s.Kinds("empty"))

	require.NoError(t, s.Emit("main", "css", "x{}"))
	require.NoError(t, s.Emit("other", "css", "y{}"))
	require.Equal(t, []string{"css"}, s.Kinds("main"))
	require.Equal(t, "y{}\n", s.Seal("other", "css"))
	require.Equal(t, 1, s.Len("main", "css"))
}

// Fragments emitted concurrently in arbitrary order must seal in graph
// position order, each exactly once.
func TestSink_ConcurrentEmitAtIsDeterministic(t *testing.T) {
	const n = 200
	s := NewSink()

	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(pos int) {
			defer wg.Done()
			if err := s.EmitAt("main", "css", pos, fmt.Sprintf(".m%d{}", pos)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	sealed := s.Seal("main", "css")
	lines := strings.Split(strings.TrimSuffix(sealed, "\n"), "\n")
	require.Len(t, lines, n)
	for i, line := range lines {
		require.Equal(t, fmt.Sprintf(".m%d{}", i), line)
	}
}

func TestSink_SamePositionKeepsEmitOrder(t *testing.T) {
	s := NewSink()
	require.NoError(t, s.EmitAt("main", "css", 1, "second{}"))
	require.NoError(t, s.EmitAt("main", "css", 0, "first{}"))
	require.NoError(t, s.EmitAt("main", "css", 1, "third{}"))
	require.Equal(t, "first{}\nsecond{}\nthird{}\n", s.Seal("main", "css"))
}

func TestSink_CallOrderedFragmentsFollowPositioned(t *testing.T) {
	s := NewSink()
	require.NoError(t, s.Emit("main", "css", "late-a{}"))
	require.NoError(t, s.EmitAt("main", "css", 5, "pos5{}"))
	require.NoError(t, s.Emit("main", "css", "late-b{}"))
	require.NoError(t, s.EmitAt("main", "css", 0, "pos0{}"))
	require.Equal(t, "pos0{}\npos5{}\nlate-a{}\nlate-b{}\n", s.Seal("main", "css"))
}

func TestSink_SealAll(t *testing.T) {
	s := NewSink()
	require.NoError(t, s.Emit("main", "css", "a{}"))
	require.NoError(t, s.Emit("main", "txt", "hello"))
	all := s.SealAll("main")
	require.Equal(t, map[string]string{"css": "a{}\n", "txt": "hello\n"}, all)
	require.Error(t, s.Emit("main", "txt", "more"))
}
