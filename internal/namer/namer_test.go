package namer

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName_DevelopmentIsStable(t *testing.T) {
	n := New(Options{})
	require.Equal(t, "main.js", n.Name("main", KindJS, []byte("a")))
	require.Equal(t, "main.js", n.Name("main", KindJS, []byte("b")))
	require.Equal(t, "static/css/main.css", n.Path("main", KindCSS, []byte("x")))
}

func TestName_ReleaseFingerprint(t *testing.T) {
	n := New(Options{Fingerprint: true, Length: 20})

	a1 := n.Name("main", KindJS, []byte("console.log(1)"))
	a2 := n.Name("main", KindJS, []byte("console.log(1)"))
	b := n.Name("main", KindJS, []byte("console.log(2)"))

	require.Equal(t, a1, a2, "identical content must produce identical names")
	require.NotEqual(t, a1, b, "changed content must change the name")
	require.Regexp(t, regexp.MustCompile(`^main\.[0-9a-f]{20}\.js$`), a1)
}

func TestFingerprint_SingleByteChange(t *testing.T) {
	n := New(Options{Fingerprint: true, Length: 8})
	base := []byte("body{color:red}")
	changed := []byte("body{color:rea}")
	require.NotEqual(t, n.Fingerprint(base), n.Fingerprint(changed))
	require.Len(t, n.Fingerprint(base), 8)
}

func TestNew_ClampsLengthAndCustomDirs(t *testing.T) {
	n := New(Options{Fingerprint: true, Length: 500, Dirs: map[string]string{KindJS: "assets"}})
	require.Len(t, n.Fingerprint([]byte("x")), 64)
	require.Regexp(t, `^assets/main\.[0-9a-f]{64}\.js$`, n.Path("main", KindJS, []byte("x")))
	require.Equal(t, "index.html", New(Options{}).Path("index", KindHTML, nil))
}
