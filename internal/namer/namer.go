// Package namer computes physical artifact file names from logical names,
// build mode and final content.
package namer

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// Artifact kinds.
const (
	KindJS   = "js"
	KindCSS  = "css"
	KindHTML = "html"
)

// Namer names artifacts for one build. The scheme is fixed at construction:
// stable names (`main.js`) or content fingerprinted names (`main.<fp>.js`).
type Namer struct {
	fingerprint bool
	length      int
	dirs        map[string]string
}

// Options configures a Namer.
type Options struct {
	Fingerprint bool
	// Length of the hex fingerprint; clamped to [8, 64].
	Length int
	// Dirs maps artifact kind to its directory relative to the output root.
	Dirs map[string]string
}

// New creates a Namer.
func New(opts Options) *Namer {
	length := opts.Length
	if length < 8 {
		length = 8
	}
	if length > sha256.Size*2 {
		length = sha256.Size * 2
	}
	dirs := map[string]string{KindJS: "static/js", KindCSS: "static/css"}
	for k, v := range opts.Dirs {
		dirs[k] = v
	}
	return &Namer{fingerprint: opts.Fingerprint, length: length, dirs: dirs}
}

// Fingerprint returns the truncated hex SHA-256 of content.
func (n *Namer) Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:n.length]
}

// Name returns the file name for logicalName of the given kind. content must
// be the final bytes of the artifact, after every content-changing stage.
func (n *Namer) Name(logicalName, kind string, content []byte) string {
	ext := Extension(kind)
	if !n.fingerprint {
		return logicalName + "." + ext
	}
	return logicalName + "." + n.Fingerprint(content) + "." + ext
}

// Path returns the slash-separated path of the file relative to the output root.
func (n *Namer) Path(logicalName, kind string, content []byte) string {
	name := n.Name(logicalName, kind, content)
	dir := n.dirs[kind]
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// Extension maps an artifact kind to its file extension.
func Extension(kind string) string {
	return strings.TrimPrefix(strings.ToLower(kind), ".")
}
