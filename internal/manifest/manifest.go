// Package manifest describes the files a build emitted, keyed by logical name.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"
)

// FileName is the default manifest file name in the output root.
const FileName = "asset-manifest.json"

// Entry is one emitted artifact.
type Entry struct {
	Logical string // e.g. main.js
	Kind    string
	Path    string // slash separated, relative to the output root
	Content []byte
}

// AssetManifest maps logical names to emitted paths. It carries no
// timestamps; identical builds produce identical manifests.
type AssetManifest struct {
	Mode        string            `json:"mode"`
	Files       map[string]string `json:"files"`
	Entrypoints []string          `json:"entrypoints"`
	Integrity   map[string]string `json:"integrity,omitempty"`
}

// Build creates the manifest for entries. Entrypoints lists the CSS and JS
// files in the order the HTML shell loads them.
func Build(mode string, entries []Entry) *AssetManifest {
	m := &AssetManifest{
		Mode:        mode,
		Files:       make(map[string]string, len(entries)),
		Entrypoints: []string{},
		Integrity:   make(map[string]string, len(entries)),
	}
	var css, js []string
	for _, e := range entries {
		m.Files[e.Logical] = e.Path
		sum := sha256.Sum256(e.Content)
		m.Integrity[e.Path] = fmt.Sprintf("sha256-%x", sum)
		switch e.Kind {
		case "css":
			css = append(css, e.Path)
		case "js":
			js = append(js, e.Path)
		}
	}
	slices.Sort(css)
	slices.Sort(js)
	m.Entrypoints = append(append(m.Entrypoints, css...), js...)
	return m
}

// Paths returns every emitted path, sorted.
func (m *AssetManifest) Paths() []string {
	out := make([]string, 0, len(m.Files))
	for _, p := range m.Files {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ToJSON serializes the manifest to indented JSON. Map keys are sorted by
// encoding/json, so the output is stable.
func (m *AssetManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*AssetManifest, error) {
	var m AssetManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a digest over the emitted files, identifying the build output.
func (m *AssetManifest) Hash() (string, error) {
	data, err := json.Marshal(struct {
		Files     map[string]string `json:"files"`
		Integrity map[string]string `json:"integrity"`
	}{m.Files, m.Integrity})
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
