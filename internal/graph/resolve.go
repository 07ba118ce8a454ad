package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveError reports an import that could not be mapped to a file.
type ResolveError struct {
	Importer  string
	Specifier string
	Reason    string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot resolve %q from %s: %s", e.Specifier, e.Importer, e.Reason)
}

// Resolver maps import specifiers to files. Only relative specifiers are
// resolved; there is no package directory lookup.
type Resolver struct {
	// Root is the source root; module IDs are relative to it.
	Root string
	// Extensions are tried in order when the specifier has none, e.g. ".js".
	Extensions []string
	// StylesDir is a second search root for stylesheet imports.
	StylesDir string
}

// IsRelative reports whether spec starts with ./ or ../.
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// Resolve maps spec, imported from the file importer, to an absolute path.
// Stylesheet imports (fromCSS) treat bare names as relative, like CSS URLs,
// and fall back to StylesDir.
func (r Resolver) Resolve(importer, spec string, fromCSS bool) (string, error) {
	if filepath.IsAbs(spec) {
		return "", &ResolveError{Importer: importer, Specifier: spec, Reason: "absolute specifiers are not supported"}
	}
	if !fromCSS && !IsRelative(spec) {
		return "", &ResolveError{Importer: importer, Specifier: spec, Reason: "bare module specifiers are not supported"}
	}

	roots := []string{filepath.Dir(importer)}
	if fromCSS && r.StylesDir != "" {
		roots = append(roots, r.StylesDir)
	}
	for _, root := range roots {
		if p, ok := r.lookup(filepath.Join(root, filepath.FromSlash(spec))); ok {
			return p, nil
		}
	}
	return "", &ResolveError{Importer: importer, Specifier: spec, Reason: "file not found"}
}

func (r Resolver) lookup(candidate string) (string, bool) {
	if isFile(candidate) {
		return candidate, true
	}
	for _, ext := range r.Extensions {
		if isFile(candidate + ext) {
			return candidate + ext, true
		}
	}
	for _, ext := range r.Extensions {
		index := filepath.Join(candidate, "index"+ext)
		if isFile(index) {
			return index, true
		}
	}
	return "", false
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// ModuleID returns the slash separated path of p relative to the root.
func (r Resolver) ModuleID(p string) string {
	if r.Root != "" {
		if rel, err := filepath.Rel(r.Root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}
