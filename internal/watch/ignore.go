package watch

import (
	"path/filepath"
	"strings"
)

// ignoredDirs never contain build inputs.
var ignoredDirs = map[string]bool{
	"elm-stuff":    true,
	"node_modules": true,
	".git":         true,
}

// filter decides which paths below root take part in watching. The output
// directory and its staging siblings are excluded so a build never
// retriggers itself.
type filter struct {
	root   string
	output string
}

// skipDir reports whether a directory is left unwatched.
func (f filter) skipDir(path string) bool {
	return ignoredDirs[filepath.Base(path)] || f.inOutput(path)
}

// ignore returns true for filesystem events that should not trigger rebuilds.
func (f filter) ignore(path string) bool {
	if f.inOutput(path) || f.inIgnoredTree(path) {
		return true
	}
	base := filepath.Base(path)

	// hidden files
	if strings.HasPrefix(base, ".") {
		return true
	}
	// editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

func (f filter) inOutput(path string) bool {
	if f.output == "" {
		return false
	}
	return within(path, f.output) || within(path, f.output+"_stage") || within(path, f.output+".prev")
}

func (f filter) inIgnoredTree(path string) bool {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
