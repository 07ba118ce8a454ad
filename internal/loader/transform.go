package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// SourceFile identifies one module on disk.
type SourceFile struct {
	Path        string // absolute
	ContentType string // lowercase extension without the dot
}

// NewSourceFile derives the content type from the file extension.
func NewSourceFile(path string) SourceFile {
	return SourceFile{
		Path:        path,
		ContentType: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}
}

// Input is what a transform receives: the current text plus the merged
// options of its chain entry.
type Input struct {
	Path        string
	ContentType string
	Text        string
	Options     map[string]any
}

// Bool returns the boolean option key, accepting "true"/"false" strings.
func (in Input) Bool(key string) bool {
	switch v := in.Options[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// String returns the string option key or "".
func (in Input) String(key string) string {
	if v, ok := in.Options[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Strings returns a list option; a single string becomes a one element list.
func (in Input) Strings(key string) []string {
	switch v := in.Options[key].(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Transform is one step of a loader chain.
type Transform interface {
	Name() string
	Apply(ctx context.Context, in Input) (string, error)
}

type funcTransform struct {
	name string
	fn   func(context.Context, Input) (string, error)
}

func (f funcTransform) Name() string { return f.name }

func (f funcTransform) Apply(ctx context.Context, in Input) (string, error) { return f.fn(ctx, in) }

// TransformFunc adapts a function into a named Transform.
func TransformFunc(name string, fn func(context.Context, Input) (string, error)) Transform {
	return funcTransform{name: name, fn: fn}
}

// Registry maps loader names to transforms.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewRegistry creates a registry holding ts.
func NewRegistry(ts ...Transform) *Registry {
	r := &Registry{transforms: make(map[string]Transform)}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any transform with the same name.
func (r *Registry) Register(t Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[t.Name()] = t
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transforms[name]
	return t, ok
}

// Names returns the registered loader names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transforms))
	for n := range r.transforms {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
