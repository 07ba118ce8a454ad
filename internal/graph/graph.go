// Package graph discovers the modules reachable from an entry file.
package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Module is one file of the graph.
type Module struct {
	// Position orders modules with dependencies before their importers.
	Position    int
	Path        string
	ID          string
	ContentType string
	Source      string
	// Deps maps each specifier found in Source to the resolved module path.
	Deps map[string]string
	// Order lists the resolved dependency paths in source order.
	Order []string
}

// Graph is the result of a walk.
type Graph struct {
	Entry   *Module
	Modules []*Module // by Position
	byPath  map[string]*Module
}

// Lookup returns the module at path.
func (g *Graph) Lookup(path string) (*Module, bool) {
	m, ok := g.byPath[path]
	return m, ok
}

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.Modules) }

// Paths returns module paths in position order.
func (g *Graph) Paths() []string {
	out := make([]string, len(g.Modules))
	for i, m := range g.Modules {
		out[i] = m.Path
	}
	return out
}

type walker struct {
	ctx      context.Context
	resolver Resolver
	byPath   map[string]*Module
	visiting map[string]bool
	order    []*Module
}

// Walk reads the entry and every module it transitively imports. Positions
// are assigned depth first, a module after all of its dependencies, so the
// stylesheet a sheet imports precedes it. Elm modules are leaves: the Elm
// compiler follows Elm imports itself.
func Walk(ctx context.Context, entry string, r Resolver) (*Graph, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, err
	}
	w := &walker{
		ctx:      ctx,
		resolver: r,
		byPath:   make(map[string]*Module),
		visiting: make(map[string]bool),
	}
	if err := w.visit(abs); err != nil {
		return nil, err
	}
	return &Graph{Entry: w.byPath[abs], Modules: w.order, byPath: w.byPath}, nil
}

func (w *walker) visit(path string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if _, done := w.byPath[path]; done || w.visiting[path] {
		return nil
	}
	w.visiting[path] = true
	defer delete(w.visiting, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}
	m := &Module{
		Path:        path,
		ID:          w.resolver.ModuleID(path),
		ContentType: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Source:      string(data),
		Deps:        map[string]string{},
	}

	specs, fromCSS, err := scan(m)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		dep, err := w.resolver.Resolve(path, spec, fromCSS)
		if err != nil {
			return err
		}
		m.Deps[spec] = dep
		m.Order = append(m.Order, dep)
		if err := w.visit(dep); err != nil {
			return err
		}
	}

	m.Position = len(w.order)
	w.order = append(w.order, m)
	w.byPath[path] = m
	return nil
}

func scan(m *Module) ([]string, bool, error) {
	switch m.ContentType {
	case "js", "mjs", "cjs", "jsx":
		return ScanJS(m.Source), false, nil
	case "css":
		specs, err := ScanCSS(m.Source)
		if err != nil {
			return nil, true, fmt.Errorf("parse %s: %w", m.Path, err)
		}
		return specs, true, nil
	default:
		return nil, false, nil
	}
}
