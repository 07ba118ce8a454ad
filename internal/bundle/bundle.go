// Package bundle assembles loaded modules into one self-executing JavaScript
// chunk with a minimal CommonJS style module registry.
package bundle

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Extracted is the dependency index of a module whose content went to the
// extraction sink. Requiring it yields an empty object.
const Extracted = -1

const runtimeHeader = `(function (modules, entry) {
  var process = { env: %s };
  var cache = {};
  function load(id) {
    if (id < 0) return {};
    if (cache[id]) return cache[id].exports;
    var def = modules[id];
    var module = cache[id] = { exports: {} };
    def[0].call(module.exports, function (spec) {
      var dep = def[1][spec];
      if (dep === undefined) throw new Error("Cannot find module '" + spec + "'");
      return load(dep);
    }, module, module.exports, process);
    return module.exports;
  }
  load(entry);
})({
`

// Module is one registry entry.
type Module struct {
	Index int
	// ID is a stable, machine independent name used in comments.
	ID   string
	Code string
	// Extracted modules are registered with an empty body.
	Extracted bool
	// Deps maps require specifiers to module indices (or Extracted).
	Deps map[string]int
}

// Options controls runtime globals.
type Options struct {
	// NodeEnv is exposed as process.env.NODE_ENV. Empty leaves process.env empty.
	NodeEnv string
}

// Assemble renders modules, ordered by Index, and the call of entry.
func Assemble(modules []Module, entry int, opts Options) (string, error) {
	mods := slices.Clone(modules)
	slices.SortFunc(mods, func(a, b Module) int { return a.Index - b.Index })

	known := make(map[int]bool, len(mods))
	for i, m := range mods {
		if i > 0 && mods[i-1].Index == m.Index {
			return "", fmt.Errorf("duplicate module index %d", m.Index)
		}
		known[m.Index] = true
	}
	if !known[entry] {
		return "", fmt.Errorf("entry module %d not in bundle", entry)
	}

	env := "{}"
	if opts.NodeEnv != "" {
		quoted, err := json.Marshal(opts.NodeEnv)
		if err != nil {
			return "", err
		}
		env = fmt.Sprintf("{ NODE_ENV: %s }", quoted)
	}
	var b strings.Builder
	fmt.Fprintf(&b, runtimeHeader, env)
	for i, m := range mods {
		deps, err := depsLiteral(m, known)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "/* %s */ %d: [function (require, module, exports, process) {\n", commentSafe(m.ID), m.Index)
		if !m.Extracted && m.Code != "" {
			b.WriteString(m.Code)
			if !strings.HasSuffix(m.Code, "\n") {
				b.WriteByte('\n')
			}
		}
		b.WriteString("}, ")
		b.WriteString(deps)
		b.WriteString("]")
		if i < len(mods)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "}, %d);\n", entry)
	return b.String(), nil
}

func depsLiteral(m Module, known map[int]bool) (string, error) {
	specs := make([]string, 0, len(m.Deps))
	for spec, idx := range m.Deps {
		if idx != Extracted && !known[idx] {
			return "", fmt.Errorf("module %s requires %q: index %d not in bundle", m.ID, spec, idx)
		}
		specs = append(specs, spec)
	}
	slices.Sort(specs)

	var b strings.Builder
	b.WriteByte('{')
	for i, spec := range specs {
		key, err := json.Marshal(spec)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d", key, m.Deps[spec])
	}
	b.WriteByte('}')
	return b.String(), nil
}

func commentSafe(id string) string {
	return strings.ReplaceAll(id, "*/", "*\\/")
}
