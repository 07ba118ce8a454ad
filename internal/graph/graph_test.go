package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func ids(g *Graph) []string {
	out := make([]string, 0, g.Len())
	for _, m := range g.Modules {
		out = append(out, m.ID)
	}
	return out
}

func TestScanJS(t *testing.T) {
	src := `import './main.css';
import { Elm } from "./Main.elm";
import * as util from './util';
const x = require('./legacy.js');
export { a } from './reexport';
import './main.css';
`
	require.Equal(t, []string{"./main.css", "./Main.elm", "./util", "./legacy.js", "./reexport"}, ScanJS(src))
}

func TestScanJS_IgnoresCommentsAndLiterals(t *testing.T) {
	src := "// const old = require('./legacy.css');\n" +
		"import './styles/main.css';\n" +
		"/* import './gone.css';\n   require(\"./gone.js\") */\n" +
		"const msg = \"require('./in-string.js')\";\n" +
		"const tpl = `\nimport './in-template.css';\n`;\n" +
		"const re = /require\\('x'\\)/g;\n" +
		"const half = 4 / 2; const x = require('./real.js'); // require('./trailing.js')\n"
	require.Equal(t, []string{"./styles/main.css", "./real.js"}, ScanJS(src))
}

func TestWalk_CommentedRequireIsNotADependency(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/static/index.js":        "// const old = require('./legacy.css');\nimport './styles/main.css';\n",
		"src/static/styles/main.css": "body{}\n",
	})
	r := Resolver{Root: root, Extensions: []string{".js", ".css"}}
	g, err := Walk(context.Background(), filepath.Join(root, "src", "static", "index.js"), r)
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())
}

func TestScanCSS(t *testing.T) {
	specs, err := ScanCSS(`@import "base.css";
@import url('./theme.css') screen;
@import url(https://fonts.example.com/x.css);
body { margin: 0; }`)
	require.NoError(t, err)
	require.Equal(t, []string{"base.css", "./theme.css"}, specs)
}

func TestWalk_OrdersDependenciesFirst(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/static/index.js":         "import './styles/main.css';\nimport { Elm } from '../Main.elm';\nrequire('./b.js');\n",
		"src/static/b.js":             "module.exports = 1;\n",
		"src/static/styles/main.css":  "@import 'reset.css';\nbody{}\n",
		"src/static/styles/reset.css": "*{margin:0}\n",
		"src/Main.elm":                "module Main exposing (main)\nimport Html\n",
	})
	r := Resolver{Root: root, Extensions: []string{".js", ".elm", ".css"}}

	g, err := Walk(context.Background(), filepath.Join(root, "src/static/index.js"), r)
	require.NoError(t, err)
	require.Equal(t, []string{
		"src/static/styles/reset.css",
		"src/static/styles/main.css",
		"src/Main.elm",
		"src/static/b.js",
		"src/static/index.js",
	}, ids(g))
	require.Equal(t, "src/static/index.js", g.Entry.ID)
	require.Equal(t, g.Len()-1, g.Entry.Position)

	main, ok := g.Lookup(filepath.Join(root, "src/static/styles/main.css"))
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "src/static/styles/reset.css"), main.Deps["reset.css"])

	elm, _ := g.Lookup(filepath.Join(root, "src/Main.elm"))
	require.Empty(t, elm.Deps, "elm modules are leaves")
}

func TestWalk_ExtensionAndIndexResolution(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.js":     "require('./lib');\nrequire('./helper');\n",
		"lib/index.js": "",
		"helper.js":    "",
	})
	g, err := Walk(context.Background(), filepath.Join(root, "index.js"), Resolver{Root: root, Extensions: []string{".js"}})
	require.NoError(t, err)
	require.Equal(t, []string{"lib/index.js", "helper.js", "index.js"}, ids(g))
}

func TestWalk_StylesDirFallback(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/index.js":      "import './app.css';\n",
		"app/app.css":       "@import 'shared.css';\n.a{}\n",
		"styles/shared.css": ".shared{}\n",
	})
	r := Resolver{Root: root, Extensions: []string{".js", ".css"}, StylesDir: filepath.Join(root, "styles")}
	g, err := Walk(context.Background(), filepath.Join(root, "app/index.js"), r)
	require.NoError(t, err)
	require.Equal(t, []string{"styles/shared.css", "app/app.css", "app/index.js"}, ids(g))
}

func TestWalk_BareSpecifierRejected(t *testing.T) {
	root := writeTree(t, map[string]string{"index.js": "import React from 'react';\n"})
	_, err := Walk(context.Background(), filepath.Join(root, "index.js"), Resolver{Root: root})
	var re *ResolveError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "react", re.Specifier)
}

func TestWalk_MissingFile(t *testing.T) {
	root := writeTree(t, map[string]string{"index.js": "require('./gone');\n"})
	_, err := Walk(context.Background(), filepath.Join(root, "index.js"), Resolver{Root: root, Extensions: []string{".js"}})
	var re *ResolveError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "file not found", re.Reason)
}

func TestWalk_CyclesTerminate(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.js": "require('./b.js');\n",
		"b.js": "require('./a.js');\n",
	})
	g, err := Walk(context.Background(), filepath.Join(root, "a.js"), Resolver{Root: root})
	require.NoError(t, err)
	require.Equal(t, []string{"b.js", "a.js"}, ids(g))
	b, _ := g.Lookup(filepath.Join(root, "b.js"))
	require.Equal(t, filepath.Join(root, "a.js"), b.Deps["./a.js"])
}

func TestWalk_Canceled(t *testing.T) {
	root := writeTree(t, map[string]string{"index.js": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walk(ctx, filepath.Join(root, "index.js"), Resolver{Root: root})
	require.ErrorIs(t, err, context.Canceled)
}
