package transforms

import (
	"context"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/graph"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// CSS parses a stylesheet and drops its local @import rules. Imported sheets
// are modules of their own, emitted ahead of the importer by the graph order.
// Remote imports (http:, https:, protocol relative) are kept. The
// importLoaders option is accepted and ignored.
type CSS struct{}

func (CSS) Name() string { return config.LoaderCSS }

func (CSS) Apply(_ context.Context, in loader.Input) (string, error) {
	sheet, err := parser.Parse(in.Text)
	if err != nil {
		return "", &loader.CompileError{FilePath: in.Path, Loader: config.LoaderCSS, Message: err.Error(), Err: err}
	}
	kept := make([]*css.Rule, 0, len(sheet.Rules))
	for _, r := range sheet.Rules {
		if isImport(r) {
			continue
		}
		kept = append(kept, r)
	}
	var b strings.Builder
	for i, r := range kept {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.String())
	}
	return b.String(), nil
}

func isImport(r *css.Rule) bool {
	if r.Kind != css.AtRule || !strings.EqualFold(strings.TrimPrefix(r.Name, "@"), "import") {
		return false
	}
	return !graph.IsRemote(graph.ImportTarget(r.Prelude))
}
