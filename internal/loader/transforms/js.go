package transforms

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// JS rewrites ES module syntax into CommonJS so imports become require calls
// the bundle runtime resolves.
type JS struct{}

func (JS) Name() string { return config.LoaderJS }

func (JS) Apply(_ context.Context, in loader.Input) (string, error) {
	result := api.Transform(in.Text, api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Sourcefile: filepath.Base(in.Path),
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return "", &loader.CompileError{FilePath: in.Path, Loader: config.LoaderJS, Message: strings.Join(msgs, "; ")}
	}
	return string(result.Code), nil
}
