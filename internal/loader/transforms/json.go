package transforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// JSON turns a JSON document into a CommonJS module exporting its value.
type JSON struct{}

func (JSON) Name() string { return config.LoaderJSON }

func (JSON) Apply(_ context.Context, in loader.Input) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(in.Text)); err != nil {
		return "", &loader.CompileError{FilePath: in.Path, Loader: config.LoaderJSON, Message: jsonErrorMessage(in.Text, err), Err: err}
	}
	return fmt.Sprintf("module.exports = %s;\n", buf.Bytes()), nil
}

// jsonErrorMessage points syntax errors at a line and column.
func jsonErrorMessage(text string, err error) string {
	var se *json.SyntaxError
	if !errors.As(err, &se) {
		return err.Error()
	}
	line, col := 1, 1
	for i := 0; i < int(se.Offset)-1 && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return fmt.Sprintf("%d:%d: %v", line, col, se)
}
