package transforms

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// styleModuleTemplate injects the stylesheet into the document head once per file.
const styleModuleTemplate = `var __file = %s;
if (typeof document !== "undefined") {
  var s = document.querySelector('style[data-file="' + __file + '"]');
  if (!s) { s = document.createElement("style"); s.setAttribute("data-file", __file); document.head.appendChild(s); }
  s.textContent = %s;
}
module.exports = {};
`

// Style turns stylesheet text into a JavaScript module that adds a <style>
// element. It is the fallback used when extraction is disabled.
type Style struct{}

func (Style) Name() string { return config.LoaderStyle }

func (Style) Apply(_ context.Context, in loader.Input) (string, error) {
	file, err := json.Marshal(filepath.Base(in.Path))
	if err != nil {
		return "", err
	}
	text, err := json.Marshal(in.Text)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(styleModuleTemplate, file, text), nil
}

// Raw is the identity loader.
type Raw struct{}

func (Raw) Name() string { return config.LoaderRaw }

func (Raw) Apply(_ context.Context, in loader.Input) (string, error) { return in.Text, nil }
