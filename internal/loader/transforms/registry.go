package transforms

import (
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
)

// Builtins returns a registry holding every built-in transform configured
// from cfg.
func Builtins(cfg *config.Config) *loader.Registry {
	root := cfg.SourceRootPath()
	return loader.NewRegistry(
		NewElm(cfg.Elm, cfg.ElmDir()),
		CSS{},
		NewPostCSS(cfg.PostCSS, root),
		JS{},
		Style{},
		Raw{},
		Exec{Dir: root},
		JSON{},
	)
}
