package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Built-in loader names.
const (
	LoaderElm     = "elm"
	LoaderCSS     = "css"
	LoaderPostCSS = "postcss"
	LoaderJS      = "js"
	LoaderStyle   = "style"
	LoaderRaw     = "raw"
	LoaderExec    = "exec"
	LoaderJSON    = "json"
)

// KnownLoaders lists loader names accepted in rule `use` lists.
var KnownLoaders = []string{LoaderElm, LoaderCSS, LoaderPostCSS, LoaderJS, LoaderStyle, LoaderRaw, LoaderExec, LoaderJSON}

// Rule maps a content type pattern to an ordered loader chain.
type Rule struct {
	Name    string      `yaml:"name"`
	Test    string      `yaml:"test"`              // regexp matched against the content type (extension without dot)
	Exclude []string    `yaml:"exclude,omitempty"` // regexps matched against the slash-separated file path
	Use     []LoaderUse `yaml:"use"`
	Extract string      `yaml:"extract,omitempty"` // artifact kind the chain output is extracted into
}

// LoaderUse names one transform in a chain with its static options.
type LoaderUse struct {
	Loader  string         `yaml:"loader"`
	Options map[string]any `yaml:"options,omitempty"`
}

// UnmarshalYAML accepts both the mapping form and the bare string shorthand
// (`- postcss`).
func (u *LoaderUse) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		u.Loader = value.Value
		return nil
	}
	type plain LoaderUse
	var p plain
	if err := value.Decode(&p); err != nil {
		return fmt.Errorf("decode loader use: %w", err)
	}
	*u = LoaderUse(p)
	return nil
}

// DefaultRules mirrors the conventional Elm + CSS + JS application setup.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "elm",
			Test:    `^elm$`,
			Exclude: []string{`/elm-stuff/`, `/node_modules/`},
			Use: []LoaderUse{{
				Loader:  LoaderElm,
				Options: map[string]any{"verbose": true, "warn": true, "debug": true},
			}},
		},
		{
			Name:    "css",
			Test:    `^css$`,
			Extract: "css",
			Use: []LoaderUse{
				{Loader: LoaderCSS, Options: map[string]any{"importLoaders": 1}},
				{Loader: LoaderPostCSS},
			},
		},
		{
			Name:    "js",
			Test:    `^(js|mjs)$`,
			Exclude: []string{`/node_modules/`},
			Use:     []LoaderUse{{Loader: LoaderJS}},
		},
		{
			Name: "json",
			Test: `^json$`,
			Use:  []LoaderUse{{Loader: LoaderJSON}},
		},
	}
}
