package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// baseContentTypes are always checked for rule ambiguity in addition to the
// configured resolve extensions.
var baseContentTypes = []string{"js", "mjs", "elm", "css", "json", "html"}

// Validate checks a defaulted configuration. It never touches the filesystem;
// existence of the entry and template is checked when a build starts.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Entry) == "" {
		return errors.ConfigError("entry must be set").Build()
	}
	if strings.TrimSpace(cfg.Template) == "" {
		return errors.ConfigError("template must be set").Build()
	}
	if cfg.Chunk == "" || strings.ContainsAny(cfg.Chunk, `/\ `) {
		return errors.ConfigError(fmt.Sprintf("invalid chunk name %q", cfg.Chunk)).Build()
	}
	switch cfg.HTML.Inject {
	case "head", "body":
	default:
		return errors.ConfigError(fmt.Sprintf("html.inject must be head or body, got %q", cfg.HTML.Inject)).Build()
	}
	switch cfg.HTML.ScriptAttribute {
	case "defer", "async", "none":
	default:
		return errors.ConfigError(fmt.Sprintf("html.script_attribute must be defer, async or none, got %q", cfg.HTML.ScriptAttribute)).Build()
	}
	if cfg.Build.FingerprintLength < 8 || cfg.Build.FingerprintLength > 64 {
		return errors.ConfigError(fmt.Sprintf("build.fingerprint_length must be between 8 and 64, got %d", cfg.Build.FingerprintLength)).Build()
	}
	for _, dir := range []string{cfg.Output.JSDir, cfg.Output.CSSDir} {
		if filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			return errors.ConfigError(fmt.Sprintf("output directory %q must be relative to the output root", dir)).Build()
		}
	}
	return ValidateRules(cfg.Rules, ContentTypes(cfg))
}

// ContentTypes returns the content types checked for rule ambiguity.
func ContentTypes(cfg *Config) []string {
	types := slices.Clone(baseContentTypes)
	for _, ext := range cfg.Resolve.Extensions {
		t := strings.ToLower(strings.TrimPrefix(ext, "."))
		if t != "" && !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	return types
}

// ValidateRules rejects malformed rule sets: invalid patterns, empty chains,
// unknown loaders, and two rules matching the same content type.
func ValidateRules(rules []Rule, contentTypes []string) error {
	tests := make([]*regexp.Regexp, len(rules))
	for i, r := range rules {
		name := ruleName(r, i)
		re, err := regexp.Compile(r.Test)
		if err != nil || r.Test == "" {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("rule %s: invalid test pattern %q", name, r.Test)).Fatal().Build()
		}
		tests[i] = re
		for _, ex := range r.Exclude {
			if _, err := regexp.Compile(ex); err != nil {
				return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("rule %s: invalid exclude pattern %q", name, ex)).Fatal().Build()
			}
		}
		if len(r.Use) == 0 {
			return errors.ConfigError(fmt.Sprintf("rule %s: use must list at least one loader", name)).Build()
		}
		for _, u := range r.Use {
			if !slices.Contains(KnownLoaders, u.Loader) {
				return errors.ConfigError(fmt.Sprintf("rule %s: unknown loader %q", name, u.Loader)).Build()
			}
		}
	}

	for _, ct := range contentTypes {
		first := -1
		for i, re := range tests {
			if !re.MatchString(ct) {
				continue
			}
			if first >= 0 {
				return errors.ConfigError(fmt.Sprintf("rules %s and %s both match content type %q",
					ruleName(rules[first], first), ruleName(rules[i], i), ct)).Build()
			}
			first = i
		}
	}
	return nil
}

func ruleName(r Rule, idx int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d", idx)
}
