package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/loader"
	"git.home.luguber.info/inful/assetpipe/internal/loader/transforms"
)

// RulesCmd implements the 'rules' command.
type RulesCmd struct {
	Mode   string `short:"m" help:"Build mode (development|release). Falls back to ASSETPIPE_MODE, then NODE_ENV."`
	Format string `short:"f" help:"Output format: text, json" default:"text" enum:"text,json"`
}

// Run prints the loader chain each rule resolves to, with mode flags merged in.
func (r *RulesCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	mode := config.ParseMode(config.ModeSignal(r.Mode))
	pc := config.NewPipelineConfig(mode, cfg)
	if err := config.ValidateRules(cfg.Rules, config.ContentTypes(cfg)); err != nil {
		return err
	}
	chain, err := loader.NewChain(cfg.Rules, transforms.Builtins(cfg), pc)
	if err != nil {
		return err
	}

	rules := chain.Describe()
	if r.Format == "json" {
		data, err := json.MarshalIndent(struct {
			Mode  string                 `json:"mode"`
			Rules []loader.EffectiveRule `json:"rules"`
		}{mode.String(), rules}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal rules: %w", err)
		}
		_, err = fmt.Fprintln(g.out(), string(data))
		return err
	}
	writeRulesText(g.out(), mode, rules)
	return nil
}

func writeRulesText(w io.Writer, mode config.BuildMode, rules []loader.EffectiveRule) {
	_, _ = fmt.Fprintf(w, "mode: %s\n", mode)
	for _, r := range rules {
		_, _ = fmt.Fprintf(w, "\n%s  test=%s", r.Name, r.Test)
		if len(r.Exclude) > 0 {
			_, _ = fmt.Fprintf(w, "  exclude=%s", strings.Join(r.Exclude, ","))
		}
		if r.Extract != "" {
			_, _ = fmt.Fprintf(w, "  extract=%s", r.Extract)
		}
		_, _ = fmt.Fprintln(w)
		for i, s := range r.Steps {
			_, _ = fmt.Fprintf(w, "  %d. %s%s\n", i+1, s.Loader, formatOptions(s.Options))
		}
	}
}

func formatOptions(opts map[string]any) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, opts[k]))
	}
	return " {" + strings.Join(parts, " ") + "}"
}
