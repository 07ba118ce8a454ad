package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit   int    `short:"n" help:"Number of builds to show (0 = all)" default:"20"`
	History string `name:"history" help:"Build history sqlite database"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	if h.Limit < 0 {
		return errors.ValidationError(fmt.Sprintf("--limit must not be negative, got %d", h.Limit)).Build()
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	path := historyPath(h.History, cfg)
	if path == "" {
		return errors.ConfigError("no build history configured").
			WithContext("hint", "set history.path or pass --history").Build()
	}
	store, err := openHistory(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "open build history").
			WithContext(errors.ContextPath, path).Fatal().Build()
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	recs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "read build history").
			WithContext(errors.ContextPath, path).Fatal().Build()
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tMODE\tOUTCOME\tDURATION\tREVISION\tARTIFACTS")
	for _, r := range recs {
		rev := r.Revision
		if rev == "" {
			rev = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Mode, r.Outcome,
			r.Duration().Round(time.Millisecond), rev, len(r.Artifacts))
	}
	return tw.Flush()
}
