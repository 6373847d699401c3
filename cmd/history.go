package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/storage"
	"github.com/urfave/cli/v3"
)

// HistoryCommand creates the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show stored searches",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of searches to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "search",
				Usage: "Full text search over stored suggestions",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runHistory(ctx, cfg, historyOptions{
				limit:  int(c.Int("limit")),
				search: c.String("search"),
				json:   c.Bool("json"),
				out:    os.Stdout,
			})
		},
	}
}

type historyOptions struct {
	limit  int
	search string
	json   bool
	out    io.Writer
}

// runHistory prints the most recent rounds, or the suggestions matching
// opts.search when it is set.
func runHistory(ctx context.Context, cfg *config.Config, opts historyOptions) error {
	history, err := storage.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() {
		if err := history.Close(); err != nil {
			logger.Warnf("failed to close history: %v", err)
		}
	}()

	if opts.search != "" {
		hits, err := history.Search(ctx, opts.search, opts.limit)
		if err != nil {
			return fmt.Errorf("searching history: %w", err)
		}
		if opts.json {
			return json.NewEncoder(opts.out).Encode(hits)
		}
		printHits(opts.out, opts.search, hits)
		return nil
	}

	records, err := history.Recent(ctx, opts.limit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if opts.json {
		return json.NewEncoder(opts.out).Encode(records)
	}
	printHistory(opts.out, records)
	return nil
}
