package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/export"
	"github.com/rubiojr/gsuggest/pkg/realtime"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Query every region for suggestions on a phrase",
		ArgsUsage: "<phrase...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "save",
				Usage: "Write a text report into `DIR`",
			},
			&cli.BoolFlag{
				Name:  "no-store",
				Usage: "Do not record the search in the history database",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the finished round as JSON",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-region request timeout (overrides request_timeout)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if d := c.Duration("timeout"); d > 0 {
				cfg.RequestTimeout.Duration = d
			}
			return runSearch(ctx, newEngineFactory(cfg), searchOptions{
				phrase:  strings.Join(c.Args().Slice(), " "),
				saveDir: c.String("save"),
				noStore: c.Bool("no-store"),
				json:    c.Bool("json"),
				out:     os.Stdout,
				errOut:  os.Stderr,
			})
		},
	}
}

type searchOptions struct {
	phrase  string
	saveDir string
	noStore bool
	json    bool
	out     io.Writer
	errOut  io.Writer
}

// engineFactory defers engine construction until the options are known.
type engineFactory func(withHistory bool) (*engine, error)

func newEngineFactory(cfg *config.Config) engineFactory {
	return func(withHistory bool) (*engine, error) {
		return newEngine(cfg, engineOptions{withHistory: withHistory})
	}
}

// runSearch runs one round to completion, printing progress as regions
// report, then prints, stores and optionally exports the result.
func runSearch(ctx context.Context, build engineFactory, opts searchOptions) error {
	if strings.TrimSpace(opts.phrase) == "" {
		return fmt.Errorf("a search phrase is required: %w", core.ErrInvalidInput)
	}

	e, err := build(!opts.noStore)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, events := e.hub.Register()
	defer e.hub.Unregister(id)

	round, err := e.coordinator.StartSearch(opts.phrase)
	if err != nil {
		return fmt.Errorf("starting search: %w", err)
	}

	showProgress := !opts.json && round.Total() > 0
	if showProgress {
		printProgress(opts.errOut, round.Phrase(), 0, round.Total())
	}

wait:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break wait
			}
			if ev.Generation != round.Generation() {
				continue
			}
			if showProgress && ev.Type == realtime.EventRegionDone && ev.Completed < ev.Total {
				printProgress(opts.errOut, ev.Phrase, ev.Completed, ev.Total)
			}
		case <-round.Done():
			break wait
		case <-ctx.Done():
			if showProgress {
				fmt.Fprintln(opts.errOut)
			}
			return fmt.Errorf("search interrupted: %w", ctx.Err())
		}
	}
	if showProgress {
		printProgress(opts.errOut, round.Phrase(), round.Completed(), round.Total())
	}

	snap := round.Snapshot()
	if round.Status() != coordinator.StatusComplete {
		return errors.New("search did not complete")
	}

	if !opts.noStore {
		e.storeRound(round)
	}

	if opts.saveDir != "" {
		retrieved := time.Now()
		if snap.FinishedAt != nil {
			retrieved = *snap.FinishedAt
		}
		path, err := export.Save(opts.saveDir, export.Report{
			Phrase:      snap.Phrase,
			Results:     snap.Results,
			RetrievedAt: retrieved,
			Regions:     e.catalog.RegionIDs(),
		})
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Fprintf(opts.errOut, "Report saved to %s\n", path)
	}

	if opts.json {
		enc := json.NewEncoder(opts.out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	printSnapshot(opts.out, snap)
	return nil
}
