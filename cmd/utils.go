package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rubiojr/gsuggest/pkg/catalog"
	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/log"
	"github.com/rubiojr/gsuggest/pkg/realtime"
	"github.com/rubiojr/gsuggest/pkg/storage"
	"github.com/rubiojr/gsuggest/pkg/transport"
	"github.com/urfave/cli/v3"
)

var logger = log.ForService("cmd")

// engine bundles everything a command needs to run rounds.
type engine struct {
	cfg         *config.Config
	catalog     *core.Catalog
	hub         *realtime.Hub
	coordinator *coordinator.Coordinator
	history     *storage.History
}

type engineOptions struct {
	withHistory bool
	transport   core.Transport
	coordOpts   []coordinator.Option
}

// loadConfig reads the --config file and applies --debug.
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.SetGlobalDebug(c.Bool("debug") || cfg.Debug)
	return cfg, nil
}

func newEngine(cfg *config.Config, opts engineOptions) (*engine, error) {
	cat, err := catalog.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading regions: %w", err)
	}

	parser, err := core.GetGlobalRegistry().Parser(cfg.Parser)
	if err != nil {
		return nil, fmt.Errorf("selecting parser: %w", err)
	}

	tr := opts.transport
	if tr == nil {
		tr = transport.New()
	}

	e := &engine{cfg: cfg, catalog: cat, hub: realtime.NewHub(256)}

	if opts.withHistory {
		e.history, err = storage.Open(cfg.DBPath())
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
	}

	coordOpts := []coordinator.Option{
		coordinator.WithRequestTimeout(cfg.RequestTimeout.Duration),
		coordinator.WithHistorySize(cfg.HistorySize),
		coordinator.WithEventSink(e.hub.Broadcast),
	}
	e.coordinator = coordinator.New(cat, tr, parser, append(coordOpts, opts.coordOpts...)...)

	logger.Debugf("engine ready: %d regions, parser %s, timeout %s", cat.Size(), cfg.Parser, cfg.RequestTimeout.Duration)
	return e, nil
}

// storeRound persists a finished round. Failures are logged, never fatal.
func (e *engine) storeRound(round *coordinator.Round) {
	if e.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := storage.RecordFromSnapshot(round.Snapshot(), e.catalog.RegionIDs())
	id, err := e.history.SaveRound(ctx, rec)
	if err != nil {
		logger.Warnf("failed to store round %d: %v", round.Generation(), err)
		return
	}
	logger.Debugf("round %d stored as %s", round.Generation(), id)
}

func (e *engine) Close() {
	if err := e.coordinator.Close(); err != nil {
		logger.Warnf("failed to close coordinator: %v", err)
	}
	e.hub.Close()
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			logger.Warnf("failed to close history: %v", err)
		}
	}
	log.Flush()
}
