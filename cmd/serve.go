package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/gsuggest/pkg/api"
	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API and event stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (overrides listen in the config)",
			},
			&cli.BoolFlag{
				Name:  "no-store",
				Usage: "Do not record finished rounds in the history database",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("listen"); addr != "" {
				cfg.Listen = addr
			}
			return serve(ctx, c.String("config"), cfg, !c.Bool("no-store"), c.Bool("debug"))
		},
	}
}

// serve runs the API until SIGINT or SIGTERM. The config file is watched and
// request_timeout and debug are applied to rounds started after a change;
// regions are fixed for the lifetime of the process.
func serve(ctx context.Context, configPath string, cfg *config.Config, store, debugFlag bool) error {
	var e *engine
	var err error
	e, err = newEngine(cfg, engineOptions{
		withHistory: store,
		coordOpts: []coordinator.Option{
			coordinator.WithOnRoundComplete(func(r *coordinator.Round) { e.storeRound(r) }),
		},
	})
	if err != nil {
		return err
	}
	defer e.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewServer(e.coordinator, e.hub, e.history).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("listening on http://%s (%d regions)", cfg.Listen, e.catalog.Size())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Close the event streams first; hijacked connections are not
		// tracked by Shutdown.
		e.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		watchConfig(gctx, configPath, func() {
			newCfg, err := config.LoadConfig(configPath)
			if err != nil {
				logger.Warnf("failed to reload configuration: %v", err)
				return
			}
			applyReload(e.coordinator, newCfg, debugFlag)
		})
		return nil
	})

	return g.Wait()
}

// applyReload applies the settings that may change while serving.
func applyReload(coord *coordinator.Coordinator, cfg *config.Config, debugFlag bool) {
	coord.SetRequestTimeout(cfg.RequestTimeout.Duration)
	log.SetGlobalDebug(debugFlag || cfg.Debug)
	logger.Infof("configuration reloaded: request_timeout=%s debug=%t",
		coord.RequestTimeout(), log.GlobalDebug())
}

// watchConfig calls reload whenever path changes or SIGHUP arrives, until ctx
// is done.
func watchConfig(ctx context.Context, path string, reload func()) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(path); err != nil {
			logger.Warnf("failed to watch config file %s: %v", path, err)
		} else {
			logger.Infof("watching config file for changes: %s", path)
		}
		events, errs = watcher.Events, watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Infof("received SIGHUP, reloading configuration")
			reload()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Debugf("config file changed: %s (%s)", event.Name, event.Op)

			// Editors replace the file on save; re-add it once it exists again.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(path); os.IsNotExist(err) {
					logger.Warnf("config file was removed, keeping current settings")
					continue
				}
				if err := watcher.Add(path); err != nil {
					logger.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			reload()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warnf("config file watcher error: %v", err)
		}
	}
}
