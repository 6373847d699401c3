package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/gsuggest/cmd"
	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "gsuggest",
		Usage: "Collect search suggestions from every regional endpoint at once",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.SearchCommand(),
			cmd.ServeCommand(),
			cmd.RegionsCommand(),
			cmd.HistoryCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.ForService("main").Errorf("%v", err)
		log.Flush()
		os.Exit(1)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get default config path: %v\n", err)
		os.Exit(1)
	}
	return path
}
