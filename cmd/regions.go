package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/gsuggest/pkg/catalog"
	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/urfave/cli/v3"
)

// RegionsCommand creates the regions command
func RegionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "regions",
		Usage: "List the regions every search queries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "sample",
				Usage: "Show the request URL for this phrase",
				Value: "is it normal",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runRegions(cfg, os.Stdout, c.String("sample"))
		},
	}
}

func runRegions(cfg *config.Config, out io.Writer, sample string) error {
	cat, err := catalog.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("loading regions: %w", err)
	}
	printRegions(out, cat, sample)
	return nil
}

func printRegions(out io.Writer, cat *core.Catalog, sample string) {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d regions", cat.Size())))
	for _, ep := range cat.List() {
		fmt.Fprintf(out, "  %s %s\n", headerStyle.Render(fmt.Sprintf("%-6s", ep.RegionID)), metaStyle.Render(ep.URL(sample)))
	}
}
