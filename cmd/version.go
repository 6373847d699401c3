package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/version"
	"github.com/urfave/cli/v3"
)

// VersionCommand creates the version command
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version and the payload formats this build understands",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Println(version.BuildVersion())
			fmt.Println(metaStyle.Render("parsers: " + strings.Join(core.GetGlobalRegistry().Formats(), ", ")))
			return nil
		},
	}
}
