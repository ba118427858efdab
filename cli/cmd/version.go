package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ashstone-io/testpool/types"
)

// VersionCommand returns the version command. It must not touch the
// process pool or any configuration file.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Printf("testpool %s (commit: %s)\n", types.Version, commit)
			return nil
		},
	}
}
