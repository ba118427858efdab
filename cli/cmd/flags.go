// Package cmd provides CLI commands for the testpool binary.
package cmd

import "github.com/urfave/cli/v2"

// Flags shared by run.
var (
	// ConfigFlag points at a testpool.yaml config file. Values there
	// are defaults; flags below override them.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a testpool.yaml config file",
	}

	// BinTargetFlag is the directory walked for executable test binaries.
	BinTargetFlag = &cli.StringFlag{
		Name:  "bin-target",
		Usage: "Directory to walk for executable test binaries",
	}

	// ConfigPathFlag is the directory holding per-executable sibling
	// .env files.
	ConfigPathFlag = &cli.StringFlag{
		Name:  "config-path",
		Usage: "Directory holding per-executable sibling .env files",
	}

	// ReportOutFlag is where the compiled run report is written.
	ReportOutFlag = &cli.StringFlag{
		Name:  "report-out",
		Usage: `Where to write the compiled run report ("-" for stderr)`,
	}

	// ErrorOutFlag is where fatal startup/compile errors are written.
	ErrorOutFlag = &cli.StringFlag{
		Name:  "error-out",
		Usage: `Where to write fatal errors ("-" for stderr)`,
	}

	// MaxChildSpawnFlag is K, the size of the process pool's slot table.
	MaxChildSpawnFlag = &cli.IntFlag{
		Name:  "max-child-spawn",
		Usage: "Maximum number of children spawned concurrently",
		Value: 4,
	}

	// WorkerCountFlag is N, the number of event-apply worker goroutines.
	WorkerCountFlag = &cli.IntFlag{
		Name:  "worker-count",
		Usage: "Number of event-apply worker goroutines",
		Value: 2,
	}

	// TUIFlag enables the live Bubble Tea progress view during a run.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show a live progress view while the run executes",
	}
)

// RunFlags returns the flags accepted by the run command.
func RunFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		BinTargetFlag,
		ConfigPathFlag,
		ReportOutFlag,
		ErrorOutFlag,
		MaxChildSpawnFlag,
		WorkerCountFlag,
		TUIFlag,
	}
}
