// Package cli provides the command-line interface for dsemu.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to dsemu.yaml (default: look in the working directory)",
		EnvVars: []string{"DSEMU_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "host",
		Usage:   "Emulator base URL, e.g. http://localhost:8088 (port 0 picks a free port)",
		EnvVars: []string{"DSEMU_HOST"},
	},
	&cli.StringFlag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Datastore project ID",
		EnvVars: []string{"DSEMU_PROJECT"},
	},
	&cli.StringFlag{
		Name:    "binary",
		Usage:   "Path to the gcloud binary",
		EnvVars: []string{"DSEMU_BINARY"},
	},
	&cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory for emulator logs and the spawn lock",
		EnvVars: []string{"DSEMU_DATA_DIR"},
	},
	&cli.DurationFlag{
		Name:  "start-timeout",
		Usage: "Maximum time to wait for the emulator to become ready",
	},
	&cli.DurationFlag{
		Name:  "stop-timeout",
		Usage: "Maximum time to wait for the emulator to shut down",
	},
	&cli.BoolFlag{
		Name:  "env-init",
		Usage: "Derive the emulator binding from 'gcloud beta emulators datastore env-init'",
	},
}

// App constructs the dsemu CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "dsemu",
		Usage:   "Cloud Datastore emulator lifecycle for tests",
		Version: Version,
		Description: `dsemu starts the Cloud Datastore emulator, exports the environment
variables client libraries use for discovery, and tears everything down
when the wrapped command exits.

Examples:
  dsemu run -- go test ./...
  dsemu run --project my-project -- ./scripts/integration.sh
  dsemu reset`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			resetCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
