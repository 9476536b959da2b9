package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/fwojciec/dsemu"
	"github.com/fwojciec/dsemu/internal/httpx"
	"github.com/urfave/cli/v2"
)

var resetCommand = &cli.Command{
	Name:  "reset",
	Usage: "Clear the storage of a running emulator",
	Description: `Send a reset request to a running emulator, restoring the empty state a
fresh emulator starts with. The target is resolved from --host, the
DATASTORE_HOST environment variable, or the config file, in that order.

Example:
  dsemu reset
  dsemu reset --host http://localhost:8081`,
	Action: resetAction,
}

func resetAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	host := firstNonEmpty(c.String("host"), os.Getenv("DATASTORE_HOST"), cfg.Host, dsemu.DefaultHost)
	if err := validateHost(host); err != nil {
		return err
	}

	if err := httpx.Do(c.Context, httpx.NewClient(), http.MethodPost, host, dsemu.DefaultResetPath); err != nil {
		return fmt.Errorf("resetting emulator at %s: %w", host, err)
	}
	fmt.Fprintf(c.App.Writer, "Reset emulator at %s\n", host)
	return nil
}
