package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/dsemu"
	"github.com/urfave/cli/v2"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Start the emulator, run a command against it, then tear it down",
	ArgsUsage: "[--] <command> [args...]",
	Description: `Start (or adopt) a Datastore emulator, run the given command with
DATASTORE_EMULATOR_HOST and DATASTORE_PROJECT_ID exported, and stop the
emulator when the command exits. The command's exit code is propagated.

Examples:
  dsemu run -- go test ./...
  dsemu run --host http://localhost:0 -- go test -count=1 ./internal/...`,
	Action: runAction,
}

func runAction(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return cli.Exit("run requires a command to execute, e.g.: dsemu run -- go test ./...", 2)
	}

	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	emu, err := dsemu.New(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := emu.Start(ctx); err != nil {
		return fmt.Errorf("starting emulator: %w", err)
	}

	runErr := runChild(ctx, c.Args().Slice())
	if stopErr := emu.Stop(); stopErr != nil {
		runErr = errors.Join(runErr, fmt.Errorf("stopping emulator: %w", stopErr))
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return cli.Exit("", exitErr.ExitCode())
	}
	return runErr
}

// runChild executes the wrapped command with the current process
// environment, which at this point carries the emulator bindings.
func runChild(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //#nosec G204 -- user-provided command
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	return cmd.Run()
}

// buildOptions merges the config file and command-line flags into dsemu
// options, flags winning.
func buildOptions(c *cli.Context) ([]dsemu.Option, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	fl := takeOverrides(c)

	// Validate the host here so a bad flag or config value surfaces as a
	// CLI error instead of the panic dsemu.WithHost reserves for
	// programmer mistakes.
	if v := firstNonEmpty(fl.host, cfg.Host); v != "" {
		if err := validateHost(v); err != nil {
			return nil, err
		}
	}
	return mergeOptions(cfg, fl), nil
}

func validateHost(host string) error {
	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid host %q: must be an absolute http(s) URL", host)
	}
	return nil
}

// loadConfig reads the config file named by --config, or falls back to
// dsemu.yaml in the working directory.
func loadConfig(c *cli.Context) (*Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}
	return LoadFromDir(".")
}

// flagOverrides captures the flag values that override config file settings.
// A zero value means the flag was not provided.
type flagOverrides struct {
	host         string
	projectID    string
	binary       string
	dataDir      string
	startTimeout time.Duration
	stopTimeout  time.Duration
	envInit      bool
}

func takeOverrides(c *cli.Context) flagOverrides {
	return flagOverrides{
		host:         c.String("host"),
		projectID:    c.String("project"),
		binary:       c.String("binary"),
		dataDir:      c.String("data-dir"),
		startTimeout: c.Duration("start-timeout"),
		stopTimeout:  c.Duration("stop-timeout"),
		envInit:      c.Bool("env-init"),
	}
}

// mergeOptions turns config file values and flag overrides into dsemu
// options. Values left unset in both fall through to the dsemu defaults.
func mergeOptions(cfg *Config, fl flagOverrides) []dsemu.Option {
	var opts []dsemu.Option

	if v := firstNonEmpty(fl.host, cfg.Host); v != "" {
		opts = append(opts, dsemu.WithHost(v))
	}
	if v := firstNonEmpty(fl.projectID, cfg.ProjectID); v != "" {
		opts = append(opts, dsemu.WithProjectID(v))
	}
	if v := firstNonEmpty(fl.binary, cfg.Binary); v != "" {
		opts = append(opts, dsemu.WithBinary(v))
	}
	if v := firstNonEmpty(fl.dataDir, cfg.DataDir); v != "" {
		opts = append(opts, dsemu.WithDataDir(v))
	}
	if v := firstPositive(fl.startTimeout, time.Duration(cfg.StartTimeout)); v > 0 {
		opts = append(opts, dsemu.WithStartTimeout(v))
	}
	if v := firstPositive(fl.stopTimeout, time.Duration(cfg.StopTimeout)); v > 0 {
		opts = append(opts, dsemu.WithStopTimeout(v))
	}
	if d := time.Duration(cfg.PollInterval); d > 0 {
		opts = append(opts, dsemu.WithPollInterval(d))
	}
	if fl.envInit || cfg.EnvInit {
		opts = append(opts, dsemu.WithEnvInit())
	}

	return opts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
