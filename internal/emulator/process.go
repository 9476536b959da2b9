package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"time"

	"github.com/fwojciec/dsemu/internal/httpx"
	"github.com/fwojciec/dsemu/internal/process"
)

// processName identifies the child process in logs and error messages.
const processName = "datastore-emulator"

// Compile-time interface satisfaction check.
var _ process.Stoppable = (*Process)(nil)

// Config holds the configuration for a datastore emulator process.
type Config struct {
	Binary  string // Resolved path to the gcloud binary
	DataDir string // Working directory for the output log

	// HostPort is the host:port the emulator should bind, e.g.
	// "localhost:8088". Empty selects env-init mode, where the emulator
	// chooses its own binding and reports it via the env-init subcommand.
	HostPort  string
	ProjectID string // Project flag value; empty in env-init mode

	StopTimeout time.Duration // Fallback for auto-stop in Close
	Logger      *slog.Logger  // Optional, defaults to slog.Default()
}

// validate checks that all required Config fields are set.
func (c Config) validate() error {
	if c.Binary == "" {
		return errors.New("binary path must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data dir must not be empty")
	}
	if (c.HostPort == "") != (c.ProjectID == "") {
		return errors.New("host-port and project must be set together or both empty")
	}
	return nil
}

// Process manages a datastore emulator process lifecycle.
type Process struct {
	config Config
	base   process.Base
	client *http.Client
}

// New creates a Process with the given configuration. It returns an error if
// any required field is missing or inconsistent. New performs no I/O.
func New(cfg Config) (*Process, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid emulator config: %w", err)
	}
	return &Process{
		config: cfg,
		base:   process.NewBase(processName, cfg.Logger, cfg.StopTimeout),
		client: httpx.NewClient(),
	}, nil
}

// buildArgs assembles the emulator command line. The fixed portion selects
// in-memory storage (--no-store-on-disk) and disables the eventual
// consistency simulation (--consistency=1.0) so test outcomes stay
// deterministic. Host and project flags are appended only in fixed-flags
// mode.
func (p *Process) buildArgs() []string {
	args := []string{
		"beta", "emulators", "datastore", "start",
		"--consistency=1.0",
		"--no-store-on-disk",
	}
	if p.config.HostPort != "" {
		args = append(args,
			"--host-port="+p.config.HostPort,
			"--project="+p.config.ProjectID,
		)
	}
	return args
}

// Start launches the emulator process. Its combined output is captured to a
// log file in the data dir so test output stays clean.
func (p *Process) Start(ctx context.Context) error {
	if p.base.IsStarted() {
		return process.ErrAlreadyStarted
	}

	cmd := exec.CommandContext(ctx, p.config.Binary, p.buildArgs()...)
	if err := p.base.SetupAndStart(cmd, p.config.DataDir); err != nil {
		return fmt.Errorf("setup and start emulator process: %w", err)
	}
	return nil
}

// WaitReady polls the healthcheck endpoint at host until it returns 200 or
// timeout elapses. Connection errors and non-200 responses are both treated
// as "not yet ready"; the emulator needs a few seconds to open its port, so
// refused connections are expected early on. The poll aborts immediately if
// the process exits.
func (p *Process) WaitReady(ctx context.Context, host, healthPath string, interval, timeout time.Duration) error {
	log := p.base.Logger()
	if err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval:      interval,
		Timeout:       timeout,
		Name:          processName,
		Host:          host,
		Logger:        log,
		ProcessExited: p.base.Exited(),
	}, func(checkCtx context.Context, attempt int) (bool, error) {
		if err := httpx.Do(checkCtx, p.client, http.MethodGet, host, healthPath); err != nil {
			if log.Enabled(checkCtx, slog.LevelDebug) {
				log.Debug("healthcheck attempt", "host", host, "attempt", attempt, "error", err)
			}
			return false, nil
		}
		return true, nil
	}); err != nil {
		return fmt.Errorf("emulator not ready: %w", err)
	}
	return nil
}

// Exited returns a channel closed when the process exits; nil before start.
func (p *Process) Exited() <-chan struct{} {
	return p.base.Exited()
}

// Stop terminates the emulator process with the given timeout.
func (p *Process) Stop(timeout time.Duration) error {
	return p.base.Stop(timeout)
}

// Close releases the output log file handle held by the process.
func (p *Process) Close() {
	p.base.Close()
}
