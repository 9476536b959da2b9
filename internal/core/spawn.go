package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/fwojciec/dsemu/internal/emulator"
	"github.com/fwojciec/dsemu/internal/fileutil"
	"github.com/fwojciec/dsemu/internal/netutil"
	"github.com/fwojciec/dsemu/internal/process"
	"golang.org/x/sync/errgroup"
)

// spawnLockFile is the lock file name inside the data dir that serializes
// spawning across test processes.
const spawnLockFile = "spawn.lock"

// binding describes how a spawned emulator instance is reachable.
type binding struct {
	host         string // base URL with scheme, e.g. "http://localhost:8088"
	emulatorHost string // host:port as client libraries expect it
	projectID    string
}

// spawn runs the spawn path: prepare, lock, launch, bind, confirm. Any
// failure after the environment bindings are made reverts them before the
// error propagates, so a failed Start never leaks state.
func (c *Controller) spawn(ctx context.Context) error {
	// Binary resolution and data dir creation are independent; run them in
	// parallel. g.Wait gives the happens-before needed to read binaryPath
	// afterwards.
	var g errgroup.Group
	g.Go(func() error {
		_, err := c.resolveBinary()
		return err
	})
	g.Go(func() error {
		return fileutil.EnsureDir(c.cfg.DataDir)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("prepare emulator spawn: %w", err)
	}

	// Serialize spawning across processes sharing this data dir: without
	// the lock two test binaries could race to bind the same host:port.
	lock, err := acquireSpawnLock(ctx, filepath.Join(c.cfg.DataDir, spawnLockFile))
	if err != nil {
		return err
	}
	defer releaseSpawnLock(c.log, lock)

	bnd, procCfg, err := c.spawnConfig(ctx)
	if err != nil {
		return err
	}

	proc, err := emulator.New(procCfg)
	if err != nil {
		return err
	}
	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("spawn emulator: %w", err)
	}

	if err := c.bindEnv(bnd); err != nil {
		c.abortSpawn(proc)
		return err
	}

	if err := proc.WaitReady(ctx, bnd.host, c.cfg.HealthcheckPath, c.cfg.PollInterval, c.cfg.StartTimeout); err != nil {
		c.abortSpawn(proc)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrStartupTimeout, c.cfg.StartTimeout)
		}
		return err
	}

	c.active = &ownedInstance{host: bnd.host, projectID: bnd.projectID, proc: proc}
	c.log.Debug("spawned emulator", "host", bnd.host, "project", bnd.projectID)
	return nil
}

// spawnConfig determines the instance binding and the process configuration
// for the configured deployment mode.
//
// Fixed-flags mode (primary) derives the binding from Config.Host and passes
// it to the emulator explicitly. Env-init mode queries the emulator's
// env-init subcommand and adopts whatever binding it reports.
func (c *Controller) spawnConfig(ctx context.Context) (binding, emulator.Config, error) {
	procCfg := emulator.Config{
		Binary:      c.binaryPath,
		DataDir:     c.cfg.DataDir,
		StopTimeout: c.cfg.StopTimeout,
		Logger:      c.log,
	}

	if c.cfg.UseEnvInit {
		res, err := emulator.EnvInit(ctx, c.binaryPath)
		if err != nil {
			return binding{}, emulator.Config{}, fmt.Errorf("derive emulator binding: %w", err)
		}
		return binding{
			host:         res.Host,
			emulatorHost: res.EmulatorHost,
			projectID:    res.ProjectID,
		}, procCfg, nil
	}

	bnd, err := c.resolveBinding()
	if err != nil {
		return binding{}, emulator.Config{}, err
	}
	procCfg.HostPort = bnd.emulatorHost
	procCfg.ProjectID = bnd.projectID
	return bnd, procCfg, nil
}

// resolveBinding computes the fixed-flags binding from Config.Host. A port
// of 0 is replaced with a kernel-assigned free port, allowing parallel
// controllers on one machine without hardcoded port coordination.
func (c *Controller) resolveBinding() (binding, error) {
	u, err := url.Parse(c.cfg.Host)
	if err != nil {
		return binding{}, fmt.Errorf("parse host %q: %w", c.cfg.Host, err)
	}

	hostPort := u.Host
	if u.Port() == "0" {
		port, err := netutil.FreePort()
		if err != nil {
			return binding{}, fmt.Errorf("allocate emulator port: %w", err)
		}
		hostPort = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}

	return binding{
		host:         u.Scheme + "://" + hostPort,
		emulatorHost: hostPort,
		projectID:    c.cfg.ProjectID,
	}, nil
}

// bindEnv sets the discovery variables for a freshly spawned instance and
// records them for symmetric removal on teardown.
func (c *Controller) bindEnv(bnd binding) error {
	if err := c.env.Bind(EnvEmulatorHost, bnd.emulatorHost); err != nil {
		return err
	}
	if err := c.env.Bind(EnvProjectID, bnd.projectID); err != nil {
		return err
	}
	return nil
}

// abortSpawn reverts a partially completed spawn: unbind every recorded
// environment variable and terminate the child. Called on any failure
// between spawn and successful readiness confirmation, so the caller can
// propagate the original error with no residual state.
func (c *Controller) abortSpawn(proc *emulator.Process) {
	if err := c.env.UnbindAll(); err != nil {
		c.log.Warn("unbind env vars during spawn abort", "error", err)
	}
	if err := process.StopCloseAndNil(&proc, c.cfg.StopTimeout); err != nil {
		c.log.Warn("terminate emulator during spawn abort", "error", err)
	}
}
