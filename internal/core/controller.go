package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"

	"github.com/fwojciec/dsemu/internal/envbind"
	"github.com/fwojciec/dsemu/internal/httpx"
	"github.com/fwojciec/dsemu/internal/process"
)

// Controller drives the emulator lifecycle: Start adopts or spawns an
// instance, Reset clears its storage between test cases, Stop tears it down
// and reverts every environment mutation made on the way up.
//
// A Controller is a single-owner object. Start, Stop, and Reset mutate
// shared fields without internal locking, matching its intended use as a
// per-test-session fixture; callers running it from multiple goroutines must
// provide their own synchronization. The object is reusable: each start/stop
// cycle leaves no residual state behind.
type Controller struct {
	cfg    Config
	client *http.Client
	env    *envbind.Binder
	log    *slog.Logger

	// active is nil while Stopped; see activeInstance for the Running shapes.
	active activeInstance

	// binaryPath caches the resolved emulator binary path. Resolved at most
	// once per controller lifetime.
	binaryPath string
}

// New creates a Controller with the given configuration.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid controller config: %w", err)
	}
	return &Controller{
		cfg:    cfg,
		client: httpx.NewClient(),
		env:    envbind.New(),
		log:    Logger(),
	}, nil
}

// Start brings the controller to the Running state. It first checks for a
// reusable externally managed instance (advertised through environment
// variables and answering healthchecks); only when none exists does it spawn
// an emulator process, bind the discovery environment variables, and block
// until readiness is confirmed or the start timeout elapses.
//
// Start while already Running is a no-op: no second process is spawned and
// no environment binding is duplicated.
func (c *Controller) Start(ctx context.Context) error {
	if c.active != nil {
		return nil
	}

	if inst, ok := c.detectRunning(ctx); ok {
		c.active = inst
		c.log.Debug("reusing running emulator",
			"host", inst.host, "project", inst.projectID)
		return nil
	}

	return c.spawn(ctx)
}

// Stop returns the controller to the Stopped state.
//
// For an owned instance: if the instance still answers healthchecks, a
// best-effort shutdown request is sent first; its failure is logged, not
// returned, since the process is about to be terminated regardless. The
// environment unbind and process termination then run unconditionally; a
// failed shutdown request can never skip them.
//
// For an external instance only local state is cleared; shutdown is the
// owner's job. Stop without a prior successful Start is a no-op.
func (c *Controller) Stop() error {
	switch inst := c.active.(type) {
	case nil:
		return nil

	case *externalInstance:
		c.active = nil
		return nil

	case *ownedInstance:
		if c.isHealthy(context.Background(), inst.host) {
			if err := httpx.Do(context.Background(), c.client, http.MethodPost, inst.host, c.cfg.ShutdownPath); err != nil {
				c.log.Warn("shutdown request failed; terminating anyway", "error", err)
			}
		}

		var errs []error
		if err := c.env.UnbindAll(); err != nil {
			errs = append(errs, err)
		}
		if err := process.StopCloseAndNil(&inst.proc, c.cfg.StopTimeout); err != nil {
			errs = append(errs, err)
		}
		c.active = nil
		return errors.Join(errs...)

	default:
		return fmt.Errorf("unknown instance type %T", inst)
	}
}

// Reset clears the active instance's in-memory storage via the reset
// endpoint. Valid only while Running; returns ErrNotRunning otherwise.
// Unlike healthcheck failures, a reset failure is surfaced to the caller:
// reset is usually a test pre-condition and must not be silently swallowed.
func (c *Controller) Reset(ctx context.Context) error {
	if c.active == nil {
		return ErrNotRunning
	}
	host, _ := c.active.hostProject()
	return httpx.Do(ctx, c.client, http.MethodPost, host, c.cfg.ResetPath)
}

// Running reports whether an instance is active.
func (c *Controller) Running() bool {
	return c.active != nil
}

// Owned reports whether the active instance was spawned by this controller.
// False while Stopped or when reusing an external instance.
func (c *Controller) Owned() bool {
	_, ok := c.active.(*ownedInstance)
	return ok
}

// Host returns the base URL of the active instance, or "" and false while
// Stopped.
func (c *Controller) Host() (string, bool) {
	if c.active == nil {
		return "", false
	}
	host, _ := c.active.hostProject()
	return host, true
}

// ProjectID returns the project identifier of the active instance, or ""
// and false while Stopped.
func (c *Controller) ProjectID() (string, bool) {
	if c.active == nil {
		return "", false
	}
	_, projectID := c.active.hostProject()
	return projectID, true
}

// BoundEnvVars returns the names of environment variables currently bound by
// this controller, sorted. Empty unless an owned instance is active.
func (c *Controller) BoundEnvVars() []string {
	return c.env.Bound()
}

// isHealthy reports whether host answers the healthcheck endpoint with 200.
// All failures (connection refused, timeouts, non-200) count as unhealthy.
func (c *Controller) isHealthy(ctx context.Context, host string) bool {
	return httpx.Do(ctx, c.client, http.MethodGet, host, c.cfg.HealthcheckPath) == nil
}

// resolveBinary resolves the emulator binary path once and caches it.
func (c *Controller) resolveBinary() (string, error) {
	if c.binaryPath != "" {
		return c.binaryPath, nil
	}
	path, err := exec.LookPath(c.cfg.Binary)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.cfg.Binary, ErrBinaryNotFound)
	}
	c.binaryPath = path
	return path, nil
}
