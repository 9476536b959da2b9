package core

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Environment variable names read and written by the controller. These are
// the Cloud Datastore emulator's discovery convention and must match it
// bit-exact or client-library auto-discovery breaks.
const (
	// EnvHost advertises the base URL of a running instance (with scheme).
	// Read during reuse detection, never written.
	EnvHost = "DATASTORE_HOST"

	// EnvEmulatorHost is the host:port client libraries connect to.
	// Written when the controller spawns an instance.
	EnvEmulatorHost = "DATASTORE_EMULATOR_HOST"

	// EnvProjectID is the project identifier associated with the instance.
	// Read during reuse detection and written on spawn.
	EnvProjectID = "DATASTORE_PROJECT_ID"
)

// Config holds configuration for a Controller.
//
// All fields are immutable after construction via New; the controller reads
// them without synchronization.
type Config struct {
	// Binary is the name (resolved via PATH lookup) or path of the gcloud
	// binary that hosts the emulator.
	Binary string

	// Host is the base URL the spawned emulator binds, e.g.
	// "http://localhost:8088". A port of 0 selects a kernel-assigned free
	// port at spawn time. Ignored in env-init mode.
	Host string

	// ProjectID is the project identifier passed to the spawned emulator.
	// Ignored in env-init mode, where the emulator reports its own.
	ProjectID string

	// DataDir is where the controller keeps the emulator's output log and
	// its spawn lock file.
	DataDir string

	// Endpoint paths on the active instance. HealthcheckPath may be empty
	// (the emulator answers healthchecks at its root).
	HealthcheckPath string
	ResetPath       string
	ShutdownPath    string

	// StartTimeout bounds readiness confirmation after spawn; PollInterval
	// is the delay between consecutive healthcheck attempts.
	StartTimeout time.Duration
	PollInterval time.Duration

	// StopTimeout bounds the SIGTERM/SIGKILL termination sequence.
	StopTimeout time.Duration

	// UseEnvInit selects the env-init deployment mode: the emulator picks
	// its own binding, which the controller derives from the env-init
	// subcommand's output instead of passing explicit flags.
	UseEnvInit bool
}

// Validate checks all Config invariants and reports every violation found,
// joined into one error, so callers can fix all problems in a single pass.
func (c Config) Validate() error {
	var errs []error

	if c.Binary == "" {
		errs = append(errs, errors.New("binary must not be empty"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data directory must not be empty"))
	}
	if !c.UseEnvInit {
		if err := validateHostURL(c.Host); err != nil {
			errs = append(errs, err)
		}
		if c.ProjectID == "" {
			errs = append(errs, errors.New("project ID must not be empty"))
		}
	}
	if c.StartTimeout <= 0 {
		errs = append(errs, fmt.Errorf("start timeout must be greater than 0, got %s", c.StartTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be greater than 0, got %s", c.PollInterval))
	}
	if c.PollInterval > 0 && c.StartTimeout > 0 && c.PollInterval >= c.StartTimeout {
		errs = append(errs, fmt.Errorf("poll interval %s must be shorter than start timeout %s", c.PollInterval, c.StartTimeout))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be greater than 0, got %s", c.StopTimeout))
	}

	return errors.Join(errs...)
}

// validateHostURL checks that host is an absolute http(s) URL with a
// host component.
func validateHostURL(host string) error {
	if host == "" {
		return errors.New("host must not be empty")
	}
	u, err := url.Parse(host)
	if err != nil {
		return fmt.Errorf("host %q is not a valid URL: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("host %q must use http or https scheme", host)
	}
	if u.Host == "" {
		return fmt.Errorf("host %q must include a host component", host)
	}
	return nil
}
