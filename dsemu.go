package dsemu

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fwojciec/dsemu/internal/core"
)

// Emulator manages the lifecycle of a Cloud Datastore emulator for tests.
//
// Start either adopts an already-running instance advertised through
// environment variables or spawns a fresh emulator process and blocks until
// it answers healthchecks. Reset clears the emulator's storage between test
// cases. Stop tears down an owned instance and reverts every environment
// mutation made on the way up; an adopted instance is left running.
//
// An Emulator is a single-owner fixture: its methods are not safe for
// concurrent use from multiple goroutines without external synchronization.
// It is reusable; each Start/Stop cycle leaves no residual state.
type Emulator struct {
	ctl *core.Controller
}

// defaultConfig returns an emulatorConfig populated with all default
// values. Both New and test helpers use this to avoid duplicating the
// default field assignments.
func defaultConfig() emulatorConfig {
	return emulatorConfig{core.Config{
		Binary:          DefaultBinary,
		Host:            DefaultHost,
		ProjectID:       DefaultProjectID,
		DataDir:         filepath.Join(os.TempDir(), DefaultDataDirName),
		HealthcheckPath: DefaultHealthcheckPath,
		ResetPath:       DefaultResetPath,
		ShutdownPath:    DefaultShutdownPath,
		StartTimeout:    DefaultStartTimeout,
		PollInterval:    DefaultPollInterval,
		StopTimeout:     DefaultStopTimeout,
	}}
}

// New creates an Emulator with the given options applied over the package
// defaults. This performs no I/O; call Start to bring an instance up.
//
// Panics if any option receives an invalid value. See individual With*
// functions for constraints.
func New(opts ...Option) (*Emulator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	ctl, err := core.New(cfg.toCoreConfig())
	if err != nil {
		return nil, err
	}
	return &Emulator{ctl: ctl}, nil
}

// Start brings the emulator to the running state.
//
// If the DATASTORE_HOST and DATASTORE_PROJECT_ID environment variables point
// at an instance that answers healthchecks, that instance is adopted and no
// process is spawned. Otherwise Start launches the emulator binary, exports
// DATASTORE_EMULATOR_HOST and DATASTORE_PROJECT_ID for client libraries to
// discover, and blocks until the instance is ready or the start timeout
// elapses (ErrStartupTimeout). Start while already running is a no-op.
func (e *Emulator) Start(ctx context.Context) error {
	return e.ctl.Start(ctx)
}

// Stop returns the emulator to the stopped state.
//
// An owned instance receives a best-effort shutdown request before its
// process is terminated and the environment variables bound by Start are
// removed. An adopted instance is left running; only local state is
// cleared. Stop without a prior successful Start is a no-op. Returns nil on
// success; using defer e.Stop() is safe.
func (e *Emulator) Stop() error {
	return e.ctl.Stop()
}

// Reset clears the active instance's storage, restoring the empty state a
// fresh emulator starts with. Valid only while running; returns
// ErrNotRunning otherwise. A non-200 response surfaces as a
// *RequestFailedError.
func (e *Emulator) Reset(ctx context.Context) error {
	return e.ctl.Reset(ctx)
}

// Running reports whether an instance is active.
func (e *Emulator) Running() bool {
	return e.ctl.Running()
}

// Owned reports whether the active instance was spawned by this Emulator.
// False while stopped or when an external instance was adopted.
func (e *Emulator) Owned() bool {
	return e.ctl.Owned()
}

// Host returns the base URL of the active instance, or "" and false while
// stopped.
func (e *Emulator) Host() (string, bool) {
	return e.ctl.Host()
}

// ProjectID returns the project identifier of the active instance, or ""
// and false while stopped.
func (e *Emulator) ProjectID() (string, bool) {
	return e.ctl.ProjectID()
}

// BoundEnvVars returns the names of environment variables currently
// exported by this Emulator, sorted. Empty unless an owned instance is
// active.
func (e *Emulator) BoundEnvVars() []string {
	return e.ctl.BoundEnvVars()
}
