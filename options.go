package dsemu

import (
	"fmt"
	"net/url"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive(name string, v time.Duration) {
	if v <= 0 {
		panic(fmt.Sprintf("dsemu: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("dsemu: %s must not be empty", name))
	}
}

// Option configures an Emulator during construction via New.
// Each With* function returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations, malformed URLs). These panics are intentional: option values are
// typically compile-time constants or package-level variables, so an invalid
// value indicates a programmer error rather than a runtime condition. The
// pattern mirrors [regexp.MustCompile]: fail fast during initialization
// instead of returning errors that would be universally fatal anyway.
type Option func(*emulatorConfig)

// WithBinary sets the binary used to launch the emulator. Either an
// absolute path or a name resolved via PATH.
//
// Default: "gcloud".
//
// Panics if binPath is empty.
func WithBinary(binPath string) Option {
	requireNonEmpty("binary path", binPath)
	return func(c *emulatorConfig) {
		c.Binary = binPath
	}
}

// WithHost sets the base URL a spawned emulator binds to and the URL used
// for healthcheck, reset, and shutdown requests. The URL must carry an http
// or https scheme and a host component. A port of 0 requests a
// kernel-assigned free port, allowing parallel emulators on one machine.
//
// Default: "http://localhost:8088".
//
// Panics if host is not an absolute http(s) URL.
func WithHost(host string) Option {
	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		panic(fmt.Sprintf("dsemu: host must be an absolute http(s) URL, got %q", host))
	}
	return func(c *emulatorConfig) {
		c.Host = host
	}
}

// WithProjectID sets the Datastore project identifier passed to a spawned
// emulator and exported for client libraries to pick up.
//
// Default: "test".
//
// Panics if projectID is empty.
func WithProjectID(projectID string) Option {
	requireNonEmpty("project ID", projectID)
	return func(c *emulatorConfig) {
		c.ProjectID = projectID
	}
}

// WithDataDir sets the directory for emulator output logs and the spawn
// lock. Useful in CI environments where multiple projects may run emulators
// simultaneously and need isolated data directories.
// If not set, defaults to a "dsemu" directory under the system temp dir.
//
// Panics if dir is empty.
func WithDataDir(dir string) Option {
	requireNonEmpty("data directory", dir)
	return func(c *emulatorConfig) {
		c.DataDir = dir
	}
}

// WithStartTimeout sets the maximum time Start waits for a spawned emulator
// to answer healthchecks. Emulator startup typically takes 2-10 seconds.
//
// Default: 30 seconds.
//
// Panics if d <= 0.
func WithStartTimeout(d time.Duration) Option {
	requirePositive("start timeout", d)
	return func(c *emulatorConfig) {
		c.StartTimeout = d
	}
}

// WithPollInterval sets the delay between consecutive healthcheck attempts
// while waiting for a spawned emulator to become ready. Must be shorter than
// the start timeout.
//
// Default: 250 milliseconds.
//
// Panics if d <= 0.
func WithPollInterval(d time.Duration) Option {
	requirePositive("poll interval", d)
	return func(c *emulatorConfig) {
		c.PollInterval = d
	}
}

// WithStopTimeout sets the maximum time Stop waits for an owned emulator
// process to terminate gracefully before escalating.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *emulatorConfig) {
		c.StopTimeout = d
	}
}

// WithResetPath sets the request path used to clear the emulator's storage.
//
// Default: "/reset".
//
// Panics if path is empty.
func WithResetPath(path string) Option {
	requireNonEmpty("reset path", path)
	return func(c *emulatorConfig) {
		c.ResetPath = path
	}
}

// WithShutdownPath sets the request path used to ask the emulator to shut
// itself down.
//
// Default: "/shutdown".
//
// Panics if path is empty.
func WithShutdownPath(path string) Option {
	requireNonEmpty("shutdown path", path)
	return func(c *emulatorConfig) {
		c.ShutdownPath = path
	}
}

// WithHealthcheckPath sets the request path used to probe emulator
// liveness. The stock emulator answers GET on its root, so the default is
// the empty path; override for proxies that expose a dedicated endpoint.
func WithHealthcheckPath(path string) Option {
	return func(c *emulatorConfig) {
		c.HealthcheckPath = path
	}
}

// WithEnvInit selects the env-init deployment mode: instead of passing an
// explicit host and project to the emulator, the binding is derived from the
// emulator's own env-init subcommand after spawning. Host and project
// configured via WithHost and WithProjectID are ignored in this mode.
func WithEnvInit() Option {
	return func(c *emulatorConfig) {
		c.UseEnvInit = true
	}
}
