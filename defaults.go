package dsemu

import "time"

// Default configuration values for New.
// These constants are exported so callers can reference the defaults
// when building custom configurations relative to them (e.g.,
// 2 * DefaultStartTimeout).
const (
	// DefaultBinary is the binary name used to locate the gcloud CLI in
	// PATH. The emulator itself ships as a gcloud component and is started
	// through gcloud subcommands.
	DefaultBinary = "gcloud"

	// DefaultHost is the base URL a spawned emulator binds to and the URL
	// used for healthcheck, reset, and shutdown requests. A port of 0
	// requests a kernel-assigned free port instead.
	DefaultHost = "http://localhost:8088"

	// DefaultProjectID is the Datastore project identifier passed to a
	// spawned emulator. The emulator does not validate it against any real
	// Google Cloud project.
	DefaultProjectID = "test"

	// DefaultDataDirName is the directory name under the system temp
	// directory where emulator output logs and the spawn lock are stored.
	// The full path is computed as filepath.Join(os.TempDir(),
	// DefaultDataDirName).
	DefaultDataDirName = "dsemu"

	// DefaultStartTimeout bounds how long Start waits for a spawned
	// emulator to answer healthchecks. Emulator startup typically takes
	// 2-10 seconds depending on JVM warmup.
	DefaultStartTimeout = 30 * time.Second

	// DefaultPollInterval is the delay between consecutive healthcheck
	// attempts while waiting for a spawned emulator to become ready.
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultStopTimeout bounds how long Stop waits for an owned emulator
	// process to terminate after the shutdown request and SIGTERM.
	DefaultStopTimeout = 10 * time.Second

	// DefaultHealthcheckPath is the request path used to probe emulator
	// liveness. The emulator answers GET on its root with 200 when ready.
	DefaultHealthcheckPath = ""

	// DefaultResetPath is the request path that clears the emulator's
	// in-memory storage.
	DefaultResetPath = "/reset"

	// DefaultShutdownPath is the request path that asks the emulator to
	// shut itself down cleanly.
	DefaultShutdownPath = "/shutdown"
)
