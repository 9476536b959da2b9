package emulator

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fwojciec/dsemu/internal/sentinel"
)

// ErrEnvParse is returned when the env-init subcommand output cannot be
// parsed. This is fatal: without a parsed binding the controller's state
// would be undefined.
const ErrEnvParse = sentinel.Error("failed to parse env-init output")

// EnvInitResult holds the emulator binding derived from env-init output.
type EnvInitResult struct {
	Host         string // Base URL with scheme, e.g. "http://localhost:8081"
	EmulatorHost string // host:port as client libraries expect it
	ProjectID    string
}

// EnvInit queries the emulator's environment by running
// `gcloud beta emulators datastore env-init` and parsing its output.
// Used by the env-init deployment mode, where the emulator picks its own
// binding instead of receiving explicit host-port and project flags.
func EnvInit(ctx context.Context, binary string) (EnvInitResult, error) {
	cmd := exec.CommandContext(ctx, binary, "beta", "emulators", "datastore", "env-init")
	out, err := cmd.Output()
	if err != nil {
		return EnvInitResult{}, fmt.Errorf("run env-init: %w", err)
	}
	return ParseEnvInit(string(out))
}

// ParseEnvInit extracts the emulator binding from env-init output. The
// output is a sequence of shell export lines; keys are matched by suffix so
// the leading "export " (or a platform-specific "set ") does not matter.
// All three variables must be present or the result is ErrEnvParse.
//
// DATASTORE_EMULATOR_HOST is checked before DATASTORE_HOST: suffix matching
// alone cannot confuse the two, but the explicit ordering keeps the intent
// obvious.
func ParseEnvInit(output string) (EnvInitResult, error) {
	var res EnvInitResult

	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch {
		case strings.HasSuffix(key, "DATASTORE_EMULATOR_HOST"):
			res.EmulatorHost = val
		case strings.HasSuffix(key, "DATASTORE_HOST"):
			res.Host = val
		case strings.HasSuffix(key, "DATASTORE_PROJECT_ID"):
			res.ProjectID = val
		}
	}

	if res.Host == "" || res.EmulatorHost == "" || res.ProjectID == "" {
		return EnvInitResult{}, ErrEnvParse
	}
	return res, nil
}
