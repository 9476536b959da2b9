package dsemu

import (
	"github.com/fwojciec/dsemu/internal/core"
	"github.com/fwojciec/dsemu/internal/emulator"
	"github.com/fwojciec/dsemu/internal/httpx"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrBinaryNotFound is returned by Start when the emulator binary
	// cannot be resolved via PATH.
	ErrBinaryNotFound = core.ErrBinaryNotFound

	// ErrStartupTimeout is returned by Start when a spawned emulator does
	// not answer healthchecks within the start timeout. The partially
	// started process and its environment bindings are already reverted
	// when this error is returned.
	ErrStartupTimeout = core.ErrStartupTimeout

	// ErrNotRunning is returned by Reset when no emulator instance is
	// active.
	ErrNotRunning = core.ErrNotRunning

	// ErrEnvParse is returned by Start in env-init mode when the
	// emulator's env-init output does not contain the expected variables.
	ErrEnvParse = emulator.ErrEnvParse
)

// RequestFailedError describes an emulator HTTP request that was answered
// with a non-200 status. Returned by Reset and surfaced from internal
// healthcheck and shutdown requests; inspect with errors.As.
type RequestFailedError = httpx.RequestFailedError
