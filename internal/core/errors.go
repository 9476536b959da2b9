package core

import "github.com/fwojciec/dsemu/internal/sentinel"

// ErrBinaryNotFound is returned by Start when the emulator binary cannot be
// located on the search path. Fatal: spawning is impossible, so the error is
// surfaced immediately and never retried.
const ErrBinaryNotFound = sentinel.Error("emulator binary not found")

// ErrStartupTimeout is returned by Start when the spawned emulator did not
// answer its healthcheck within the configured start timeout. The controller
// has already reverted its environment bindings and terminated the child
// when this error is returned.
const ErrStartupTimeout = sentinel.Error("confirm startup timed out")

// ErrNotRunning is returned by Reset when no instance is active.
const ErrNotRunning = sentinel.Error("emulator is not running")
