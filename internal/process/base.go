package process

import (
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/fwojciec/dsemu/internal/sentinel"
)

// ErrAlreadyStarted is returned when Start is called on a process that is
// already running. Callers must Stop the process before starting it again.
const ErrAlreadyStarted = sentinel.Error("process already started")

// ErrNilCmd is returned when SetupAndStart is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when SetupAndStart is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// ErrEmptyDataDir is returned when SetupAndStart is called with an empty data directory.
const ErrEmptyDataDir = sentinel.Error("data directory must not be empty")

// Base provides common child-process lifecycle management for the emulator
// wrapper.
//
// Base is not safe for concurrent use. The controller that owns the process
// serializes all lifecycle calls, so no internal locking is needed.
type Base struct {
	cmd         *exec.Cmd
	waitDone    <-chan error    // receives the single cmd.Wait result; consumed by Stop
	exited      <-chan struct{} // closed when the process exits; safe to select on anywhere
	output      *OutputFile
	name        string
	log         *slog.Logger
	stopTimeout time.Duration // fallback timeout for auto-stop in Close
}

// NewBase creates a Base with the given process name, logger, and stop
// timeout. The stopTimeout bounds the auto-stop performed by Close when the
// caller forgot to Stop; zero falls back to DefaultStopTimeout. A nil logger
// falls back to slog.Default(). Panics on an empty name, which would produce
// unusable error messages throughout the lifecycle.
func NewBase(name string, logger *slog.Logger, stopTimeout time.Duration) Base {
	if name == "" {
		panic("dsemu: process name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Base{name: name, log: logger, stopTimeout: stopTimeout}
}

// SetupAndStart captures the command's output to a log file in dataDir and
// starts it. The cmd must already have its Path and Args set; SetupAndStart
// sets Dir, Stdout, and Stderr.
//
// Exactly one goroutine calling cmd.Wait is started here. Calling Wait more
// than once per process is undefined, so the resulting channel is the only
// place the exit status is delivered; Stop consumes it.
func (b *Base) SetupAndStart(cmd *exec.Cmd, dataDir string) error {
	if cmd == nil {
		return ErrNilCmd
	}
	if cmd.Path == "" {
		return ErrEmptyCmdPath
	}
	if dataDir == "" {
		return ErrEmptyDataDir
	}
	if b.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd.Dir = dataDir
	configureSysProcAttr(cmd)

	output, err := NewOutputFile(dataDir, b.name)
	if err != nil {
		return fmt.Errorf("create %s output log: %w", b.name, err)
	}
	cmd.Stdout = output.File()
	cmd.Stderr = output.File()

	if err := cmd.Start(); err != nil {
		output.Close()
		return fmt.Errorf("start %s process: %w", b.name, err)
	}
	b.cmd = cmd
	b.output = output

	// done (buffered 1) carries the cmd.Wait error to Stop; exited is a
	// broadcast close that readiness polls select on to notice early death.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	b.waitDone = done
	b.exited = exited

	return nil
}

// Stop terminates the process with the given timeout. After Stop returns,
// IsStarted reports false regardless of the outcome, since the process is no
// longer in a known-running state. Safe to call when the process was never
// started or Stop already ran; returns nil in those cases.
func (b *Base) Stop(timeout time.Duration) error {
	if b.cmd == nil || b.cmd.Process == nil {
		b.cmd = nil
		b.waitDone = nil
		b.exited = nil
		return nil
	}
	pid := b.cmd.Process.Pid
	err := stopWithDone(b.cmd, b.waitDone, timeout, b.name)
	if err != nil {
		b.log.Warn("process stop failed; process may be orphaned",
			"process", b.name, "pid", pid, "error", err)
	}
	b.cmd = nil
	b.waitDone = nil
	b.exited = nil
	return err
}

// Close releases the output log file handle. If the process is still running,
// Close logs a warning and stops it first; callers should always Stop before
// Close, the auto-stop is a safety net only.
func (b *Base) Close() {
	if b.cmd != nil {
		b.log.Warn("process.Close called without Stop; stopping automatically",
			"process", b.name)
		timeout := b.stopTimeout
		if timeout <= 0 {
			timeout = DefaultStopTimeout
		}
		if err := b.Stop(timeout); err != nil {
			b.log.Warn("auto-stop during Close failed",
				"process", b.name, "error", err)
		}
	}
	if b.output != nil {
		b.output.Close()
		b.output = nil
	}
}

// Exited returns a channel that is closed when the process exits. Returns nil
// if the process has not been started or has already been stopped.
func (b *Base) Exited() <-chan struct{} {
	return b.exited
}

// IsStarted reports whether the process has been started and not yet stopped.
func (b *Base) IsStarted() bool {
	return b.cmd != nil
}

// Logger returns the logger used by this process.
func (b *Base) Logger() *slog.Logger {
	return b.log
}

// OutputPath returns the path of the output log file, or "" before start.
func (b *Base) OutputPath() string {
	if b.output == nil {
		return ""
	}
	return b.output.Path()
}
