package process

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// DefaultStopTimeout is the fallback timeout for stopping the emulator
// process when no explicit stop timeout is configured.
const DefaultStopTimeout = 10 * time.Second

// termGracePeriod is how long the process gets to exit after SIGTERM before
// SIGKILL is sent. Capped at the overall stop timeout.
const termGracePeriod = 5 * time.Second

// killDrainTimeout bounds the wait on the done channel after SIGKILL (or
// after the process already exited). SIGKILL cannot be caught, so cmd.Wait
// should return almost immediately; this exists only to prevent indefinite
// blocking if Wait hangs on stuck I/O.
const killDrainTimeout = 10 * time.Second

// drainDone reads from the done channel with timeout as a hard upper bound.
// Returns true and the cmd.Wait error if the channel delivered in time, or
// false and nil if the timeout elapsed.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// stopWithDone implements the SIGTERM-then-SIGKILL shutdown sequence against
// a process whose single cmd.Wait goroutine delivers to done. The done
// channel must receive the result of exactly one cmd.Wait call; reusing it
// here avoids a second Wait, which would be undefined.
//
// The sequence: SIGTERM, SIGKILL scheduled after a grace period (canceled if
// the process exits first), then wait for exit or the total timeout. The
// caller clears cmd and channel references after stopWithDone returns.
//
// Worst-case blocking is timeout + killDrainTimeout; callers allocating time
// budgets should account for the extra drain window.
func stopWithDone(cmd *exec.Cmd, done <-chan error, timeout time.Duration, name string) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if done == nil {
		return fmt.Errorf("%s: done channel must not be nil", name)
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Signal failure means the process already exited; drain the wait
		// goroutine with a bounded wait.
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out draining process after signal failure", name)
		}
		return expectSignalExit(waitErr, name)
	}

	// The grace period is clamped to the total timeout so SIGKILL always
	// fires while the total timer is still running, leaving drainDone a
	// window to collect the exit status.
	grace := min(termGracePeriod, timeout)
	killTimer := time.AfterFunc(grace, func() {
		// Kill on an already-finished process returns a harmless
		// "process already finished" error; discard it.
		_ = cmd.Process.Kill()
	})
	defer killTimer.Stop()

	totalTimer := time.NewTimer(timeout)
	defer totalTimer.Stop()

	select {
	case err := <-done:
		return expectSignalExit(err, name)
	case <-totalTimer.C:
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out waiting for process to exit after SIGKILL", name)
		}
		if err := expectSignalExit(waitErr, name); err != nil {
			return fmt.Errorf("%s stop timeout: %w", name, err)
		}
		return nil
	}
}

// expectSignalExit interprets a cmd.Wait error after a termination signal was
// sent. Exits caused by SIGTERM or SIGKILL are successful stops.
func expectSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			sig := status.Signal()
			if sig == syscall.SIGTERM || sig == syscall.SIGKILL {
				return nil
			}
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
