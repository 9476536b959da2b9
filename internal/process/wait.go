package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Sentinel errors returned by WaitReady for invalid configuration and
// process lifecycle conditions. Callers can match these with errors.Is
// through wrapped error chains.
var (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = errors.New("interval must be positive")

	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = errors.New("timeout must be positive")

	// ErrProcessExited indicates the process exited before becoming ready.
	ErrProcessExited = errors.New("process exited before becoming ready")
)

// ReadinessCheck reports whether the emulator is ready to serve. The context
// is canceled when the polling loop times out or the caller cancels, so
// checks issuing HTTP requests exit promptly. attempt is 1-based. A true
// result stops polling with success; a non-nil error is fatal and aborts
// polling; transient conditions must be reported as (false, nil).
type ReadinessCheck func(ctx context.Context, attempt int) (ready bool, err error)

// WaitReadyConfig configures the readiness polling loop.
type WaitReadyConfig struct {
	Interval      time.Duration   // Poll interval
	Timeout       time.Duration   // Overall timeout
	Name          string          // For logging (e.g., "datastore-emulator")
	Host          string          // For logging context
	Logger        *slog.Logger    // Optional logger (defaults to slog.Default())
	ProcessExited <-chan struct{} // If non-nil, abort immediately when closed (process died)
}

// WaitReady polls check at cfg.Interval until it returns true, returns a
// fatal error, or cfg.Timeout elapses. The interval and timeout are
// first-class configuration so tests can run the loop without real-time
// sleeps.
func WaitReady(ctx context.Context, cfg WaitReadyConfig, check ReadinessCheck) error {
	if cfg.Name == "" {
		return errors.New("wait ready: name must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrIntervalNotPositive)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrTimeoutNotPositive)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// attempt needs no synchronization: PollUntilContextTimeout invokes the
	// condition sequentially, never concurrently with itself.
	attempt := 0
	if err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true,
		func(pollCtx context.Context) (bool, error) {
			// A dead process will never become ready; bail out instead of
			// polling an unreachable endpoint for the full timeout.
			if cfg.ProcessExited != nil {
				select {
				case <-cfg.ProcessExited:
					return false, fmt.Errorf("process %s: %w", cfg.Name, ErrProcessExited)
				default:
				}
			}

			attempt++
			ready, err := check(pollCtx, attempt)
			if err != nil {
				return false, err
			}
			if ready {
				log.Debug("wait succeeded", "name", cfg.Name, "host", cfg.Host, "attempt", attempt)
			}
			return ready, nil
		}); err != nil {
		return fmt.Errorf("wait for %s readiness on %s: %w", cfg.Name, cfg.Host, err)
	}
	return nil
}
