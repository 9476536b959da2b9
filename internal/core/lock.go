package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

// spawnLockRetryInterval is the interval between attempts to acquire the
// spawn lock while another process holds it.
const spawnLockRetryInterval = 50 * time.Millisecond

// acquireSpawnLock takes an exclusive file lock on lockPath. The lock
// serializes emulator spawning across test processes sharing a data dir, so
// two processes cannot race to bind the same host:port. Acquisition retries
// until the lock is obtained or ctx is done.
func acquireSpawnLock(ctx context.Context, lockPath string) (*flock.Flock, error) {
	fl := flock.New(lockPath)

	locked, err := fl.TryLockContext(ctx, spawnLockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire spawn lock %s: %w", lockPath, err)
	}
	if !locked {
		// TryLockContext reports failure through its error return; handle
		// the (false, nil) case anyway so a nil lock is never returned
		// without an error.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire spawn lock %s: %w", lockPath, ctx.Err())
		}
		return nil, fmt.Errorf("acquire spawn lock %s: lock not acquired", lockPath)
	}
	return fl, nil
}

// releaseSpawnLock releases the lock and closes its file descriptor. The
// lock file stays on disk: removing it could invalidate a lock another
// process acquired concurrently. Best-effort; errors are logged at debug.
func releaseSpawnLock(logger *slog.Logger, fl *flock.Flock) {
	if fl != nil {
		if err := fl.Close(); err != nil {
			logger.Debug("failed to release spawn lock", "path", fl.Path(), "err", err)
		}
	}
}
