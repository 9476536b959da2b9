package core

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger, stored as an atomic pointer so reads
// and writes are data-race-free without a mutex. Nil means no custom logger
// has been set and Logger() falls back to a cached default.
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger (slog.Default() with the
// dsemu component attribute) so it is not rebuilt on every Logger() call.
// If slog.SetDefault() changes after the first Logger() call, the cache goes
// stale; calling SetLogger(nil) clears it so the next call re-derives.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the current package-level logger. Safe for concurrent use.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	// CompareAndSwap so a concurrently cached value is not overwritten;
	// whoever wins, every caller gets a valid logger.
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// newDefaultLogger derives the default logger from slog.Default().
func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "dsemu")
}

// SetLogger replaces the package-level logger. A nil value resets to the
// default derived from slog.Default() on the next Logger() call.
// Safe to call concurrently with other operations.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	// Clear the cached default so the next Logger() call re-derives it,
	// letting callers pick up slog.SetDefault() changes via SetLogger(nil).
	defaultLogger.Store(nil)
}
