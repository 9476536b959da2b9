package dsemu

import (
	"log/slog"

	"github.com/fwojciec/dsemu/internal/core"
)

// SetLogger replaces the package-level logger used by dsemu.
// This allows applications to integrate dsemu logging with their own
// logging infrastructure. The provided logger should already have any
// desired attributes; dsemu will not add additional attributes.
//
// If l is nil, the logger resets to the default: slog.Default() with
// "component" attribute, re-derived on the next internal logger access and
// then cached. Call SetLogger(nil) after slog.SetDefault() to pick up
// changes.
//
// SetLogger is safe to call concurrently with other dsemu operations; both
// the custom logger and the cached default are stored as atomic pointers.
// For a strict happens-before guarantee, call SetLogger before starting
// goroutines that use the library (e.g., in TestMain before m.Run).
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
