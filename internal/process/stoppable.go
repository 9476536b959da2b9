package process

import (
	"time"
)

// Stoppable represents a process that can be stopped and have its resources
// closed.
type Stoppable interface {
	Stop(timeout time.Duration) error
	Close()
}

// StopCloseAndNil stops, closes, and nils a Stoppable pointer as one cleanup
// step. Safe to call with a nil p or when *p is nil; returns nil immediately
// in both cases.
//
// The two type parameters constrain P to pointer types implementing
// Stoppable, so *p is directly comparable to nil without reflection. Close
// and nil-out run even when Stop fails: the process is then in an unknown
// state, but the file handles must still be released and the stale reference
// cleared. The Stop error is returned either way.
func StopCloseAndNil[P interface {
	*E
	Stoppable
}, E any](p *P, timeout time.Duration) error {
	if p == nil || *p == nil {
		return nil
	}
	defer func() {
		(*p).Close()
		*p = nil
	}()
	return (*p).Stop(timeout)
}
