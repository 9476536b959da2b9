// Package envbind tracks process-environment mutations so they can be
// reverted exactly.
//
// Setting an environment variable is process-global state visible to every
// goroutine and every library reading the environment afterward. Binder
// isolates that side effect behind an acquire/release pair: Bind records each
// key it sets, and UnbindAll removes precisely the recorded keys, never more
// and never less.
package envbind
