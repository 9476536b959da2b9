// Package process manages the lifecycle of the external emulator child
// process.
//
// It provides Base for common start/stop behavior, a SIGTERM-then-SIGKILL
// stop sequence that never blocks unbounded, WaitReady for polling-based
// readiness confirmation, and output capture so the child's stderr does not
// pollute test output.
package process
