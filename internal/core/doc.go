// Package core implements the emulator lifecycle controller.
//
// The controller is a small state machine: Stopped, Running with an
// externally managed instance (adopted via environment-variable discovery),
// or Running with an owned instance (a child process this controller spawned
// and must terminate). Ownership gates the shutdown and terminate actions;
// environment bindings are acquired on spawn and released exactly on stop.
package core
