// Package netutil provides networking helpers for choosing emulator bindings.
package netutil
