// Package httpx implements the one-shot HTTP requests the controller issues
// against an emulator instance: healthcheck GETs and the reset/shutdown POSTs.
package httpx
