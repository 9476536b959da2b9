// Package emulator wraps the Cloud Datastore emulator child process.
//
// It builds the fixed argument set (in-memory storage, eventual-consistency
// simulation disabled), supervises the spawned process, confirms readiness by
// polling the healthcheck endpoint, and implements the env-init deployment
// mode where the emulator's binding is derived from subprocess output instead
// of explicit flags.
package emulator
