package core

import (
	"context"
	"os"
)

// detectRunning checks whether an already-running emulator can be reused.
// Reuse requires both discovery variables to be present and the advertised
// host to answer a healthcheck. Every failure mode (either variable absent,
// connection error, non-200) means "not reusable", never an error; control
// falls through to the spawn path. detectRunning only reads the environment,
// it never mutates it.
func (c *Controller) detectRunning(ctx context.Context) (*externalInstance, bool) {
	host, ok := os.LookupEnv(EnvHost)
	if !ok || host == "" {
		return nil, false
	}
	projectID, ok := os.LookupEnv(EnvProjectID)
	if !ok || projectID == "" {
		return nil, false
	}

	if !c.isHealthy(ctx, host) {
		c.log.Debug("advertised emulator not healthy; falling through to spawn",
			"host", host)
		return nil, false
	}

	return &externalInstance{host: host, projectID: projectID}, true
}
