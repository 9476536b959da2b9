package dsemu

import "github.com/fwojciec/dsemu/internal/core"

// emulatorConfig holds configuration for an Emulator. This unexported type
// wraps core.Config via embedding, keeping internal/core types out of the
// public API signature while avoiding field-by-field duplication.
type emulatorConfig struct {
	core.Config
}

// toCoreConfig returns the embedded core.Config.
func (c emulatorConfig) toCoreConfig() core.Config {
	return c.Config
}
