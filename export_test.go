package dsemu

import "time"

// ConfigSnapshot holds a copy of emulatorConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	Binary          string
	Host            string
	ProjectID       string
	DataDir         string
	HealthcheckPath string
	ResetPath       string
	ShutdownPath    string
	StartTimeout    time.Duration
	PollInterval    time.Duration
	StopTimeout     time.Duration
	UseEnvInit      bool
}

// ApplyOptionsForTesting creates a default emulatorConfig, applies the given
// options, and returns a ConfigSnapshot of the result. This tests the option
// closures directly without constructing an Emulator.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		Binary:          cfg.Binary,
		Host:            cfg.Host,
		ProjectID:       cfg.ProjectID,
		DataDir:         cfg.DataDir,
		HealthcheckPath: cfg.HealthcheckPath,
		ResetPath:       cfg.ResetPath,
		ShutdownPath:    cfg.ShutdownPath,
		StartTimeout:    cfg.StartTimeout,
		PollInterval:    cfg.PollInterval,
		StopTimeout:     cfg.StopTimeout,
		UseEnvInit:      cfg.UseEnvInit,
	}
}
