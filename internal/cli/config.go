package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can use the
// time.ParseDuration syntax ("30s", "2m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the workspace configuration (dsemu.yaml).
// Command-line flags override any value set here.
type Config struct {
	Host      string `yaml:"host"`    // Emulator base URL
	ProjectID string `yaml:"project"` // Datastore project ID
	Binary    string `yaml:"binary"`  // Path to the gcloud binary
	DataDir   string `yaml:"dataDir"` // Directory for logs and the spawn lock
	EnvInit   bool   `yaml:"envInit"` // Derive the binding via env-init

	StartTimeout Duration `yaml:"startTimeout"`
	StopTimeout  Duration `yaml:"stopTimeout"`
	PollInterval Duration `yaml:"pollInterval"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromDir looks for dsemu.yaml or dsemu.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, "dsemu.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	configPath = filepath.Join(dir, "dsemu.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}
