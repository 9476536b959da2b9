package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "dsemu.yaml", `
host: http://localhost:9090
project: ci-project
binary: /opt/google-cloud-sdk/bin/gcloud
dataDir: /var/tmp/dsemu
startTimeout: 45s
stopTimeout: 15s
pollInterval: 100ms
envInit: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "http://localhost:9090" {
		t.Errorf("Host = %q, want %q", cfg.Host, "http://localhost:9090")
	}
	if cfg.ProjectID != "ci-project" {
		t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "ci-project")
	}
	if cfg.Binary != "/opt/google-cloud-sdk/bin/gcloud" {
		t.Errorf("Binary = %q, want %q", cfg.Binary, "/opt/google-cloud-sdk/bin/gcloud")
	}
	if cfg.DataDir != "/var/tmp/dsemu" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/var/tmp/dsemu")
	}
	if time.Duration(cfg.StartTimeout) != 45*time.Second {
		t.Errorf("StartTimeout = %v, want 45s", time.Duration(cfg.StartTimeout))
	}
	if time.Duration(cfg.StopTimeout) != 15*time.Second {
		t.Errorf("StopTimeout = %v, want 15s", time.Duration(cfg.StopTimeout))
	}
	if time.Duration(cfg.PollInterval) != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", time.Duration(cfg.PollInterval))
	}
	if !cfg.EnvInit {
		t.Error("EnvInit = false, want true")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "dsemu.yaml", "startTimeout: soon\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() with unparseable duration succeeded, want error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() on missing file succeeded, want error")
	}
}

func TestLoadFromDir(t *testing.T) {
	t.Parallel()

	t.Run("yaml extension", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeConfig(t, dir, "dsemu.yaml", "project: from-yaml\n")

		cfg, err := LoadFromDir(dir)
		if err != nil {
			t.Fatalf("LoadFromDir() error = %v", err)
		}
		if cfg.ProjectID != "from-yaml" {
			t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "from-yaml")
		}
	})

	t.Run("yml fallback", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeConfig(t, dir, "dsemu.yml", "project: from-yml\n")

		cfg, err := LoadFromDir(dir)
		if err != nil {
			t.Fatalf("LoadFromDir() error = %v", err)
		}
		if cfg.ProjectID != "from-yml" {
			t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "from-yml")
		}
	})

	t.Run("yaml preferred over yml", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeConfig(t, dir, "dsemu.yaml", "project: preferred\n")
		writeConfig(t, dir, "dsemu.yml", "project: shadowed\n")

		cfg, err := LoadFromDir(dir)
		if err != nil {
			t.Fatalf("LoadFromDir() error = %v", err)
		}
		if cfg.ProjectID != "preferred" {
			t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "preferred")
		}
	})

	t.Run("no config file", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFromDir(t.TempDir())
		if err != nil {
			t.Fatalf("LoadFromDir() error = %v", err)
		}
		if *cfg != (Config{}) {
			t.Errorf("LoadFromDir() on empty dir = %+v, want zero config", cfg)
		}
	})
}
