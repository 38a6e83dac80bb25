package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "" {
			t.Errorf("expected empty database path, got %s", config.Database.Path)
		}

		if config.MPD.Port != 6600 {
			t.Errorf("expected mpd port 6600, got %d", config.MPD.Port)
		}

		if config.Traversal.QueueLength != 20 {
			t.Errorf("expected queue length 20, got %d", config.Traversal.QueueLength)
		}

		if config.Traversal.DistanceThreshold != 4.0 {
			t.Errorf("expected distance threshold 4.0, got %v", config.Traversal.DistanceThreshold)
		}

		if config.Traversal.SimilarityThreshold != 0.95 {
			t.Errorf("expected similarity threshold 0.95, got %v", config.Traversal.SimilarityThreshold)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if *config != *defaultConfig {
			t.Errorf("created config doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[mpd]
host = "jukebox"
port = 6601

[traversal]
distance_threshold = 2.5
similarity_gate = true
selection = "random"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if network, addr := config.MPD.Address(); network != "tcp" || addr != "jukebox:6601" {
			t.Errorf("expected tcp jukebox:6601, got %s %s", network, addr)
		}

		if config.Traversal.DistanceThreshold != 2.5 || !config.Traversal.SimilarityGate {
			t.Errorf("traversal overrides not applied: %+v", config.Traversal)
		}

		if config.Traversal.TopK != 10 {
			t.Errorf("expected unset top_k to keep default 10, got %d", config.Traversal.TopK)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	t.Run("host and port", func(t *testing.T) {
		config := DefaultConfig()
		config.ApplyEnv(env(map[string]string{"MPD_HOST": "music.local", "MPD_PORT": "6700"}))

		if config.MPD.Host != "music.local" || config.MPD.Port != 6700 {
			t.Errorf("expected music.local:6700, got %s:%d", config.MPD.Host, config.MPD.Port)
		}
		if config.MPD.Password != "" {
			t.Errorf("expected no password, got %q", config.MPD.Password)
		}
	})

	t.Run("password prefix", func(t *testing.T) {
		config := DefaultConfig()
		config.ApplyEnv(env(map[string]string{"MPD_HOST": "secret@music.local"}))

		if config.MPD.Password != "secret" {
			t.Errorf("expected password secret, got %q", config.MPD.Password)
		}
		if config.MPD.Host != "music.local" {
			t.Errorf("expected host music.local, got %s", config.MPD.Host)
		}
	})

	t.Run("socket path", func(t *testing.T) {
		config := DefaultConfig()
		config.ApplyEnv(env(map[string]string{"MPD_HOST": "/run/mpd/socket"}))

		if network, addr := config.MPD.Address(); network != "unix" || addr != "/run/mpd/socket" {
			t.Errorf("expected unix socket, got %s %s", network, addr)
		}
	})

	t.Run("invalid port ignored", func(t *testing.T) {
		config := DefaultConfig()
		config.ApplyEnv(env(map[string]string{"MPD_PORT": "abc"}))

		if config.MPD.Port != 6600 {
			t.Errorf("expected default port, got %d", config.MPD.Port)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative length", func(c *Config) { c.Traversal.QueueLength = -1 }},
		{"negative distance", func(c *Config) { c.Traversal.DistanceThreshold = -0.5 }},
		{"similarity out of range", func(c *Config) { c.Traversal.SimilarityThreshold = 1.5 }},
		{"unknown selection", func(c *Config) { c.Traversal.Selection = "worst" }},
		{"zero top k", func(c *Config) { c.Traversal.Selection = "random"; c.Traversal.TopK = 0 }},
		{"unknown scan order", func(c *Config) { c.Traversal.ScanOrder = "reverse" }},
		{"unsupported features", func(c *Config) { c.Traversal.Features = 5 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"zero timeout", func(c *Config) { c.MPD.TimeoutSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
