package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

//go:embed config.example.toml
var exampleConf []byte

// AppName names the data directory under the XDG data home.
const AppName = "blissify"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Cache     CacheConfig     `toml:"cache"`
	MPD       MPDConfig       `toml:"mpd"`
	Traversal TraversalConfig `toml:"traversal"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig selects the pair cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	BadgerDir string `toml:"badger_dir"`
}

// MPDConfig contains the connection settings of the live player.
type MPDConfig struct {
	Host              string  `toml:"host"`
	Port              int     `toml:"port"`
	Password          string  `toml:"password"`
	Socket            string  `toml:"socket"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	AppendsPerSecond  float64 `toml:"appends_per_second"`
	ReconnectAttempts int     `toml:"reconnect_attempts"`
}

// TraversalConfig contains the thresholds and policy knobs of the playlist walk.
type TraversalConfig struct {
	QueueLength         int     `toml:"queue_length"`
	DistanceThreshold   float64 `toml:"distance_threshold"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	SimilarityGate      bool    `toml:"similarity_gate"`
	TolerateZeroVector  bool    `toml:"tolerate_zero_vector"`
	Selection           string  `toml:"selection"`
	TopK                int     `toml:"top_k"`
	ScanOrder           string  `toml:"scan_order"`
	Features            int     `toml:"features"`
	Seed                int64   `toml:"seed"`
}

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Address returns the network and address to dial for the player.
func (c MPDConfig) Address() (network, addr string) {
	if c.Socket != "" {
		return "unix", c.Socket
	}
	return "tcp", fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the per-command timeout.
func (c MPDConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, os.ErrExist)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides the MPD section from MPD_HOST and MPD_PORT, following the mpc conventions.
//
// MPD_HOST may carry a password as "password@host"; a host containing a slash is a socket path.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("MPD_HOST"); v != "" {
		if pass, host, ok := strings.Cut(v, "@"); ok && pass != "" {
			c.MPD.Password = pass
			v = host
		}
		if strings.Contains(v, "/") {
			c.MPD.Socket = v
		} else {
			c.MPD.Host = v
		}
	}

	if p := getenv("MPD_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			c.MPD.Port = n
		}
	}
}

// Validate checks the configuration for values the traversal cannot run with.
func (c *Config) Validate() error {
	t := c.Traversal
	switch {
	case t.QueueLength < 0:
		return fmt.Errorf("%w: queue_length must not be negative", ErrInvalidConfig)
	case t.DistanceThreshold < 0:
		return fmt.Errorf("%w: distance_threshold must not be negative", ErrInvalidConfig)
	case t.SimilarityThreshold < -1 || t.SimilarityThreshold > 1:
		return fmt.Errorf("%w: similarity_threshold must be within [-1, 1]", ErrInvalidConfig)
	case t.Selection != "best" && t.Selection != "random":
		return fmt.Errorf("%w: selection must be best or random, got %q", ErrInvalidConfig, t.Selection)
	case t.Selection == "random" && t.TopK < 1:
		return fmt.Errorf("%w: top_k must be positive for random selection", ErrInvalidConfig)
	case t.ScanOrder != "store" && t.ScanOrder != "random":
		return fmt.Errorf("%w: scan_order must be store or random, got %q", ErrInvalidConfig, t.ScanOrder)
	case t.Features != 4 && t.Features != 6:
		return fmt.Errorf("%w: features must be 4 or 6, got %d", ErrInvalidConfig, t.Features)
	}

	if c.Cache.Backend != BackendSQLite && c.Cache.Backend != BackendBadger {
		return fmt.Errorf("%w: cache backend must be %s or %s, got %q", ErrInvalidConfig, BackendSQLite, BackendBadger, c.Cache.Backend)
	}
	if c.MPD.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: mpd timeout_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}

// DatabasePath returns the configured database path, defaulting to the XDG data home.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	return DataPath("db.sqlite3")
}

// BadgerDir returns the configured badger directory, defaulting to the XDG data home.
func (c *Config) BadgerDir() (string, error) {
	if c.Cache.BadgerDir != "" {
		return c.Cache.BadgerDir, nil
	}
	dir := filepath.Join(xdg.DataHome, AppName, "pairs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create badger directory: %w", err)
	}
	return dir, nil
}

// DataPath resolves name inside $XDG_DATA_HOME/blissify, creating the directory if needed.
func DataPath(name string) (string, error) {
	path, err := xdg.DataFile(filepath.Join(AppName, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve data path: %w", err)
	}
	return path, nil
}
