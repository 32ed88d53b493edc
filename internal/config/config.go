package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Supported library drivers.
const (
	LibraryDriverSQLite   = "sqlite"
	LibraryDriverPostgres = "postgres"
)

// Supported handoff modes.
const (
	HandoffModeLog  = "log"
	HandoffModeAMQP = "amqp"
)

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Generation contains configuration for the text-to-video generation API.
type Generation struct {
	BaseURL               string `toml:"base_url"`
	APIToken              string `toml:"api_token"`
	PollIntervalSeconds   int    `toml:"poll_interval_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Stitch contains configuration for the clip stitching API.
type Stitch struct {
	BaseURL               string `toml:"base_url"`
	APIToken              string `toml:"api_token"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Library contains configuration for the durable video library.
type Library struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// Handoff contains configuration for delivering finalized videos to the
// scheduling subsystem.
type Handoff struct {
	Mode                string `toml:"mode"`
	AMQPURL             string `toml:"amqp_url"`
	Exchange            string `toml:"exchange"`
	RoutingKey          string `toml:"routing_key"`
	ScheduleURLTemplate string `toml:"schedule_url_template"`
}

// Archive contains configuration for copying finalized videos to S3.
type Archive struct {
	Enabled bool   `toml:"enabled"`
	Bucket  string `toml:"bucket"`
	Prefix  string `toml:"prefix"`
	Region  string `toml:"region"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Clips          bool   `toml:"clips"`
	Merges         bool   `toml:"merges"`
	Finalize       bool   `toml:"finalize"`
	Errors         bool   `toml:"errors"`
}

// API contains configuration for the optional HTTP control surface.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for clipstudio.
//
// Configuration sections by subsystem:
//   - Paths: state (socket, lock, sqlite library) and log directories
//   - Generation: text-to-video API endpoint, token, and polling cadence
//   - Stitch: clip concatenation API endpoint and token
//   - Library: sqlite or postgres storage for finalized videos
//   - Handoff: log or AMQP delivery of finalized record ids
//   - Archive: optional S3 copy of finalized videos
//   - Notifications: ntfy push notification settings
//   - API: HTTP bind address and bearer token
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Generation    Generation    `toml:"generation"`
	Stitch        Stitch        `toml:"stitch"`
	Library       Library       `toml:"library"`
	Handoff       Handoff       `toml:"handoff"`
	Archive       Archive       `toml:"archive"`
	Notifications Notifications `toml:"notifications"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipstudio.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Library.Driver == LibraryDriverSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Library.Path), 0o755); err != nil {
			return fmt.Errorf("create library directory: %w", err)
		}
	}
	return nil
}

// SocketPath returns the daemon's JSON-RPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "clipstudio.sock")
}

// LockPath returns the daemon's single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "clipstudio.lock")
}

// DaemonLogPath returns the daemon log file location.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, "clipstudio.log")
}

// PollInterval returns the generation status polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Generation.PollIntervalSeconds) * time.Second
}

// GenerationTimeout returns the per-request timeout for generation calls.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.RequestTimeoutSeconds) * time.Second
}

// StitchTimeout returns the per-request timeout for stitch calls.
func (c *Config) StitchTimeout() time.Duration {
	return time.Duration(c.Stitch.RequestTimeoutSeconds) * time.Second
}

// NotifyTimeout returns the per-request timeout for ntfy deliveries.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
