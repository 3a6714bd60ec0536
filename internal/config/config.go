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

// Paths contains the directories the daemon watches and writes to.
type Paths struct {
	InboxDir     string `toml:"inbox_dir"`
	ProcessedDir string `toml:"processed_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Network selects the cluster minted assets land on.
type Network struct {
	Cluster string `toml:"cluster"`
}

// Storage contains configuration for the content-addressed storage backend.
type Storage struct {
	Backend           string  `toml:"backend"`
	GatewayURL        string  `toml:"gateway_url"`
	GatewayToken      string  `toml:"gateway_token"`
	ReadGatewayURL    string  `toml:"read_gateway_url"`
	S3Endpoint        string  `toml:"s3_endpoint"`
	S3Bucket          string  `toml:"s3_bucket"`
	S3Region          string  `toml:"s3_region"`
	S3AccessKey       string  `toml:"s3_access_key"`
	S3SecretKey       string  `toml:"s3_secret_key"`
	S3UseSSL          bool    `toml:"s3_use_ssl"`
	S3PublicBaseURL   string  `toml:"s3_public_base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RequestTimeout    int     `toml:"request_timeout"`

	// Verify polls every uploaded URI until the content is retrievable.
	Verify                bool  `toml:"verify"`
	VerifyTimeout         int   `toml:"verify_timeout"`
	VerifyInitialInterval int   `toml:"verify_initial_interval"`
	VerifyMaxInterval     int   `toml:"verify_max_interval"`
	VerifyInlineMaxBytes  int64 `toml:"verify_inline_max_bytes"`
}

// Minter contains configuration for the minting service.
type Minter struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Pipeline contains timing for folder settling and upload retries.
type Pipeline struct {
	DebounceSeconds        int `toml:"debounce_seconds"`
	UploadAttempts         int `toml:"upload_attempts"`
	UploadBaseDelaySeconds int `toml:"upload_base_delay_seconds"`
	UploadMaxDelaySeconds  int `toml:"upload_max_delay_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Minted         bool   `toml:"minted"`
	Failures       bool   `toml:"failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mintwatch.
//
// Configuration sections by subsystem:
//   - Paths: inbox, processed archive, state and log directories
//   - Network: target cluster for explorer links and the minter
//   - Storage: uploader backend, throttling and upload verification
//   - Minter: minting service endpoint and credentials
//   - Pipeline: debounce window and upload retry policy
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Network       Network       `toml:"network"`
	Storage       Storage       `toml:"storage"`
	Minter        Minter        `toml:"minter"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
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

	projectPath, err := filepath.Abs("mintwatch.toml")
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
	for _, dir := range []string{c.Paths.InboxDir, c.Paths.ProcessedDir, c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DaemonLockPath returns the flock path guarding a single daemon instance.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.StateDir, "mintwatch.lock")
}

// DaemonPIDPath returns the pid file written by the running daemon.
func (c *Config) DaemonPIDPath() string {
	return filepath.Join(c.Paths.StateDir, "mintwatch.pid")
}

// SocketPath returns the IPC socket path.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "mintwatch.sock")
}

// DatabasePath returns the SQLite database holding the minted log.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "mintwatch.db")
}

// DebounceWindow returns the settle period applied to filesystem events.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Pipeline.DebounceSeconds) * time.Second
}

// IsMainnet reports whether the configured cluster is mainnet.
func (c *Config) IsMainnet() bool {
	return c.Network.Cluster == ClusterMainnet
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

const redactedValue = "<redacted>"

// Redacted returns a copy with credentials masked, suitable for display.
func (c *Config) Redacted() Config {
	out := *c
	mask := func(v *string) {
		if strings.TrimSpace(*v) != "" {
			*v = redactedValue
		}
	}
	mask(&out.Storage.GatewayToken)
	mask(&out.Storage.S3AccessKey)
	mask(&out.Storage.S3SecretKey)
	mask(&out.Minter.APIKey)
	return out
}
