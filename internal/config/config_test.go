package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mintwatch/internal/config"
)

type payload struct {
	Paths struct {
		InboxDir     string `toml:"inbox_dir,omitempty"`
		ProcessedDir string `toml:"processed_dir,omitempty"`
	} `toml:"paths"`
	Network struct {
		Cluster string `toml:"cluster,omitempty"`
	} `toml:"network"`
	Storage struct {
		Backend      string `toml:"backend,omitempty"`
		GatewayURL   string `toml:"gateway_url,omitempty"`
		GatewayToken string `toml:"gateway_token,omitempty"`
	} `toml:"storage"`
	Minter struct {
		Endpoint string `toml:"endpoint,omitempty"`
		APIKey   string `toml:"api_key,omitempty"`
	} `toml:"minter"`
	Pipeline struct {
		DebounceSeconds int `toml:"debounce_seconds,omitempty"`
	} `toml:"pipeline"`
}

func writePayload(t *testing.T, p payload) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mintwatch.toml")
	data, err := toml.Marshal(p)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	return path
}

func minimalPayload() payload {
	p := payload{}
	p.Storage.GatewayURL = "https://upload.example.com/v1/files"
	p.Minter.Endpoint = "http://127.0.0.1:8899"
	return p
}

func TestLoadCustomPathAppliesDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("NETWORK", "")

	configPath := writePayload(t, minimalPayload())
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}

	wantInbox := filepath.Join(tempHome, "mintwatch", "inbox")
	if cfg.Paths.InboxDir != wantInbox {
		t.Fatalf("unexpected inbox dir: got %q want %q", cfg.Paths.InboxDir, wantInbox)
	}
	if cfg.Paths.ProcessedDir != filepath.Join(tempHome, "mintwatch", "processed") {
		t.Fatalf("unexpected processed dir: %q", cfg.Paths.ProcessedDir)
	}
	if cfg.Network.Cluster != config.ClusterDevnet {
		t.Fatalf("expected devnet default, got %q", cfg.Network.Cluster)
	}
	if cfg.DebounceWindow() != 3*time.Second {
		t.Fatalf("unexpected debounce window: %s", cfg.DebounceWindow())
	}
	if cfg.Pipeline.UploadAttempts != 3 {
		t.Fatalf("expected 3 upload attempts, got %d", cfg.Pipeline.UploadAttempts)
	}
	if !cfg.Storage.Verify || cfg.Storage.VerifyTimeout != 900 {
		t.Fatalf("expected verification enabled with a 15 minute budget, got %v/%d", cfg.Storage.Verify, cfg.Storage.VerifyTimeout)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.InboxDir, cfg.Paths.ProcessedDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if filepath.Dir(cfg.SocketPath()) != cfg.Paths.StateDir {
		t.Fatalf("socket path %q outside state dir", cfg.SocketPath())
	}
}

func TestLoadMissingFileRequiresGateway(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NETWORK", "")

	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected validation error without storage.gateway_url")
	}
	if !strings.Contains(err.Error(), "storage.gateway_url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NETWORK", "mainnet")
	t.Setenv("MINTWATCH_MINTER_API_KEY", "env-minter")
	t.Setenv("MINTWATCH_STORAGE_TOKEN", "env-storage")

	cfg, _, _, err := config.Load(writePayload(t, minimalPayload()))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Network.Cluster != config.ClusterMainnet || !cfg.IsMainnet() {
		t.Errorf("expected mainnet-beta from NETWORK, got %q", cfg.Network.Cluster)
	}
	if cfg.Minter.APIKey != "env-minter" {
		t.Errorf("expected minter key from env, got %q", cfg.Minter.APIKey)
	}
	if cfg.Storage.GatewayToken != "env-storage" {
		t.Errorf("expected storage token from env, got %q", cfg.Storage.GatewayToken)
	}
}

func TestFileValuesWinOverEnvForCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NETWORK", "")
	t.Setenv("MINTWATCH_MINTER_API_KEY", "env-minter")

	p := minimalPayload()
	p.Minter.APIKey = "file-minter"
	cfg, _, _, err := config.Load(writePayload(t, p))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Minter.APIKey != "file-minter" {
		t.Fatalf("expected file key to win, got %q", cfg.Minter.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.InboxDir, "mintwatch") {
		t.Fatalf("expected inbox dir to contain mintwatch, got %q", cfg.Paths.InboxDir)
	}
	if cfg.Pipeline.DebounceSeconds != 3 {
		t.Fatalf("expected sample debounce of 3 seconds, got %d", cfg.Pipeline.DebounceSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Paths.InboxDir = "/srv/inbox"
		cfg.Paths.ProcessedDir = "/srv/processed"
		cfg.Storage.GatewayURL = "https://upload.example.com"
		cfg.Minter.Endpoint = "http://127.0.0.1:8899"
		return cfg
	}
	if cfg := base(); cfg.Validate() != nil {
		t.Fatalf("expected base config to validate: %v", cfg.Validate())
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"processed inside inbox", func(c *config.Config) { c.Paths.ProcessedDir = "/srv/inbox/done" }, "paths.processed_dir"},
		{"same dirs", func(c *config.Config) { c.Paths.ProcessedDir = "/srv/inbox" }, "paths.processed_dir"},
		{"unknown cluster", func(c *config.Config) { c.Network.Cluster = "localnet" }, "network.cluster"},
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "ftp" }, "storage.backend"},
		{"s3 without bucket", func(c *config.Config) {
			c.Storage.Backend = config.StorageBackendS3
			c.Storage.S3Endpoint = "s3.example.com"
		}, "storage.s3_bucket"},
		{"minter scheme", func(c *config.Config) { c.Minter.Endpoint = "ftp://mint" }, "minter.endpoint"},
		{"zero attempts", func(c *config.Config) { c.Pipeline.UploadAttempts = 0 }, "pipeline.upload_attempts"},
		{"max below base delay", func(c *config.Config) { c.Pipeline.UploadMaxDelaySeconds = 1 }, "pipeline.upload_max_delay_seconds"},
		{"verify interval order", func(c *config.Config) { c.Storage.VerifyMaxInterval = 1 }, "storage.verify_max_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
