package testsupport

import (
	"path/filepath"
	"testing"

	"mintwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.GatewayURL = "http://127.0.0.1:0/upload"
	cfgVal.Storage.Verify = false
	cfgVal.Minter.Endpoint = "http://127.0.0.1:0"
	cfgVal.Pipeline.DebounceSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithGateway points the storage gateway at the provided URL.
func WithGateway(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.GatewayURL = url
	}
}

// WithMinter points the minter client at the provided endpoint.
func WithMinter(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Minter.Endpoint = endpoint
	}
}

// WithNtfyTopic enables ntfy notifications against the provided topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InboxDir)
}
