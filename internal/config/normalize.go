package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNetwork()
	c.normalizeStorage()
	c.normalizeMinter()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.ProcessedDir, err = expandPath(c.Paths.ProcessedDir); err != nil {
		return fmt.Errorf("paths.processed_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNetwork() {
	if value, ok := os.LookupEnv("NETWORK"); ok && strings.TrimSpace(value) != "" {
		c.Network.Cluster = value
	}
	c.Network.Cluster = strings.ToLower(strings.TrimSpace(c.Network.Cluster))
	switch c.Network.Cluster {
	case "":
		c.Network.Cluster = ClusterDevnet
	case "mainnet":
		c.Network.Cluster = ClusterMainnet
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.GatewayURL = strings.TrimSpace(c.Storage.GatewayURL)
	c.Storage.GatewayToken = strings.TrimSpace(c.Storage.GatewayToken)
	if c.Storage.GatewayToken == "" {
		if value, ok := os.LookupEnv("MINTWATCH_STORAGE_TOKEN"); ok {
			c.Storage.GatewayToken = strings.TrimSpace(value)
		}
	}
	c.Storage.ReadGatewayURL = strings.TrimSpace(c.Storage.ReadGatewayURL)
	if c.Storage.ReadGatewayURL == "" {
		c.Storage.ReadGatewayURL = defaultReadGatewayURL
	}
	c.Storage.S3Endpoint = strings.TrimSpace(c.Storage.S3Endpoint)
	c.Storage.S3Bucket = strings.TrimSpace(c.Storage.S3Bucket)
	c.Storage.S3Region = strings.TrimSpace(c.Storage.S3Region)
	if c.Storage.S3Region == "" {
		c.Storage.S3Region = defaultS3Region
	}
	c.Storage.S3AccessKey = strings.TrimSpace(c.Storage.S3AccessKey)
	if c.Storage.S3AccessKey == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.Storage.S3AccessKey = strings.TrimSpace(value)
		}
	}
	c.Storage.S3SecretKey = strings.TrimSpace(c.Storage.S3SecretKey)
	if c.Storage.S3SecretKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.Storage.S3SecretKey = strings.TrimSpace(value)
		}
	}
	c.Storage.S3PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.S3PublicBaseURL), "/")
	if c.Storage.RequestsPerSecond < 0 {
		c.Storage.RequestsPerSecond = 0
	}
	if c.Storage.RequestTimeout <= 0 {
		c.Storage.RequestTimeout = defaultStorageRequestTimeout
	}
	if c.Storage.VerifyInlineMaxBytes <= 0 {
		c.Storage.VerifyInlineMaxBytes = defaultVerifyInlineMaxBytes
	}
}

func (c *Config) normalizeMinter() {
	c.Minter.Endpoint = strings.TrimRight(strings.TrimSpace(c.Minter.Endpoint), "/")
	c.Minter.APIKey = strings.TrimSpace(c.Minter.APIKey)
	if c.Minter.APIKey == "" {
		if value, ok := os.LookupEnv("MINTWATCH_MINTER_API_KEY"); ok {
			c.Minter.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Minter.TimeoutSeconds <= 0 {
		c.Minter.TimeoutSeconds = DefaultMinterTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
