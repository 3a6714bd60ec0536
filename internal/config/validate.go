package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMinter(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InboxDir == "" {
		return errors.New("paths.inbox_dir must be set")
	}
	if c.Paths.ProcessedDir == "" {
		return errors.New("paths.processed_dir must be set")
	}
	if filepath.Clean(c.Paths.InboxDir) == filepath.Clean(c.Paths.ProcessedDir) {
		return errors.New("paths.processed_dir must differ from paths.inbox_dir")
	}
	rel, err := filepath.Rel(c.Paths.InboxDir, c.Paths.ProcessedDir)
	if err == nil && !strings.HasPrefix(rel, "..") {
		return errors.New("paths.processed_dir must not live inside paths.inbox_dir")
	}
	return nil
}

func (c *Config) validateNetwork() error {
	switch c.Network.Cluster {
	case ClusterDevnet, ClusterTestnet, ClusterMainnet:
		return nil
	default:
		return fmt.Errorf("network.cluster %q is not supported (use devnet, testnet or mainnet-beta)", c.Network.Cluster)
	}
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageBackendGateway:
		if c.Storage.GatewayURL == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("storage.gateway_url is required. Edit %s (create with 'mintwatch config init')", defaultPath)
		}
	case StorageBackendS3:
		if c.Storage.S3Endpoint == "" {
			return errors.New("storage.s3_endpoint must be set when storage.backend is s3")
		}
		if c.Storage.S3Bucket == "" {
			return errors.New("storage.s3_bucket must be set when storage.backend is s3")
		}
		if c.Storage.S3PublicBaseURL == "" {
			return errors.New("storage.s3_public_base_url must be set when storage.backend is s3")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported (use gateway or s3)", c.Storage.Backend)
	}
	if err := ensurePositiveMap(map[string]int{
		"storage.request_timeout": c.Storage.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Storage.Verify {
		if err := ensurePositiveMap(map[string]int{
			"storage.verify_timeout":          c.Storage.VerifyTimeout,
			"storage.verify_initial_interval": c.Storage.VerifyInitialInterval,
			"storage.verify_max_interval":     c.Storage.VerifyMaxInterval,
		}); err != nil {
			return err
		}
		if c.Storage.VerifyMaxInterval < c.Storage.VerifyInitialInterval {
			return errors.New("storage.verify_max_interval must be >= storage.verify_initial_interval")
		}
	}
	return nil
}

func (c *Config) validateMinter() error {
	if c.Minter.Endpoint == "" {
		return errors.New("minter.endpoint is required")
	}
	if !strings.HasPrefix(c.Minter.Endpoint, "http://") && !strings.HasPrefix(c.Minter.Endpoint, "https://") {
		return fmt.Errorf("minter.endpoint %q must be an http(s) URL", c.Minter.Endpoint)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.debounce_seconds":          c.Pipeline.DebounceSeconds,
		"pipeline.upload_attempts":           c.Pipeline.UploadAttempts,
		"pipeline.upload_base_delay_seconds": c.Pipeline.UploadBaseDelaySeconds,
		"pipeline.upload_max_delay_seconds":  c.Pipeline.UploadMaxDelaySeconds,
	}); err != nil {
		return err
	}
	if c.Pipeline.UploadMaxDelaySeconds < c.Pipeline.UploadBaseDelaySeconds {
		return errors.New("pipeline.upload_max_delay_seconds must be >= pipeline.upload_base_delay_seconds")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
