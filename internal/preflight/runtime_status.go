package preflight

import (
	"context"
	"fmt"
	"strings"

	"mintwatch/internal/config"
	"mintwatch/internal/logging"
	"mintwatch/internal/storage"
)

// CheckStorage checks the configured storage backend. The gateway must answer
// HTTP; an S3 bucket must exist.
func CheckStorage(ctx context.Context, cfg *config.Config) Result {
	const name = "Storage"

	switch cfg.Storage.Backend {
	case config.StorageBackendS3:
		return CheckBucket(ctx, cfg.Storage)
	case config.StorageBackendGateway, "":
		return CheckEndpoint(ctx, name, cfg.Storage.GatewayURL, cfg.Storage.GatewayToken)
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown backend %q", cfg.Storage.Backend)}
	}
}

// CheckBucket verifies the S3 bucket is reachable with the configured credentials.
func CheckBucket(ctx context.Context, s config.Storage) Result {
	const name = "Storage"

	if strings.TrimSpace(s.S3Endpoint) == "" || strings.TrimSpace(s.S3Bucket) == "" {
		return Result{Name: name, Detail: "missing s3 endpoint or bucket"}
	}
	client, err := storage.NewS3(storage.S3Options{
		Endpoint:  s.S3Endpoint,
		Bucket:    s.S3Bucket,
		Region:    s.S3Region,
		AccessKey: s.S3AccessKey,
		SecretKey: s.S3SecretKey,
		UseSSL:    s.S3UseSSL,
		Logger:    logging.NewNop(),
	}, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, endpointTimeout)
	defer cancel()
	ok, err := client.BucketExists(checkCtx)
	switch {
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("bucket check failed (%s)", summarizeNetError(err))}
	case !ok:
		return Result{Name: name, Detail: fmt.Sprintf("bucket %q does not exist", s.S3Bucket)}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %q reachable", s.S3Bucket)}
	}
}

// CheckMinter verifies the minter endpoint answers with the configured key.
func CheckMinter(ctx context.Context, cfg *config.Config) Result {
	result := CheckEndpoint(ctx, "Minter", cfg.Minter.Endpoint, cfg.Minter.APIKey)
	if result.Passed {
		result.Detail = fmt.Sprintf("%s (%s)", result.Detail, cfg.Network.Cluster)
	}
	return result
}

// CheckNotificationsFromConfig summarizes the notification setup without
// sending anything.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	var events []string
	if cfg.Notifications.Minted {
		events = append(events, "minted")
	}
	if cfg.Notifications.Failures {
		events = append(events, "failures")
	}
	if len(events) == 0 {
		return Result{Name: name, Passed: true, Detail: topic + " (all events muted)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", topic, strings.Join(events, ", "))}
}
