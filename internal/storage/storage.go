package storage

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"mintwatch/internal/config"
	"mintwatch/internal/logging"
	"mintwatch/internal/services"
	"mintwatch/internal/upload"
)

const userAgent = "mintwatch/0.1.0"

// New builds the uploader selected by cfg.Storage.Backend.
func New(cfg *config.Config, logger *slog.Logger) (upload.Uploader, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "init", "config unavailable", nil)
	}
	logger = logging.NewComponentLogger(logger, "storage")
	sc := cfg.Storage
	fetch := newFetcher(sc, logger)

	switch strings.ToLower(strings.TrimSpace(sc.Backend)) {
	case config.StorageBackendGateway:
		return NewGateway(GatewayOptions{
			URL:    sc.GatewayURL,
			Token:  sc.GatewayToken,
			Logger: logger,
		}, fetch), nil
	case config.StorageBackendS3:
		return NewS3(S3Options{
			Endpoint:      sc.S3Endpoint,
			Bucket:        sc.S3Bucket,
			Region:        sc.S3Region,
			AccessKey:     sc.S3AccessKey,
			SecretKey:     sc.S3SecretKey,
			UseSSL:        sc.S3UseSSL,
			PublicBaseURL: sc.S3PublicBaseURL,
			Logger:        logger,
		}, fetch)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "storage", "init",
			fmt.Sprintf("unknown storage backend %q", sc.Backend), nil)
	}
}

func newFetcher(sc config.Storage, logger *slog.Logger) *fetcher {
	timeout := time.Duration(sc.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &fetcher{
		client:      &http.Client{Timeout: timeout},
		limiter:     NewLimiter(sc.RequestsPerSecond),
		readGateway: sc.ReadGatewayURL,
		logger:      logger,
	}
}

// NewLimiter returns a token bucket allowing rps requests per second. A
// non-positive rate disables throttling.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(math.Ceil(rps))
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
