package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mintwatch/internal/folder"
	"mintwatch/internal/logging"
	"mintwatch/internal/retry"
	"mintwatch/internal/services"
)

// MetadataFilename is the name the metadata document is uploaded under.
const MetadataFilename = "metadata.json"

// Options configures a Pipeline.
type Options struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Verify    VerifyOptions
}

// Result holds the URIs of a completed upload.
type Result struct {
	MediaURI    string
	MetadataURI string
}

// Pipeline uploads a folder's media and then its metadata document, retrying
// transient failures and optionally verifying each URI before moving on.
type Pipeline struct {
	uploader Uploader
	opts     Options
	logger   *slog.Logger
}

// NewPipeline constructs a Pipeline around uploader.
func NewPipeline(uploader Uploader, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &Pipeline{uploader: uploader, opts: opts, logger: logging.NewComponentLogger(logger, "upload")}
}

// Run uploads media, then the metadata document with image set to the media
// URI. The returned Result carries whichever URIs were obtained even when err
// is non-nil, so callers can report partial progress.
func (p *Pipeline) Run(ctx context.Context, media folder.MediaFile, meta *folder.Metadata) (Result, error) {
	var result Result
	logger := logging.WithContext(ctx, p.logger)

	mediaURI, err := p.put(ctx, logger, "media", media.Data, media.Name, media.ContentType)
	result.MediaURI = mediaURI
	if err != nil {
		return result, err
	}

	doc, err := meta.UploadDocument(mediaURI)
	if err != nil {
		return result, services.Wrap(services.ErrInvalidMetadata, "uploading", "metadata", "render document", err)
	}
	result.MetadataURI, err = p.put(ctx, logger, "metadata", doc, MetadataFilename, folder.MetadataContentType)
	return result, err
}

func (p *Pipeline) put(ctx context.Context, logger *slog.Logger, label string, data []byte, filename, contentType string) (string, error) {
	started := time.Now()
	policy := retry.Policy{
		MaxAttempts: p.opts.Attempts,
		BaseDelay:   p.opts.BaseDelay,
		MaxDelay:    p.opts.MaxDelay,
		Retryable:   func(err error) bool { return !IsInsufficientFunds(err) },
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logging.WarnWithContext(logger, "upload attempt failed; retrying", "upload_retry",
				logging.String("payload", label),
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", p.opts.Attempts),
				logging.Duration("backoff", delay),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "transient storage failures are retried automatically"),
				logging.String(logging.FieldImpact, "upload delayed"),
			)
		},
	}

	var uri string
	attempts, err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		var upErr error
		uri, upErr = p.uploader.Upload(ctx, data, filename, contentType)
		return upErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrUpload, "uploading", label, "interrupted", err)
		}
		if IsInsufficientFunds(err) {
			if !errors.Is(err, services.ErrInsufficientFunds) {
				err = fmt.Errorf("%w: %w", services.ErrInsufficientFunds, err)
			}
			return "", services.Wrap(services.ErrUpload, "uploading", label, "insufficient funds; not retried", err)
		}
		return "", services.Wrap(services.ErrUpload, "uploading", label,
			fmt.Sprintf("failed after %d attempts", attempts), err)
	}

	logger.Info("payload uploaded",
		logging.String(logging.FieldEventType, "payload_uploaded"),
		logging.String("payload", label),
		logging.String("uri", uri),
		logging.Int64("payload_bytes", int64(len(data))),
		logging.Int("attempts", attempts),
		logging.Duration("elapsed", time.Since(started)),
	)

	if p.opts.Verify.Enabled {
		if err := verify(ctx, p.uploader, p.opts.Verify, logger, uri, data, contentType); err != nil {
			return uri, err
		}
	}
	return uri, nil
}

// IsInsufficientFunds reports whether err means the payer cannot afford the
// upload. Such failures are never retried.
func IsInsufficientFunds(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, services.ErrInsufficientFunds) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient funds") ||
		strings.Contains(msg, "insufficient balance") ||
		strings.Contains(msg, "not enough funds")
}
