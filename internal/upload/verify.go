package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"mintwatch/internal/logging"
	"mintwatch/internal/services"
)

// VerifyOptions controls read-back verification of uploaded payloads.
type VerifyOptions struct {
	Enabled         bool
	Timeout         time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// InlineMaxBytes is the largest payload compared byte-for-byte; larger
	// payloads are checked by declared size only.
	InlineMaxBytes int64
}

// verify polls uri until it serves the expected payload or the budget runs out.
// Unavailable responses (404, 5xx, transport errors, no result) keep
// polling; a served payload with the wrong type or content fails immediately.
func verify(ctx context.Context, up Uploader, opts VerifyOptions, logger *slog.Logger, uri string, want []byte, contentType string) error {
	deadline := time.Now().Add(opts.Timeout)
	budget, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	interval := opts.InitialInterval
	if interval <= 0 {
		interval = time.Second
	}
	fetch := up.Fetch
	if sf, ok := up.(SizeFetcher); ok && int64(len(want)) > opts.InlineMaxBytes {
		fetch = sf.FetchSize
	}
	polls := 0
	var lastReason string
	for {
		polls++
		res, err := fetch(budget, uri)
		switch {
		case err != nil:
			lastReason = err.Error()
		case res == nil:
			lastReason = "empty response"
		case res.Status == http.StatusOK:
			if err := matchPayload(res, want, contentType, opts.InlineMaxBytes); err != nil {
				return services.Wrap(services.ErrVerificationMismatch, "uploading", "verify", uri, err)
			}
			logger.Debug("upload verified",
				logging.String("uri", uri),
				logging.Int("polls", polls),
			)
			return nil
		default:
			lastReason = fmt.Sprintf("status %d", res.Status)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := interval
		if remaining := time.Until(deadline); remaining <= 0 {
			break
		} else if wait > remaining {
			wait = remaining
		}
		logger.Debug("upload not yet retrievable",
			logging.String("uri", uri),
			logging.String("reason", lastReason),
			logging.Duration("next_poll", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			break
		}
		interval *= 2
		if opts.MaxInterval > 0 && interval > opts.MaxInterval {
			interval = opts.MaxInterval
		}
	}
	return services.Wrap(services.ErrVerificationTimeout, "uploading", "verify",
		fmt.Sprintf("%s not retrievable after %s (%d polls, last: %s)", uri, opts.Timeout, polls, lastReason), nil)
}

func matchPayload(res *FetchResult, want []byte, contentType string, inlineMax int64) error {
	served := res.ContentType()
	if served == "" || served == "application/octet-stream" {
		served = mimetype.Detect(res.Body).String()
	}
	if family(served) != family(contentType) {
		return fmt.Errorf("served content type %q does not match %q", served, contentType)
	}
	size := int64(len(want))
	if size <= inlineMax {
		if !bytes.Equal(res.Body, want) {
			return fmt.Errorf("served %d bytes differ from the %d uploaded", len(res.Body), size)
		}
		return nil
	}
	if got := res.DeclaredSize(); got != size {
		return fmt.Errorf("served size %d does not match uploaded size %d", got, size)
	}
	return nil
}

// family returns the major part of a media type ("image" for "image/png").
func family(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	if idx := strings.IndexByte(ct, '/'); idx >= 0 {
		ct = ct[:idx]
	}
	return ct
}
