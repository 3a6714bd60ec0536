package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"mintwatch/internal/upload"
)

const (
	defaultReadGateway = "https://ipfs.io/ipfs/"
	arweaveGateway     = "https://arweave.net/"
	maxFetchBytes      = 256 << 20
	// sniffBytes matches how much of a payload mimetype inspects.
	sniffBytes         = 3072
)

// fetcher reads stored payloads back over HTTP.
type fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	readGateway string
	logger      *slog.Logger
}

// ResolveURL maps a storage URI to a fetchable HTTP URL. ipfs:// URIs go
// through readGateway, ar:// URIs through arweave.net, and http(s) URLs pass
// through unchanged.
func ResolveURL(uri, readGateway string) (string, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		gw := strings.TrimSpace(readGateway)
		if gw == "" {
			gw = defaultReadGateway
		}
		if !strings.HasSuffix(gw, "/") {
			gw += "/"
		}
		return gw + strings.TrimPrefix(strings.TrimPrefix(uri, "ipfs://"), "ipfs/"), nil
	case strings.HasPrefix(uri, "ar://"):
		return arweaveGateway + strings.TrimPrefix(uri, "ar://"), nil
	case strings.HasPrefix(uri, "https://"), strings.HasPrefix(uri, "http://"):
		return uri, nil
	default:
		return "", fmt.Errorf("unsupported storage uri %q", uri)
	}
}

// Fetch satisfies the read half of upload.Uploader.
func (f *fetcher) Fetch(ctx context.Context, uri string) (*upload.FetchResult, error) {
	return f.get(ctx, uri, func(body io.Reader, result *upload.FetchResult) error {
		data, err := io.ReadAll(io.LimitReader(body, maxFetchBytes))
		result.Body = data
		return err
	})
}

// FetchSize reads uri back keeping only a sniffing prefix of the body and
// counting the rest, so large payloads are never held in memory.
func (f *fetcher) FetchSize(ctx context.Context, uri string) (*upload.FetchResult, error) {
	return f.get(ctx, uri, func(body io.Reader, result *upload.FetchResult) error {
		head, err := io.ReadAll(io.LimitReader(body, sniffBytes))
		if err != nil {
			return err
		}
		rest, err := io.Copy(io.Discard, body)
		result.Body = head
		result.Size = int64(len(head)) + rest
		return err
	})
}

func (f *fetcher) get(ctx context.Context, uri string, read func(io.Reader, *upload.FetchResult) error) (*upload.FetchResult, error) {
	target, err := ResolveURL(uri, f.readGateway)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	result := &upload.FetchResult{Status: resp.StatusCode, Header: resp.Header.Clone()}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return result, nil
	}
	if err := read(resp.Body, result); err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return result, nil
}
