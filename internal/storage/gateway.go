package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"mintwatch/internal/logging"
	"mintwatch/internal/services"
)

// GatewayOptions configures a Gateway uploader.
type GatewayOptions struct {
	URL     string
	Token   string
	Client  *http.Client
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// Gateway uploads raw payloads to an HTTP upload gateway.
//
// The request body is the payload itself with Content-Type and X-File-Name
// headers. The gateway answers with JSON carrying either a full "uri", an IPFS
// "cid", or an Arweave transaction "id".
type Gateway struct {
	*fetcher
	url   string
	token string
}

type gatewayResponse struct {
	URI   string `json:"uri"`
	CID   string `json:"cid"`
	ID    string `json:"id"`
	Error string `json:"error"`
}

// NewGateway constructs a Gateway. fetch may be nil, in which case one is
// derived from opts.
func NewGateway(opts GatewayOptions, fetch *fetcher) *Gateway {
	if fetch == nil {
		client := opts.Client
		if client == nil {
			client = http.DefaultClient
		}
		limiter := opts.Limiter
		if limiter == nil {
			limiter = NewLimiter(0)
		}
		fetch = &fetcher{client: client, limiter: limiter, logger: logging.NewComponentLogger(opts.Logger, "storage")}
	}
	return &Gateway{fetcher: fetch, url: strings.TrimSpace(opts.URL), token: strings.TrimSpace(opts.Token)}
}

// WithReadGateway sets the HTTP gateway used to resolve ipfs:// URIs.
func (g *Gateway) WithReadGateway(url string) *Gateway {
	g.readGateway = url
	return g
}

// Upload posts data to the gateway and returns the stored URI.
func (g *Gateway) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-File-Name", filename)
	req.Header.Set("Accept", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	req.ContentLength = int64(len(data))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode == http.StatusPaymentRequired {
		return "", fmt.Errorf("%w: gateway returned %d: %s", services.ErrInsufficientFunds, resp.StatusCode, snippet(body))
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, snippet(body))
	}

	var parsed gatewayResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	uri, err := parsed.storageURI()
	if err != nil {
		return "", err
	}
	g.logger.Debug("gateway accepted payload",
		logging.String("file", filename),
		logging.String("uri", uri),
		logging.Int64("payload_bytes", int64(len(data))),
	)
	return uri, nil
}

func (r gatewayResponse) storageURI() (string, error) {
	switch {
	case strings.TrimSpace(r.URI) != "":
		return strings.TrimSpace(r.URI), nil
	case strings.TrimSpace(r.CID) != "":
		return "ipfs://" + strings.TrimSpace(r.CID), nil
	case strings.TrimSpace(r.ID) != "":
		return "ar://" + strings.TrimSpace(r.ID), nil
	case strings.TrimSpace(r.Error) != "":
		return "", fmt.Errorf("gateway error: %s", strings.TrimSpace(r.Error))
	default:
		return "", fmt.Errorf("gateway response carried no uri")
	}
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		text = text[:512] + "..."
	}
	return text
}
