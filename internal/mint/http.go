package mint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mintwatch/internal/config"
)

const userAgent = "mintwatch/0.1.0"

// HTTPMinter submits mints to a minting service. The service signs, sends and
// confirms the transaction; a 2xx answer means the asset is confirmed.
type HTTPMinter struct {
	endpoint string
	apiKey   string
	cluster  string
	client   *http.Client
}

type mintErrorResponse struct {
	Error string `json:"error"`
}

// NewHTTPMinter builds an HTTPMinter from the minter and network sections of cfg.
func NewHTTPMinter(cfg *config.Config) *HTTPMinter {
	timeout := time.Duration(cfg.Minter.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultMinterTimeoutSeconds) * time.Second
	}
	return &HTTPMinter{
		endpoint: strings.TrimRight(strings.TrimSpace(cfg.Minter.Endpoint), "/"),
		apiKey:   strings.TrimSpace(cfg.Minter.APIKey),
		cluster:  cfg.Network.Cluster,
		client:   &http.Client{Timeout: timeout},
	}
}

// CreateAsset posts req to <endpoint>/v1/assets.
func (m *HTTPMinter) CreateAsset(ctx context.Context, req Request) (Receipt, error) {
	body, err := json.Marshal(struct {
		Request
		Cluster string `json:"cluster"`
	}{Request: req, Cluster: m.cluster})
	if err != nil {
		return Receipt{}, fmt.Errorf("encode mint request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/v1/assets", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build mint request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.RequestID)
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit mint: %w", err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 300 {
		var apiErr mintErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && strings.TrimSpace(apiErr.Error) != "" {
			return Receipt{}, fmt.Errorf("minter returned %d: %s", resp.StatusCode, strings.TrimSpace(apiErr.Error))
		}
		return Receipt{}, fmt.Errorf("minter returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var receipt Receipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode mint receipt: %w", err)
	}
	return receipt, nil
}
