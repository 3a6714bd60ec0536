package mint_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mintwatch/internal/config"
	"mintwatch/internal/folder"
	"mintwatch/internal/logging"
	"mintwatch/internal/mint"
	"mintwatch/internal/services"
	"mintwatch/internal/testsupport"
)

const validAddress = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

func TestNormalizeRoyalty(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 0},
		{raw: "null", want: 0},
		{raw: "-50", want: 0},
		{raw: "15000", want: 10000},
		{raw: `"abc"`, want: 0},
		{raw: `"500"`, want: 0},
		{raw: "500", want: 500},
		{raw: "499.9", want: 499},
		{raw: "10000", want: 10000},
		{raw: `{"bp":5}`, want: 0},
		{raw: "1e400", want: 10000},
		{raw: "-1e400", want: 0},
		{raw: `"1e400"`, want: 0},
	}
	for _, tc := range tests {
		if got := mint.NormalizeRoyalty(json.RawMessage(tc.raw)); got != tc.want {
			t.Fatalf("NormalizeRoyalty(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
	if got := mint.RoyaltyPercent(550); got != 5.5 {
		t.Fatalf("expected 5.5%%, got %v", got)
	}
}

func TestFilterCreators(t *testing.T) {
	kept := mint.FilterCreators([]folder.Creator{
		{Address: "short", Share: 50},
		{Address: "  " + validAddress + " ", Share: 50},
	})
	if len(kept) != 1 || kept[0].Address != validAddress || kept[0].Share != 50 {
		t.Fatalf("expected one trimmed survivor, got %+v", kept)
	}

	if got := mint.FilterCreators([]folder.Creator{{Address: "short"}, {Address: strings.Repeat("a", 45)}}); got != nil {
		t.Fatalf("expected nil when nothing survives, got %#v", got)
	}
	if got := mint.FilterCreators(nil); got != nil {
		t.Fatalf("expected nil for no creators, got %#v", got)
	}
}

func TestBuildRequestAppliesDefaults(t *testing.T) {
	meta, err := folder.ParseMetadata([]byte(`{"name":"Cat #1"}`))
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	req := mint.BuildRequest(meta, "ipfs://meta")
	if req.Name != "Cat #1" || req.Symbol != "" || req.URI != "ipfs://meta" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.SellerFeeBasisPoints != 0 || req.RoyaltyPercent != 0 || req.Creators != nil {
		t.Fatalf("expected zero royalty and default creators, got %+v", req)
	}
	if req.RequestID == "" {
		t.Fatal("expected a request id")
	}
}

func TestBuildRequestNormalizesUnicode(t *testing.T) {
	meta, err := folder.ParseMetadata([]byte(`{"name":"Cafe\u0301","symbol":"CAT"}`))
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	req := mint.BuildRequest(meta, "ipfs://meta")
	if req.Name != "Caf\u00e9" || req.Symbol != "CAT" {
		t.Fatalf("expected NFC name, got %q %q", req.Name, req.Symbol)
	}
}

func TestBuildRequestKeepsSurroundingWhitespace(t *testing.T) {
	tests := []struct {
		doc        string
		wantName   string
		wantSymbol string
	}{
		{doc: `{"name":"  Cat #1  ","symbol":" CAT "}`, wantName: "  Cat #1  ", wantSymbol: " CAT "},
		{doc: `{"name":"Cat\t"}`, wantName: "Cat\t", wantSymbol: ""},
	}
	for _, tc := range tests {
		meta, err := folder.ParseMetadata([]byte(tc.doc))
		if err != nil {
			t.Fatalf("ParseMetadata(%s): %v", tc.doc, err)
		}
		req := mint.BuildRequest(meta, "ipfs://meta")
		if req.Name != tc.wantName || req.Symbol != tc.wantSymbol {
			t.Fatalf("BuildRequest(%s) name=%q symbol=%q, want %q %q", tc.doc, req.Name, req.Symbol, tc.wantName, tc.wantSymbol)
		}
		if req.Name != meta.Name {
			t.Fatalf("minted name %q differs from metadata name %q", req.Name, meta.Name)
		}
	}
}

type fakeMinter struct {
	calls   int
	last    mint.Request
	receipt mint.Receipt
	err     error
}

func (f *fakeMinter) CreateAsset(_ context.Context, req mint.Request) (mint.Receipt, error) {
	f.calls++
	f.last = req
	return f.receipt, f.err
}

func TestOrchestratorFailureIsNotRetried(t *testing.T) {
	minter := &fakeMinter{err: errors.New("blockhash expired")}
	orch := mint.NewOrchestrator(minter, logging.NewNop())
	meta, _ := folder.ParseMetadata([]byte(`{"name":"Cat"}`))

	_, _, err := orch.Mint(context.Background(), meta, "ipfs://meta")
	if !errors.Is(err, services.ErrMint) {
		t.Fatalf("expected mint error, got %v", err)
	}
	if !strings.Contains(err.Error(), "blockhash expired") {
		t.Fatalf("expected cause in error, got %v", err)
	}
	if minter.calls != 1 {
		t.Fatalf("expected a single submission, got %d", minter.calls)
	}
}

func TestOrchestratorRejectsIncompleteReceipt(t *testing.T) {
	minter := &fakeMinter{receipt: mint.Receipt{Signature: "sig"}}
	orch := mint.NewOrchestrator(minter, logging.NewNop())
	meta, _ := folder.ParseMetadata([]byte(`{"name":"Cat"}`))

	if _, _, err := orch.Mint(context.Background(), meta, "ipfs://meta"); !errors.Is(err, services.ErrMint) {
		t.Fatalf("expected mint error, got %v", err)
	}
}

func TestOrchestratorPassesNormalizedRequest(t *testing.T) {
	minter := &fakeMinter{receipt: mint.Receipt{Signature: "sig", MintAddress: "mint"}}
	orch := mint.NewOrchestrator(minter, logging.NewNop())
	meta, _ := folder.ParseMetadata([]byte(`{"name":"Cat","seller_fee_basis_points":15000,"creators":[{"address":"x"}]}`))

	req, receipt, err := orch.Mint(context.Background(), meta, "ipfs://meta")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if receipt.Signature != "sig" || minter.last.RequestID != req.RequestID {
		t.Fatalf("unexpected receipt %+v or request %+v", receipt, minter.last)
	}
	if minter.last.SellerFeeBasisPoints != 10000 || minter.last.RoyaltyPercent != 100 || minter.last.Creators != nil {
		t.Fatalf("request was not normalized: %+v", minter.last)
	}
}

func TestHTTPMinterCreateAsset(t *testing.T) {
	var got map[string]any
	var auth, idem string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/assets" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		idem = r.Header.Get("Idempotency-Key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, `{"signature":"5sig","mint_address":"Mint111"}`)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithMinter(server.URL+"/"))
	cfg.Minter.APIKey = "key"
	m := mint.NewHTTPMinter(cfg)

	receipt, err := m.CreateAsset(context.Background(), mint.Request{RequestID: "r1", Name: "Cat", URI: "ipfs://meta"})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if receipt.Signature != "5sig" || receipt.MintAddress != "Mint111" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if auth != "Bearer key" || idem != "r1" {
		t.Fatalf("unexpected headers auth=%q idempotency=%q", auth, idem)
	}
	if got["name"] != "Cat" || got["uri"] != "ipfs://meta" || got["cluster"] != cfg.Network.Cluster {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestHTTPMinterSurfacesServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"transaction not confirmed"}`)
	}))
	defer server.Close()

	m := mint.NewHTTPMinter(testsupport.NewConfig(t, testsupport.WithMinter(server.URL)))
	_, err := m.CreateAsset(context.Background(), mint.Request{RequestID: "r1"})
	if err == nil || !strings.Contains(err.Error(), "transaction not confirmed") {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestExplorerURLs(t *testing.T) {
	tx, addr := mint.ExplorerURLs(config.ClusterDevnet, "sig", "mint")
	if tx != "https://explorer.solana.com/tx/sig?cluster=devnet" || addr != "https://explorer.solana.com/address/mint?cluster=devnet" {
		t.Fatalf("unexpected devnet urls %q %q", tx, addr)
	}
	tx, addr = mint.ExplorerURLs(config.ClusterMainnet, "sig", "mint")
	if tx != "https://explorer.solana.com/tx/sig" || addr != "https://explorer.solana.com/address/mint" {
		t.Fatalf("unexpected mainnet urls %q %q", tx, addr)
	}
}
