package mint

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mintwatch/internal/folder"
	"mintwatch/internal/logging"
	"mintwatch/internal/services"
)

// Orchestrator normalizes metadata into a Request and submits it exactly once.
type Orchestrator struct {
	minter Minter
	logger *slog.Logger
}

// NewOrchestrator constructs an Orchestrator around minter.
func NewOrchestrator(minter Minter, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{minter: minter, logger: logging.NewComponentLogger(logger, "mint")}
}

// BuildRequest applies the normalization rules to meta for metadataURI.
func BuildRequest(meta *folder.Metadata, metadataURI string) Request {
	bp := NormalizeRoyalty(meta.SellerFeeBasisPoints)
	return Request{
		RequestID:            uuid.NewString(),
		Name:                 normalizeText(meta.Name),
		Symbol:               normalizeText(meta.Symbol),
		URI:                  metadataURI,
		SellerFeeBasisPoints: bp,
		RoyaltyPercent:       RoyaltyPercent(bp),
		Creators:             FilterCreators(meta.Creators),
	}
}

// Mint submits one create-asset request. Every failure is wrapped with
// services.ErrMint; nothing is retried.
func (o *Orchestrator) Mint(ctx context.Context, meta *folder.Metadata, metadataURI string) (Request, Receipt, error) {
	req := BuildRequest(meta, metadataURI)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("submitting mint",
		logging.String(logging.FieldEventType, "mint_submitted"),
		logging.String("request_id", req.RequestID),
		logging.String("name", req.Name),
		logging.String("uri", req.URI),
		logging.Int("seller_fee_basis_points", req.SellerFeeBasisPoints),
		logging.Int("creators", len(req.Creators)),
	)

	started := time.Now()
	receipt, err := o.minter.CreateAsset(ctx, req)
	if err != nil {
		return req, Receipt{}, services.Wrap(services.ErrMint, "minting", "create asset",
			fmt.Sprintf("request %s", req.RequestID), err)
	}
	if strings.TrimSpace(receipt.Signature) == "" || strings.TrimSpace(receipt.MintAddress) == "" {
		return req, receipt, services.Wrap(services.ErrMint, "minting", "create asset",
			fmt.Sprintf("request %s returned an incomplete receipt", req.RequestID), nil)
	}

	logger.Info("mint confirmed",
		logging.String(logging.FieldEventType, "mint_confirmed"),
		logging.String("request_id", req.RequestID),
		logging.String("signature", receipt.Signature),
		logging.String("mint_address", receipt.MintAddress),
		logging.Duration("elapsed", time.Since(started)),
	)
	return req, receipt, nil
}
