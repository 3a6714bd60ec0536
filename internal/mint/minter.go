package mint

import (
	"context"

	"mintwatch/internal/folder"
)

// Request is everything a Minter needs to create one asset.
type Request struct {
	RequestID            string           `json:"request_id"`
	Name                 string           `json:"name"`
	Symbol               string           `json:"symbol"`
	URI                  string           `json:"uri"`
	SellerFeeBasisPoints int              `json:"seller_fee_basis_points"`
	RoyaltyPercent       float64          `json:"royalty_percent"`
	Creators             []folder.Creator `json:"creators,omitempty"`
}

// Receipt identifies a confirmed mint.
type Receipt struct {
	Signature   string `json:"signature"`
	MintAddress string `json:"mint_address"`
}

// Minter submits a create-asset transaction and waits for confirmation.
type Minter interface {
	CreateAsset(ctx context.Context, req Request) (Receipt, error)
}
