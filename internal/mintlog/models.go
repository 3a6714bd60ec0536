package mintlog

import "time"

// Record is one row of the Minted NFT Log.
type Record struct {
	ID          int64     `json:"id"`
	Folder      string    `json:"folder"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	MintAddress string    `json:"mint_address"`
	Signature   string    `json:"signature"`
	MediaURI    string    `json:"media_uri"`
	MetadataURI string    `json:"metadata_uri"`
	ExplorerURL string    `json:"explorer_url"`
	MintURL     string    `json:"mint_url"`
	Network     string    `json:"network"`
	MintedAt    time.Time `json:"minted_at"`
}

// Failure is one row of the failure journal.
type Failure struct {
	ID          int64     `json:"id"`
	Folder      string    `json:"folder"`
	State       string    `json:"state"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	MediaURI    string    `json:"media_uri,omitempty"`
	MetadataURI string    `json:"metadata_uri,omitempty"`
	FailedAt    time.Time `json:"failed_at"`
}

// Summary holds aggregate counts across both tables.
type Summary struct {
	Minted   int `json:"minted"`
	Failures int `json:"failures"`
}
