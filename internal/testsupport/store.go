package testsupport

import (
	"context"
	"testing"

	"mintwatch/internal/config"
	"mintwatch/internal/mintlog"
)

// MustOpenStore opens a mintlog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *mintlog.Store {
	t.Helper()

	store, err := mintlog.Open(cfg)
	if err != nil {
		t.Fatalf("mintlog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AppendMint inserts a minted record for folder with placeholder chain data.
func AppendMint(t testing.TB, store *mintlog.Store, folder, mintAddress string) *mintlog.Record {
	t.Helper()

	rec, err := store.Append(context.Background(), mintlog.Record{
		Folder:      folder,
		Name:        folder,
		MintAddress: mintAddress,
		Signature:   "sig-" + mintAddress,
		MediaURI:    "ipfs://media-" + folder,
		MetadataURI: "ipfs://meta-" + folder,
		Network:     config.ClusterDevnet,
	})
	if err != nil {
		t.Fatalf("store.Append: %v", err)
	}
	return rec
}
