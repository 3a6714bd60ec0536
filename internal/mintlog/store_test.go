package mintlog_test

import (
	"context"
	"testing"
	"time"

	"mintwatch/internal/mintlog"
	"mintwatch/internal/testsupport"
)

func TestAppendPreservesCompletionOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, folder := range []string{"cat", "dog", "bird"} {
		rec := testsupport.AppendMint(t, store, folder, "mint-"+folder)
		if rec.ID == 0 || rec.MintedAt.IsZero() {
			t.Fatalf("append #%d missing id or timestamp: %+v", i, rec)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Folder != "cat" || all[2].Folder != "bird" {
		t.Fatalf("unexpected order: %+v", all)
	}

	recent, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(recent) != 2 || recent[0].Folder != "dog" || recent[1].Folder != "bird" {
		t.Fatalf("expected the two latest oldest first, got %+v", recent)
	}

	count, err := store.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}
}

func TestAppendRoundTripsFields(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	mintedAt := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	_, err := store.Append(ctx, mintlog.Record{
		Folder:      "cat",
		Name:        "Cat #1",
		Symbol:      "CAT",
		MintAddress: "Mint111",
		Signature:   "5sig",
		MediaURI:    "ipfs://media",
		MetadataURI: "ipfs://meta",
		ExplorerURL: "https://explorer.solana.com/tx/5sig?cluster=devnet",
		MintURL:     "https://explorer.solana.com/address/Mint111?cluster=devnet",
		Network:     "devnet",
		MintedAt:    mintedAt,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	found, err := store.FindByFolder(ctx, "cat")
	if err != nil {
		t.Fatalf("FindByFolder: %v", err)
	}
	if found == nil || found.Name != "Cat #1" || found.Symbol != "CAT" || found.MetadataURI != "ipfs://meta" {
		t.Fatalf("unexpected record %+v", found)
	}
	if !found.MintedAt.Equal(mintedAt) {
		t.Fatalf("minted_at mismatch: %v", found.MintedAt)
	}

	missing, err := store.FindByFolder(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown folder, got %+v, %v", missing, err)
	}
}

func TestAppendRejectsIncompleteRecord(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Append(context.Background(), mintlog.Record{Folder: "cat"}); err == nil {
		t.Fatal("expected error for record without chain identifiers")
	}
}

func TestAppendRejectsDuplicateMintAddress(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.AppendMint(t, store, "cat", "Mint111")
	if _, err := store.Append(context.Background(), mintlog.Record{Folder: "cat_again", MintAddress: "Mint111", Signature: "x"}); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestFailureJournal(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.RecordFailure(ctx, mintlog.Failure{Folder: "cat", State: "loading", Kind: "missing_media", Message: "no media"}); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if _, err := store.RecordFailure(ctx, mintlog.Failure{
		Folder: "dog", State: "minting", Kind: "mint", Message: "timeout",
		MediaURI: "ipfs://media", MetadataURI: "ipfs://meta",
	}); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	failures, err := store.ListFailures(ctx, 0)
	if err != nil {
		t.Fatalf("ListFailures: %v", err)
	}
	if len(failures) != 2 || failures[0].Folder != "dog" || failures[1].Folder != "cat" {
		t.Fatalf("expected newest first, got %+v", failures)
	}
	if failures[0].MetadataURI != "ipfs://meta" || failures[1].MediaURI != "" {
		t.Fatalf("partial uris not preserved: %+v %+v", failures[0], failures[1])
	}

	sum, err := store.Summary(ctx)
	if err != nil || sum.Minted != 0 || sum.Failures != 2 {
		t.Fatalf("Summary = %+v, %v", sum, err)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := mintlog.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.AppendMint(t, first, "cat", "Mint111")
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	count, err := second.Count(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("expected persisted row, got %d, %v", count, err)
	}
	if second.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected path %s", second.Path())
	}
}
