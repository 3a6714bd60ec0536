package mintlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSchemaMismatchIsReported(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mintwatch.db")
	store, err := OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := store.db.ExecContext(context.Background(), "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	store.Close()

	if _, err := OpenPath(dbPath); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if !isSQLiteBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy error to be detected")
	}
	if isSQLiteBusy(errors.New("no such table")) || isSQLiteBusy(nil) {
		t.Fatal("unexpected busy classification")
	}
}
