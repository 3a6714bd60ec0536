package mintlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const recordColumns = "id, folder, name, symbol, mint_address, signature, media_uri, metadata_uri, explorer_url, mint_url, network, minted_at"

const failureColumns = "id, folder, state, kind, message, media_uri, metadata_uri, failed_at"

// Append adds a minted asset to the log and returns it with ID and MintedAt
// set. A zero MintedAt is stamped with the current time.
func (s *Store) Append(ctx context.Context, rec Record) (*Record, error) {
	if strings.TrimSpace(rec.MintAddress) == "" || strings.TrimSpace(rec.Signature) == "" {
		return nil, errors.New("record requires mint address and signature")
	}
	if rec.MintedAt.IsZero() {
		rec.MintedAt = time.Now()
	}
	rec.MintedAt = rec.MintedAt.UTC()

	res, err := s.execWithRetry(ctx,
		`INSERT INTO minted_assets (
            folder, name, symbol, mint_address, signature, media_uri, metadata_uri,
            explorer_url, mint_url, network, minted_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Folder,
		rec.Name,
		rec.Symbol,
		rec.MintAddress,
		rec.Signature,
		rec.MediaURI,
		rec.MetadataURI,
		rec.ExplorerURL,
		rec.MintURL,
		rec.Network,
		rec.MintedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert minted asset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return &rec, nil
}

// List returns minted assets in completion order. A positive limit keeps only
// the most recent limit rows, still oldest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM minted_assets ORDER BY id`
	args := []any{}
	if limit > 0 {
		query = `SELECT * FROM (SELECT ` + recordColumns + ` FROM minted_assets ORDER BY id DESC LIMIT ?) ORDER BY id`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list minted assets: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindByFolder returns the most recent mint for folder, or nil.
func (s *Store) FindByFolder(ctx context.Context, folder string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM minted_assets WHERE folder = ? ORDER BY id DESC LIMIT 1`, folder)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by folder: %w", err)
	}
	return rec, nil
}

// Count returns the number of minted assets.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM minted_assets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count minted assets: %w", err)
	}
	return n, nil
}

// RecordFailure appends a row to the failure journal.
func (s *Store) RecordFailure(ctx context.Context, f Failure) (*Failure, error) {
	if f.FailedAt.IsZero() {
		f.FailedAt = time.Now()
	}
	f.FailedAt = f.FailedAt.UTC()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO failures (folder, state, kind, message, media_uri, metadata_uri, failed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Folder,
		f.State,
		f.Kind,
		f.Message,
		nullableString(f.MediaURI),
		nullableString(f.MetadataURI),
		f.FailedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert failure: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return &f, nil
}

// ListFailures returns journal rows newest first, up to limit when positive.
func (s *Store) ListFailures(ctx context.Context, limit int) ([]*Failure, error) {
	query := `SELECT ` + failureColumns + ` FROM failures ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var failures []*Failure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// Summary returns row counts for both tables.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(1) FROM minted_assets), (SELECT COUNT(1) FROM failures)`,
	).Scan(&sum.Minted, &sum.Failures)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return sum, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanRecord(row scanner) (*Record, error) {
	var (
		rec       Record
		mintedRaw string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Folder,
		&rec.Name,
		&rec.Symbol,
		&rec.MintAddress,
		&rec.Signature,
		&rec.MediaURI,
		&rec.MetadataURI,
		&rec.ExplorerURL,
		&rec.MintURL,
		&rec.Network,
		&mintedRaw,
	); err != nil {
		return nil, err
	}
	if t, err := parseTimeString(mintedRaw); err == nil {
		rec.MintedAt = t
	}
	return &rec, nil
}

func scanFailure(row scanner) (*Failure, error) {
	var (
		f           Failure
		mediaURI    sql.NullString
		metadataURI sql.NullString
		failedRaw   string
	)
	if err := row.Scan(&f.ID, &f.Folder, &f.State, &f.Kind, &f.Message, &mediaURI, &metadataURI, &failedRaw); err != nil {
		return nil, err
	}
	f.MediaURI = mediaURI.String
	f.MetadataURI = metadataURI.String
	if t, err := parseTimeString(failedRaw); err == nil {
		f.FailedAt = t
	}
	return &f, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
