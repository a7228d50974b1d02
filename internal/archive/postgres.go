// Package archive stores fetched occupation payloads in PostgreSQL and reads
// the list of codes the scheduler keeps fresh.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied by EnsureSchema. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS metier_snapshots (
	id             BIGSERIAL PRIMARY KEY,
	code           TEXT        NOT NULL,
	libelle        TEXT        NOT NULL DEFAULT '',
	content_sha256 TEXT        NOT NULL,
	raw_data       JSONB       NOT NULL,
	fetched_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (code, content_sha256)
);

CREATE TABLE IF NOT EXISTS watched_codes (
	code       TEXT        PRIMARY KEY,
	is_active  BOOLEAN     NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Store is the PostgreSQL-backed archive.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the archive tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveSnapshot inserts the raw payload unless an identical one is already
// archived for code. It reports whether a row was written.
func (s *Store) SaveSnapshot(ctx context.Context, code, libelle string, raw []byte) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO metier_snapshots (code, libelle, content_sha256, raw_data)
		 VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (code, content_sha256) DO NOTHING`,
		code, libelle, ContentHash(raw), string(raw),
	)
	if err != nil {
		return false, fmt.Errorf("insert snapshot %s: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}

// WatchedCodes returns every active watched code, oldest first.
func (s *Store) WatchedCodes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code FROM watched_codes WHERE is_active = true ORDER BY created_at, code`,
	)
	if err != nil {
		return nil, fmt.Errorf("query watched_codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Watch adds codes to the watch list, re-activating any that were disabled.
func (s *Store) Watch(ctx context.Context, codes ...string) error {
	for _, code := range codes {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO watched_codes (code) VALUES ($1)
			 ON CONFLICT (code) DO UPDATE SET is_active = true`,
			code,
		); err != nil {
			return fmt.Errorf("watch %s: %w", code, err)
		}
	}
	return nil
}

// ContentHash is the dedupe key of a payload.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
