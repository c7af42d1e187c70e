// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package sqlite provides a chunk store backed by SQLite with the
// sqlite-vec extension, so the index survives restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alcove-dev/alcove/internal/index"
)

func init() {
	sqlite_vec.Auto()

	index.RegisterBackend("sqlite", func(cfg index.BackendConfig) (index.Store, error) {
		return NewStore(cfg.Path, cfg.Dimensions)
	})
}

// Compile-time interface check.
var _ index.Store = (*Store)(nil)

// Store implements index.Store backed by SQLite with sqlite-vec.
type Store struct {
	db         *sql.DB
	dimensions int
}

// NewStore opens (or creates) a SQLite database at dbPath and initialises
// the vec0 virtual table and companion chunk table.
func NewStore(dbPath string, dimensions int) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrate(db, dimensions); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating chunk tables: %w", err)
	}

	return &Store{db: db, dimensions: dimensions}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_vectors USING vec0(id TEXT PRIMARY KEY, embedding float[%d])`,
		dimensions,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return fmt.Errorf("creating chunk_vectors virtual table: %w", err)
	}

	const chunkDDL = `
CREATE TABLE IF NOT EXISTS chunks (
	id        TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	position  INTEGER NOT NULL,
	text      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_id)`
	if _, err := db.Exec(chunkDDL); err != nil {
		return fmt.Errorf("creating chunks table: %w", err)
	}

	return nil
}

// Append inserts chunks and their embeddings in one transaction.
func (s *Store) Append(ctx context.Context, chunks []index.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range chunks {
		blob, err := sqlite_vec.SerializeFloat32(c.Embedding)
		if err != nil {
			return fmt.Errorf("serializing embedding for chunk %s: %w", c.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunk_vectors(id, embedding) VALUES (?, ?)`, c.ID, blob); err != nil {
			return fmt.Errorf("inserting vector %s: %w", c.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks(id, source_id, position, text) VALUES (?, ?, ?, ?)`,
			c.ID, c.SourceID, c.Position, c.Text); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunk append: %w", err)
	}
	return nil
}

// Search performs a k-nearest-neighbor query. vec0 reports L2 distance;
// stored and query vectors are unit length, so cosine similarity falls
// out as 1 - d^2/2.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]index.Scored, error) {
	if k <= 0 {
		return nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serializing query vector: %w", err)
	}

	const q = `SELECT v.id, v.distance, c.source_id, c.position, c.text
FROM chunk_vectors v
JOIN chunks c ON c.id = v.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance`

	rows, err := s.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []index.Scored
	for rows.Next() {
		var (
			chunk    index.Chunk
			distance float64
		)
		if err := rows.Scan(&chunk.ID, &distance, &chunk.SourceID, &chunk.Position, &chunk.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk result: %w", err)
		}

		results = append(results, index.Scored{
			Chunk: chunk,
			Score: 1 - math.Pow(distance, 2)/2,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk results: %w", err)
	}

	return results, nil
}

// Remove deletes every chunk belonging to sourceID.
func (s *Store) Remove(ctx context.Context, sourceID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunk_vectors WHERE id IN (SELECT id FROM chunks WHERE source_id = ?)`,
		sourceID); err != nil {
		return 0, fmt.Errorf("deleting vectors for source %s: %w", sourceID, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks for source %s: %w", sourceID, err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting removed chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing chunk removal: %w", err)
	}
	return int(removed), nil
}

// Sources lists ingested documents with chunk counts, oldest first.
func (s *Store) Sources(ctx context.Context) ([]index.SourceInfo, error) {
	const q = `SELECT source_id, COUNT(*) FROM chunks GROUP BY source_id ORDER BY MIN(rowid)`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []index.SourceInfo
	for rows.Next() {
		var info index.SourceInfo
		if err := rows.Scan(&info.SourceID, &info.Chunks); err != nil {
			return nil, fmt.Errorf("scanning source info: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return infos, nil
}

// Len returns the total number of stored chunks.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
