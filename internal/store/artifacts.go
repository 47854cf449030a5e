package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Pass is a recorded compilation pass.
type Pass struct {
	ID       string
	FullHash string
	Seq      int64
	Chunks   int
}

// Artifact is an emitted file.
type Artifact struct {
	Filename    string
	ChunkKey    string
	ContentHash string

	// SourceHash identifies the exact bytes written.
	SourceHash string
	Size       int
	PassID     string
}

// RecordPass inserts a pass with the next sequence number. Recording the
// same pass id twice is a no-op.
func (s *Store) RecordPass(ctx context.Context, id, fullHash string, chunks int) (Pass, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO passes (id, full_hash, seq, chunks)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM passes), ?)
		ON CONFLICT(id) DO NOTHING
	`, id, fullHash, chunks)
	if err != nil {
		return Pass{}, fmt.Errorf("record pass: %w", err)
	}

	var p Pass
	err = s.db.QueryRowContext(ctx, `
		SELECT id, full_hash, seq, chunks FROM passes WHERE id = ?
	`, id).Scan(&p.ID, &p.FullHash, &p.Seq, &p.Chunks)
	if err != nil {
		return Pass{}, fmt.Errorf("record pass: %w", err)
	}
	return p, nil
}

// LatestPass returns the most recently recorded pass.
func (s *Store) LatestPass(ctx context.Context) (Pass, bool, error) {
	var p Pass
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_hash, seq, chunks FROM passes ORDER BY seq DESC LIMIT 1
	`).Scan(&p.ID, &p.FullHash, &p.Seq, &p.Chunks)
	if errors.Is(err, sql.ErrNoRows) {
		return Pass{}, false, nil
	}
	if err != nil {
		return Pass{}, false, fmt.Errorf("latest pass: %w", err)
	}
	return p, true, nil
}

// PutArtifact records a, replacing any earlier record for the same filename.
// The pass must have been recorded.
func (s *Store) PutArtifact(ctx context.Context, a Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (filename, chunk_key, content_hash, source_hash, size, pass_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			chunk_key = excluded.chunk_key,
			content_hash = excluded.content_hash,
			source_hash = excluded.source_hash,
			size = excluded.size,
			pass_id = excluded.pass_id
	`, a.Filename, a.ChunkKey, a.ContentHash, a.SourceHash, a.Size, a.PassID)
	if err != nil {
		return fmt.Errorf("put artifact %s: %w", a.Filename, err)
	}
	return nil
}

// Artifact returns the record for filename.
func (s *Store) Artifact(ctx context.Context, filename string) (Artifact, bool, error) {
	var a Artifact
	err := s.db.QueryRowContext(ctx, `
		SELECT filename, chunk_key, content_hash, source_hash, size, pass_id
		FROM artifacts WHERE filename = ?
	`, filename).Scan(&a.Filename, &a.ChunkKey, &a.ContentHash, &a.SourceHash, &a.Size, &a.PassID)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("artifact %s: %w", filename, err)
	}
	return a, true, nil
}

// Unchanged reports whether filename was last written with sourceHash.
func (s *Store) Unchanged(ctx context.Context, filename, sourceHash string) (bool, error) {
	a, ok, err := s.Artifact(ctx, filename)
	if err != nil || !ok {
		return false, err
	}
	return a.SourceHash == sourceHash, nil
}

// ListArtifacts returns the artifacts last written by a pass, sorted by
// filename.
func (s *Store) ListArtifacts(ctx context.Context, passID string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, chunk_key, content_hash, source_hash, size, pass_id
		FROM artifacts WHERE pass_id = ?
		ORDER BY filename COLLATE BINARY ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Filename, &a.ChunkKey, &a.ContentHash, &a.SourceHash, &a.Size, &a.PassID); err != nil {
			return nil, fmt.Errorf("list artifacts: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return out, nil
}
