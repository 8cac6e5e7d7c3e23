// Package sqlite stores the live document and its backups in SQLite.
//
// Tables (see internal/db/migrations):
//
//	documents(name, body, updated_at)                      PRIMARY KEY (name)
//	backups(id, document, name, body, size, created_at)    PRIMARY KEY (id)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/photoshelf/internal/docstore"
)

type SQLiteDocumentStore struct {
	db   *sql.DB
	name string
}

// NewSQLiteDocumentStore stores the document under name; backups are named
// after it.
func NewSQLiteDocumentStore(db *sql.DB, name string) *SQLiteDocumentStore {
	return &SQLiteDocumentStore{db: db, name: name}
}

func (s *SQLiteDocumentStore) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM documents WHERE name = ?
	`, s.name).Scan(&body)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return body, nil
}

func (s *SQLiteDocumentStore) Write(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin write: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, s.name, data, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Backup(ctx context.Context, at time.Time) (docstore.Backup, error) {
	b := docstore.Backup{
		Name:      docstore.BackupName(s.name, at),
		CreatedAt: at,
	}

	// size is read back from the inserted row, not from documents.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO backups (id, document, name, body, size, created_at)
		SELECT ?, name, ?, body, length(body), ? FROM documents WHERE name = ?
		RETURNING size
	`, uuid.New().String(), b.Name, at.UnixNano(), s.name).Scan(&b.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Backup{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Backup{}, fmt.Errorf("failed to create backup: %w", err)
	}
	return b, nil
}

func (s *SQLiteDocumentStore) Prune(ctx context.Context, keep int) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM backups WHERE document = ?
	`, s.name).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count backups: %w", err)
	}
	if count <= keep {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM backups WHERE id IN (
			SELECT id FROM backups WHERE document = ?
			ORDER BY created_at ASC, rowid ASC LIMIT ?
		)
	`, s.name, count-keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune backups: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func (s *SQLiteDocumentStore) Backups(ctx context.Context) ([]docstore.Backup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, size, created_at FROM backups WHERE document = ?
		ORDER BY created_at ASC, rowid ASC
	`, s.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var backups []docstore.Backup
	for rows.Next() {
		var (
			b       docstore.Backup
			created int64
		)
		if err := rows.Scan(&b.Name, &b.Size, &created); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		b.CreatedAt = time.Unix(0, created)
		backups = append(backups, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backups: %w", err)
	}

	return backups, nil
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
