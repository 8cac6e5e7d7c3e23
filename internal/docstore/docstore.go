package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no document has been written yet.
	ErrNotFound = errors.New("document not found")
	// ErrDirectoryUnavailable is returned when the storage location cannot be prepared.
	ErrDirectoryUnavailable = errors.New("storage directory unavailable")
)

// BackupTimeLayout is embedded in backup names at second granularity.
const BackupTimeLayout = "2006-01-02_15-04-05"

// DocumentStore holds exactly one live document plus its backups.
type DocumentStore interface {
	// Read returns the raw bytes of the live document, or ErrNotFound.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the live document. Concurrent writers are serialized and
	// readers never observe a partial write.
	Write(ctx context.Context, data []byte) error
	// Backup snapshots the current live document, or returns ErrNotFound if
	// there is nothing to snapshot.
	Backup(ctx context.Context, at time.Time) (Backup, error)
	// Prune removes the oldest backups so that at most keep remain.
	Prune(ctx context.Context, keep int) (removed int, err error)
	// Backups lists retained backups, oldest first.
	Backups(ctx context.Context) ([]Backup, error)
}

type Backup struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

// BackupName returns "<stem>_backup_<YYYY-MM-DD_HH-MM-SS>.json".
func BackupName(stem string, at time.Time) string {
	return fmt.Sprintf("%s_backup_%s.json", stem, at.Format(BackupTimeLayout))
}
