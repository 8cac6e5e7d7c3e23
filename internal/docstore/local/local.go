package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/photoshelf/internal/docstore"
)

const maxNameAttempts = 100

// LocalDocumentStore keeps the live document in a single JSON file and its
// backups as sibling files in the same directory.
//
// Layout:
//
//	data/
//	  photos.json                              # live document
//	  photos.json.lock                         # writer lock
//	  photos_backup_2026-01-02_15-04-05.json   # backups
type LocalDocumentStore struct {
	mu       sync.Mutex
	path     string
	dir      string
	stem     string
	lockPath string
}

func NewLocalDocumentStore(path string) (*LocalDocumentStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", docstore.ErrDirectoryUnavailable, dir, err)
	}
	base := filepath.Base(path)
	return &LocalDocumentStore{
		path:     path,
		dir:      dir,
		stem:     strings.TrimSuffix(base, filepath.Ext(base)),
		lockPath: path + ".lock",
	}, nil
}

// Path returns the live document location.
func (s *LocalDocumentStore) Path() string { return s.path }

func (s *LocalDocumentStore) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// Write replaces the document with a temp file + rename while holding the
// exclusive writer lock.
func (s *LocalDocumentStore) Write(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: %s: %w", docstore.ErrDirectoryUnavailable, s.dir, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockFile(s.lockPath)
	if err != nil {
		return fmt.Errorf("failed to lock document: %w", err)
	}
	defer unlock()

	tmp, err := os.CreateTemp(s.dir, "."+s.stem+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		closeAndRemove(tmp, tmpPath)
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		closeAndRemove(tmp, tmpPath)
		return fmt.Errorf("failed to sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeWithLog(tmpPath)
		return fmt.Errorf("failed to close document: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		removeWithLog(tmpPath)
		return fmt.Errorf("failed to chmod document: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		removeWithLog(tmpPath)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

// Backup copies the current document bytes verbatim. When two backups land in
// the same second the later one gets a numeric suffix instead of overwriting.
func (s *LocalDocumentStore) Backup(ctx context.Context, at time.Time) (docstore.Backup, error) {
	data, err := s.Read(ctx)
	if err != nil {
		return docstore.Backup{}, err
	}

	base := docstore.BackupName(s.stem, at)
	for i := 1; i <= maxNameAttempts; i++ {
		name := base
		if i > 1 {
			name = strings.TrimSuffix(base, ".json") + "_" + strconv.Itoa(i) + ".json"
		}
		backupPath := filepath.Join(s.dir, name)

		f, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return docstore.Backup{}, fmt.Errorf("failed to create backup: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			closeAndRemove(f, backupPath)
			return docstore.Backup{}, fmt.Errorf("failed to write backup: %w", err)
		}
		if err := f.Close(); err != nil {
			removeWithLog(backupPath)
			return docstore.Backup{}, fmt.Errorf("failed to close backup: %w", err)
		}
		if err := os.Chtimes(backupPath, at, at); err != nil {
			slog.Warn("failed to set backup mtime", "backup", name, "error", err)
		}
		return docstore.Backup{Name: name, Size: int64(len(data)), CreatedAt: at}, nil
	}
	return docstore.Backup{}, fmt.Errorf("failed to create backup: no free name for %s", base)
}

// Prune deletes the oldest backups by mtime until at most keep remain. Every
// eligible file is attempted; failures are joined.
func (s *LocalDocumentStore) Prune(ctx context.Context, keep int) (int, error) {
	backups, err := s.Backups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	var errs []error
	removed := 0
	for _, b := range backups[:len(backups)-keep] {
		if err := os.Remove(filepath.Join(s.dir, b.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove backup %s: %w", b.Name, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (s *LocalDocumentStore) Backups(ctx context.Context) ([]docstore.Backup, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, s.stem+"_backup_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]docstore.Backup, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat backup: %w", err)
		}
		backups = append(backups, docstore.Backup{
			Name:      filepath.Base(m),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.Before(backups[j].CreatedAt)
	})
	return backups, nil
}

func closeAndRemove(f *os.File, path string) {
	if err := f.Close(); err != nil {
		slog.Error("failed to close file after write error", "error", err)
	}
	removeWithLog(path)
}

func removeWithLog(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to remove file after write error", "path", path, "error", err)
	}
}
