// Package memory is an in-process DocumentStore. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vbonduro/photoshelf/internal/docstore"
)

type snapshot struct {
	docstore.Backup
	data []byte
}

// MemoryDocumentStore is safe for concurrent use.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	stem    string
	doc     []byte
	backups []snapshot
}

func NewMemoryDocumentStore(stem string) *MemoryDocumentStore {
	return &MemoryDocumentStore{stem: stem}
}

func (m *MemoryDocumentStore) Read(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return nil, docstore.ErrNotFound
	}
	return clone(m.doc), nil
}

func (m *MemoryDocumentStore) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = clone(data)
	if m.doc == nil {
		m.doc = []byte{}
	}
	return nil
}

func (m *MemoryDocumentStore) Backup(ctx context.Context, at time.Time) (docstore.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return docstore.Backup{}, docstore.ErrNotFound
	}
	b := docstore.Backup{
		Name:      docstore.BackupName(m.stem, at),
		Size:      int64(len(m.doc)),
		CreatedAt: at,
	}
	m.backups = append(m.backups, snapshot{Backup: b, data: clone(m.doc)})
	return b, nil
}

func (m *MemoryDocumentStore) Prune(ctx context.Context, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortLocked()
	if len(m.backups) <= keep {
		return 0, nil
	}
	n := len(m.backups) - keep
	m.backups = append([]snapshot(nil), m.backups[n:]...)
	return n, nil
}

func (m *MemoryDocumentStore) Backups(ctx context.Context) ([]docstore.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortLocked()
	out := make([]docstore.Backup, len(m.backups))
	for i, s := range m.backups {
		out[i] = s.Backup
	}
	return out, nil
}

// BackupData returns the bytes captured by the named backup.
func (m *MemoryDocumentStore) BackupData(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.backups {
		if s.Name == name {
			return clone(s.data), true
		}
	}
	return nil, false
}

func (m *MemoryDocumentStore) sortLocked() {
	sort.SliceStable(m.backups, func(i, j int) bool {
		return m.backups[i].CreatedAt.Before(m.backups[j].CreatedAt)
	})
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
