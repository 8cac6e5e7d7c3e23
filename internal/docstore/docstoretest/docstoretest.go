// Package docstoretest runs a common test suite against any DocumentStore.
package docstoretest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/photoshelf/internal/docstore"
)

// Run exercises a store created fresh for every subtest by newStore.
func Run(t *testing.T, newStore func(t *testing.T) docstore.DocumentStore) {
	t.Helper()
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

	t.Run("Read empty", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Read(context.Background())
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("Write and Read", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		data := []byte(`{"photos":{"imlil":[1]},"nextId":2}`)

		require.NoError(t, s.Write(ctx, data))
		got, err := s.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("Write overwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Write(ctx, []byte(`{"v":1}`)))
		require.NoError(t, s.Write(ctx, []byte(`{"v":2}`)))
		got, err := s.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(got))
	})

	t.Run("Backup without document", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Backup(ctx, base)
		assert.ErrorIs(t, err, docstore.ErrNotFound)

		backups, err := s.Backups(ctx)
		require.NoError(t, err)
		assert.Empty(t, backups)
	})

	t.Run("Backup captures previous bytes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		prev := []byte("{\n    \"nextId\": 7\n}")

		require.NoError(t, s.Write(ctx, prev))
		b, err := s.Backup(ctx, base)
		require.NoError(t, err)
		assert.Equal(t, "photos_backup_2026-03-14_09-26-53.json", b.Name)
		assert.Equal(t, int64(len(prev)), b.Size)

		require.NoError(t, s.Write(ctx, []byte(`{"nextId":8}`)))
		backups, err := s.Backups(ctx)
		require.NoError(t, err)
		require.Len(t, backups, 1)
		assert.Equal(t, b.Name, backups[0].Name)
		assert.Equal(t, int64(len(prev)), backups[0].Size)
	})

	t.Run("Prune keeps most recent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, []byte(`{}`)))

		for i := 0; i < 13; i++ {
			_, err := s.Backup(ctx, base.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
		}

		removed, err := s.Prune(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		backups, err := s.Backups(ctx)
		require.NoError(t, err)
		require.Len(t, backups, 10)
		for i, b := range backups {
			want := docstore.BackupName("photos", base.Add(time.Duration(i+3)*time.Second))
			assert.Equal(t, want, b.Name, "backup %d", i)
		}
	})

	t.Run("Prune under cap", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, []byte(`{}`)))
		_, err := s.Backup(ctx, base)
		require.NoError(t, err)

		removed, err := s.Prune(ctx, 10)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("Concurrent writes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Write(ctx, []byte(fmt.Sprintf(`{"writer":%d}`, i))))
			}(i)
		}
		wg.Wait()

		got, err := s.Read(ctx)
		require.NoError(t, err)
		assert.Regexp(t, `^\{"writer":\d\}$`, string(got))
	})
}
