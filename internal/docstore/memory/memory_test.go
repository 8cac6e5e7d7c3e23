package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/photoshelf/internal/docstore"
	"github.com/vbonduro/photoshelf/internal/docstore/docstoretest"
)

func TestMemoryDocumentStore(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.DocumentStore {
		return NewMemoryDocumentStore("photos")
	})
}

func TestMemoryDocumentStoreBackupData(t *testing.T) {
	s := NewMemoryDocumentStore("photos")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, []byte(`{"nextId":1}`)))
	b, err := s.Backup(ctx, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, []byte(`{"nextId":2}`)))

	data, ok := s.BackupData(b.Name)
	require.True(t, ok)
	assert.Equal(t, `{"nextId":1}`, string(data))

	_, ok = s.BackupData("missing.json")
	assert.False(t, ok)
}

func TestMemoryDocumentStoreReadIsolated(t *testing.T) {
	s := NewMemoryDocumentStore("photos")
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, []byte(`{}`)))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	got[0] = 'X'

	again, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(again))
}
