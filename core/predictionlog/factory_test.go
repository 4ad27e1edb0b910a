package predictionlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/deliveryeta/core/factory"
)

func TestNewStore_Builtins(t *testing.T) {
	dir := t.TempDir()
	cases := []factory.ModuleConfig{
		{Type: "memory"},
		{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "a.jsonl")}},
		{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "b.jsonl"), "max_size_mb": 1}},
		{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "logs.db")}},
	}
	for _, c := range cases {
		s, err := NewStore(c)
		require.NoError(t, err, c.Type)
		require.NoError(t, s.Close())
	}
	_, rotating := mustStore(t, cases[2]).(*RotatingJSONLStore)
	assert.True(t, rotating)

	_, err := NewStore(factory.ModuleConfig{Type: "jsonl"})
	assert.Error(t, err)
	_, err = NewStore(factory.ModuleConfig{Type: "cassandra"})
	assert.Error(t, err)
	assert.Subset(t, StoreTypes(), []string{"jsonl", "memory", "sqlite"})
}

func mustStore(t *testing.T, c factory.ModuleConfig) Store {
	t.Helper()
	s, err := NewStore(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type batchStore struct {
	*MemoryStore
	batches int
}

func (b *batchStore) AppendBatch(ctx context.Context, entries []Entry) error {
	b.batches++
	for _, e := range entries {
		if err := b.MemoryStore.Append(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func TestCopy(t *testing.T) {
	src := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, src.Append(context.Background(), entryAt(t, base.Add(time.Duration(i)*time.Hour), float64(i), "v1")))
	}

	dst := NewMemoryStore()
	n, err := Copy(context.Background(), src, dst, Query{Start: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, dst.Len())

	bs := &batchStore{MemoryStore: NewMemoryStore()}
	n, err = Copy(context.Background(), src, bs, Query{})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 1, bs.batches)
}
