package duckdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrverse/amrrulebrowser/internal/rules"
	"github.com/amrverse/amrrulebrowser/internal/store"
)

var _ store.KV = (*Store)(nil)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k", entries[0].Key)
	assert.Equal(t, int64(2), entries[0].Size)

	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.duckdb")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "hello"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestRepositoryOverDuckDB(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	repo := store.NewRepository(s, rules.NewParser(nil))

	f := rules.NewFile("Staphylococcus_aureus.txt", "ruleID\tgene\tdrug\nSAU1\tmecA\toxacillin\n", rules.NewParser(nil))
	require.NoError(t, repo.Save(ctx, map[string]*rules.File{f.Name: f}))

	files, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, files, f.Name)
	assert.Equal(t, "mecA", files[f.Name].Rows[0].Value("gene"))
}
