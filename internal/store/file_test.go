package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileGateway_LoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	g := NewFileGateway(t.TempDir(), "users")
	records, err := g.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileGateway_SaveAllOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g := NewFileGateway(dir, "posts")
	ctx := context.Background()

	first := []Record{
		{ID: "a", Data: []byte(`{"title":"one"}`)},
		{ID: "b", Data: []byte(`{"title":"two"}`)},
	}
	require.NoError(t, g.SaveAll(ctx, first))

	loaded, err := g.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a", loaded[0].ID)
	assert.JSONEq(t, `{"title":"one"}`, string(loaded[0].Data))

	// A second save must fully replace the collection, not append.
	second := []Record{{ID: "c", Data: []byte(`{"title":"three"}`)}}
	require.NoError(t, g.SaveAll(ctx, second))

	loaded, err = g.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c", loaded[0].ID)

	// A fresh gateway over the same path sees the same records.
	reopened := NewFileGateway(dir, "posts")
	loaded, err = reopened.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c", loaded[0].ID)
}

func TestFileGateway_SaveEmptyCollection(t *testing.T) {
	t.Parallel()

	g := NewFileGateway(t.TempDir(), "comments")
	ctx := context.Background()

	require.NoError(t, g.SaveAll(ctx, []Record{{ID: "x", Data: []byte(`{}`)}}))
	require.NoError(t, g.SaveAll(ctx, nil))

	loaded, err := g.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
