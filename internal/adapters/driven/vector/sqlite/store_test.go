package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(Config{DataDir: t.TempDir()})
	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func chunk(id, file, release, content string) domain.Chunk {
	return domain.Chunk{
		ID: id, File: file, Release: release, DocType: "NOTES",
		Heading: "H", Content: content, LineStart: 1, LineEnd: 5,
		ChunkIndex: 0, Tokens: 4,
	}
}

func TestStore_UpsertAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		[]domain.Chunk{
			chunk("a", "R1-NOTES.md", "R1", "alpha"),
			chunk("b", "R1-NOTES.md", "R1", "beta"),
			chunk("c", "R2-NOTES.md", "R2", "gamma"),
		},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		}))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 2, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "c", hits[1].Chunk.ID)
	// TotalChunks is not persisted.
	assert.Equal(t, 0, hits[0].Chunk.TotalChunks)
}

func TestStore_SearchWithFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		[]domain.Chunk{
			chunk("a", "R1-NOTES.md", "R1", "alpha"),
			chunk("c", "R2-NOTES.md", "R2", "gamma"),
		},
		[][]float32{{1, 0, 0}, {1, 0, 0}}))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 10, driven.VectorFilter{Release: "R2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c", hits[0].Chunk.ID)
}

func TestStore_UpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		[]domain.Chunk{chunk("a", "R1-NOTES.md", "R1", "old")},
		[][]float32{{1, 0, 0}}))
	require.NoError(t, store.Upsert(ctx,
		[]domain.Chunk{chunk("a", "R1-NOTES.md", "R1", "new")},
		[][]float32{{0, 1, 0}}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	hits, err := store.Search(ctx, []float32{0, 1, 0}, 1, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Chunk.Content)
}

func TestStore_DeleteRequiresPredicate(t *testing.T) {
	store := newTestStore(t)
	err := store.Delete(context.Background(), driven.VectorFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_DeleteByFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		[]domain.Chunk{
			chunk("a", "R1-NOTES.md", "R1", "alpha"),
			chunk("c", "R2-NOTES.md", "R2", "gamma"),
		},
		[][]float32{{1, 0, 0}, {0, 1, 0}}))

	require.NoError(t, store.Delete(ctx, driven.VectorFilter{File: "R1-NOTES.md"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_ContentTruncated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("x", MaxContentLen+100)
	require.NoError(t, store.Upsert(ctx,
		[]domain.Chunk{chunk("a", "R1-NOTES.md", "R1", long)},
		[][]float32{{1, 0, 0}}))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 1, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Len(t, hits[0].Chunk.Content, MaxContentLen)
}

func TestStore_UpsertLengthMismatch(t *testing.T) {
	store := newTestStore(t)
	err := store.Upsert(context.Background(),
		[]domain.Chunk{chunk("a", "R1-NOTES.md", "R1", "alpha")},
		nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_OperationsBeforeConnect(t *testing.T) {
	store := NewStore(Config{DataDir: t.TempDir()})
	_, err := store.Count(context.Background())
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
}

func TestStore_ConnectTwiceIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Connect(context.Background()))
}
