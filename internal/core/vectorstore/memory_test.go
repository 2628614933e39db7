package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecord(docID, userID string, ordinal int, vector []float32, text string) Record {
	return Record{
		ID:         RecordID(docID, ordinal),
		DocumentID: docID,
		UserID:     userID,
		Ordinal:    ordinal,
		Vector:     vector,
		Metadata: map[string]string{
			MetadataKeyDocumentID: docID,
			MetadataKeyUserID:     userID,
			MetadataKeyText:       text,
		},
	}
}

func TestMemoryStoreUpsertSkipsWhenExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := []Record{
		makeRecord("doc-1", "user-1", 0, []float32{1, 0}, "original chunk 0"),
		makeRecord("doc-1", "user-1", 1, []float32{0, 1}, "original chunk 1"),
	}
	require.NoError(t, store.Upsert(ctx, first))
	assert.Equal(t, 2, store.Len())

	// 同一ドキュメントの再投入は書き込み全体がスキップされる
	second := []Record{
		makeRecord("doc-1", "user-1", 0, []float32{0.5, 0.5}, "conflicting chunk"),
	}
	require.NoError(t, store.Upsert(ctx, second))
	assert.Equal(t, 2, store.Len())

	matches, err := store.QueryForDocument(ctx, []float32{1, 0}, "doc-1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "original chunk 0", matches[0].Text)
}

func TestMemoryStoreExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	filter := IdentityFilter{DocumentID: "doc-1", UserID: "user-1"}

	exists, err := store.Exists(ctx, filter)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upsert(ctx, []Record{
		makeRecord("doc-1", "user-1", 0, []float32{1, 0}, "chunk"),
	}))

	exists, err = store.Exists(ctx, filter)
	require.NoError(t, err)
	assert.True(t, exists)

	// 別ユーザーの同一ドキュメントIDは存在扱いにならない
	exists, err = store.Exists(ctx, IdentityFilter{DocumentID: "doc-1", UserID: "user-2"})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreDeleteScopedByIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []Record{
		makeRecord("doc-1", "user-1", 0, []float32{1, 0}, "a"),
	}))
	require.NoError(t, store.Upsert(ctx, []Record{
		makeRecord("doc-2", "user-2", 0, []float32{0, 1}, "b"),
	}))

	require.NoError(t, store.Delete(ctx, IdentityFilter{DocumentID: "doc-1", UserID: "user-1"}))
	assert.Equal(t, 1, store.Len())

	exists, err := store.Exists(ctx, IdentityFilter{DocumentID: "doc-2", UserID: "user-2"})
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStoreDeleteRejectsInvalidFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Delete(ctx, IdentityFilter{DocumentID: "doc-1"})
	assert.ErrorIs(t, err, ErrInvalidIdentityFilter)
}

// TestMemoryStoreQueryNeverCrossesOwners は所有者スコープの検索が
// 他ユーザーのベクトルを決して返さないことを確認します
func TestMemoryStoreQueryNeverCrossesOwners(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// 2ユーザーが同一内容のドキュメントを持つ
	require.NoError(t, store.Upsert(ctx, []Record{
		makeRecord("doc-a", "user-a", 0, []float32{1, 0}, "identical content"),
	}))
	require.NoError(t, store.Upsert(ctx, []Record{
		makeRecord("doc-b", "user-b", 0, []float32{1, 0}, "identical content"),
	}))

	matches, err := store.Query(ctx, []float32{1, 0}, "user-a", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	for _, m := range matches {
		assert.Equal(t, "user-a", m.UserID)
	}
}

func TestMemoryStoreQueryRankingAndTiebreak(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []Record{
		makeRecord("doc-1", "user-1", 0, []float32{1, 0}, "chunk 0"),
		makeRecord("doc-1", "user-1", 1, []float32{0, 1}, "chunk 1"),
		makeRecord("doc-1", "user-1", 2, []float32{1, 0}, "chunk 2"),
	}))

	matches, err := store.QueryForDocument(ctx, []float32{1, 0}, "doc-1", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	// 類似度降順、同点（chunk 0とchunk 2）はordinal昇順
	assert.Equal(t, 0, matches[0].Ordinal)
	assert.Equal(t, 2, matches[1].Ordinal)
	assert.Equal(t, 1, matches[2].Ordinal)
}

func TestMemoryStoreQueryTopKLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []Record{
		makeRecord("doc-1", "user-1", 0, []float32{1, 0}, "a"),
		makeRecord("doc-1", "user-1", 1, []float32{0.9, 0.1}, "b"),
		makeRecord("doc-1", "user-1", 2, []float32{0.8, 0.2}, "c"),
	}))

	matches, err := store.QueryForDocument(ctx, []float32{1, 0}, "doc-1", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// 次元不一致・ゼロベクトルは0
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
