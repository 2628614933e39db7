package match

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/resume-match/internal/core/document"
	"github.com/jinford/resume-match/internal/core/ingestion"
	"github.com/jinford/resume-match/internal/core/vectorstore"
)

// axisEmbedder は先頭文字に応じた単位ベクトルを返すテスト用Embedder
// クエリと同じ次元軸を持つチャンクが最も高い類似度になる
type axisEmbedder struct {
	dim int
}

func (e axisEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	if text == "" {
		vec[0] = 1
		return vec, nil
	}
	vec[int(text[0])%e.dim] = 1
	return vec, nil
}

func (e axisEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e axisEmbedder) Dimension() int { return e.dim }

func seedStore(t *testing.T, store vectorstore.Store, documentID, userID string, texts []string, vectors [][]float32) {
	t.Helper()
	require.Equal(t, len(texts), len(vectors))

	records := make([]vectorstore.Record, len(texts))
	for i := range texts {
		records[i] = vectorstore.Record{
			ID:         vectorstore.RecordID(documentID, i),
			DocumentID: documentID,
			UserID:     userID,
			Ordinal:    i,
			Vector:     vectors[i],
			Metadata: map[string]string{
				vectorstore.MetadataKeyDocumentID: documentID,
				vectorstore.MetadataKeyUserID:     userID,
				vectorstore.MetadataKeyText:       texts[i],
				vectorstore.MetadataKeyOrdinal:    strconv.Itoa(i),
			},
		}
	}
	require.NoError(t, store.Upsert(context.Background(), records))
}

func newTestRetriever(t *testing.T, store vectorstore.Store, embedder ingestion.Embedder, opts ...RetrieverOption) *Retriever {
	t.Helper()
	r, err := NewRetriever(
		map[document.Class]ingestion.Embedder{document.ClassResume: embedder},
		map[document.Class]vectorstore.Store{document.ClassResume: store},
		opts...,
	)
	require.NoError(t, err)
	return r
}

func TestRetrieveJoinsChunksByRelevance(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	seedStore(t, store, "doc-1", "user-1",
		[]string{"alpha", "beta", "gamma"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
	)

	retriever := newTestRetriever(t, store, axisEmbedder{dim: 3})

	// "a" はベクトル (0, 1, 0) になる: beta が最上位、次いで gamma
	got, err := retriever.Retrieve(context.Background(), document.ClassResume, "doc-1", "a", 2)
	require.NoError(t, err)
	assert.Equal(t, "beta gamma", got)
}

func TestRetrieveScopedToDocument(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	seedStore(t, store, "doc-1", "user-1", []string{"own chunk"}, [][]float32{{1, 0, 0}})
	seedStore(t, store, "doc-2", "user-2", []string{"other chunk"}, [][]float32{{1, 0, 0}})

	retriever := newTestRetriever(t, store, axisEmbedder{dim: 3})

	got, err := retriever.Retrieve(context.Background(), document.ClassResume, "doc-1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, "own chunk", got)
	assert.NotContains(t, got, "other")
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	retriever := newTestRetriever(t, vectorstore.NewMemoryStore(), axisEmbedder{dim: 3})

	got, err := retriever.Retrieve(context.Background(), document.ClassResume, "missing-doc", "query", 5)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRetrieveTiebreakByOrdinal(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	// 全チャンクが同一ベクトル: 類似度同点なのでordinal昇順で並ぶ
	seedStore(t, store, "doc-1", "user-1",
		[]string{"first", "second", "third"},
		[][]float32{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}},
	)

	retriever := newTestRetriever(t, store, axisEmbedder{dim: 3})

	got, err := retriever.Retrieve(context.Background(), document.ClassResume, "doc-1", "", 3)
	require.NoError(t, err)
	assert.Equal(t, "first second third", got)
}

func TestRetrieveTrimsToTokenLimit(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	seedStore(t, store, "doc-1", "user-1",
		[]string{"one two three four five six seven eight nine ten"},
		[][]float32{{1, 0, 0}},
	)

	retriever := newTestRetriever(t, store, axisEmbedder{dim: 3}, WithContextMaxTokens(3))

	got, err := retriever.Retrieve(context.Background(), document.ClassResume, "doc-1", "", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Less(t, len(got), len("one two three four five six seven eight nine ten"))
}

func TestRetrieveRejectsUnknownClass(t *testing.T) {
	retriever := newTestRetriever(t, vectorstore.NewMemoryStore(), axisEmbedder{dim: 3})

	_, err := retriever.Retrieve(context.Background(), document.Class("cover_letter"), "doc-1", "q", 5)
	assert.Error(t, err)
}

func TestRetrieveRequiresConfiguredClass(t *testing.T) {
	// resumeクラスのみ設定されたRetrieverでjob_descriptionを検索するとエラー
	retriever := newTestRetriever(t, vectorstore.NewMemoryStore(), axisEmbedder{dim: 3})

	_, err := retriever.Retrieve(context.Background(), document.ClassJobDescription, "doc-1", "q", 5)
	assert.ErrorContains(t, err, "not configured")
}
