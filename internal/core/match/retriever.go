package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/resume-match/internal/core/document"
	"github.com/jinford/resume-match/internal/core/ingestion"
	"github.com/jinford/resume-match/internal/core/vectorstore"
)

const (
	// DefaultRetrievalTopK は検索で取得するデフォルトの上位チャンク数
	DefaultRetrievalTopK = 5

	// DefaultContextMaxTokens は検索コンテキストのデフォルト最大トークン数
	DefaultContextMaxTokens = 8000
)

// Retriever はドキュメントに対する類似チャンク検索とコンテキスト組み立てを担当します
// クエリのEmbeddingには検索対象ドキュメントのクラスに対応するEmbedderを使用します
type Retriever struct {
	embedders map[document.Class]ingestion.Embedder
	stores    map[document.Class]vectorstore.Store
	encoder   *tiktoken.Tiktoken
	maxTokens int
	logger    *slog.Logger
}

// RetrieverOption は Retriever のオプション設定
type RetrieverOption func(*Retriever)

// WithContextMaxTokens はコンテキストの最大トークン数を上書きします
func WithContextMaxTokens(n int) RetrieverOption {
	return func(r *Retriever) {
		r.maxTokens = n
	}
}

// WithRetrieverLogger は Retriever にロガーを設定します
func WithRetrieverLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// NewRetriever は新しいRetrieverを作成します
// cl100k_baseエンコーダを使用します（text-embedding-3-small / gpt-4o-mini と互換）
func NewRetriever(
	embedders map[document.Class]ingestion.Embedder,
	stores map[document.Class]vectorstore.Store,
	opts ...RetrieverOption,
) (*Retriever, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoder: %w", err)
	}

	r := &Retriever{
		embedders: embedders,
		stores:    stores,
		encoder:   encoder,
		maxTokens: DefaultContextMaxTokens,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Retrieve はクエリテキストに最も関連するチャンクを検索し、
// 類似度降順（同点はordinal昇順）で半角スペース連結したコンテキストを返します
// 該当チャンクが存在しない場合は空文字列を返します（エラーではない）
func (r *Retriever) Retrieve(ctx context.Context, class document.Class, documentID, queryText string, topK int) (string, error) {
	if !class.Valid() {
		return "", fmt.Errorf("unknown document class: %q", class)
	}
	if topK <= 0 {
		topK = DefaultRetrievalTopK
	}

	embedder := r.embedders[class]
	if embedder == nil {
		return "", fmt.Errorf("embedder for class %q is not configured", class)
	}
	store := r.stores[class]
	if store == nil {
		return "", fmt.Errorf("vector store for class %q is not configured", class)
	}

	queryVector, err := embedder.Embed(ctx, queryText)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := store.QueryForDocument(ctx, queryVector, documentID, topK)
	if err != nil {
		return "", fmt.Errorf("failed to query vector store: %w", err)
	}

	if len(matches) == 0 {
		r.logger.Info("no chunks retrieved for document", "documentID", documentID)
		return "", nil
	}

	// ストア実装に依らず順序の規約を保証する
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Ordinal < matches[j].Ordinal
	})

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Text == "" {
			continue
		}
		texts = append(texts, m.Text)
	}

	joined := r.trimToTokenLimit(strings.Join(texts, " "))

	r.logger.Info("retrieval context assembled",
		"documentID", documentID,
		"chunks", len(texts),
		"contextTokens", len(r.encoder.Encode(joined, nil, nil)),
	)

	return joined, nil
}

// trimToTokenLimit はコンテキストを最大トークン数に収まるよう切り詰めます
func (r *Retriever) trimToTokenLimit(text string) string {
	tokens := r.encoder.Encode(text, nil, nil)
	if len(tokens) <= r.maxTokens {
		return text
	}
	return r.encoder.Decode(tokens[:r.maxTokens])
}
