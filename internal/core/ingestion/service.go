package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jinford/resume-match/internal/core/document"
	"github.com/jinford/resume-match/internal/core/vectorstore"
)

// EmbedBatchSize はEmbedding APIへ一度に送るチャンク数の上限
const EmbedBatchSize = 100

// Service はドキュメントの取り込み（分割 → Embedding → ベクトル保存）を担当します
// ドキュメントクラスごとのEmbedderとStoreをコンストラクタで受け取ります
type Service struct {
	chunker   *Chunker
	embedders map[document.Class]Embedder
	stores    map[document.Class]vectorstore.Store
	logger    *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithLogger は Service にロガーを設定します
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しい取り込みサービスを作成します
// 両ドキュメントクラスのEmbedderとStoreが揃っていない場合はエラーを返します
func NewService(
	chunker *Chunker,
	embedders map[document.Class]Embedder,
	stores map[document.Class]vectorstore.Store,
	opts ...ServiceOption,
) (*Service, error) {
	for _, class := range []document.Class{document.ClassResume, document.ClassJobDescription} {
		if embedders[class] == nil {
			return nil, fmt.Errorf("embedder for class %q is required", class)
		}
		if stores[class] == nil {
			return nil, fmt.Errorf("vector store for class %q is required", class)
		}
	}

	svc := &Service{
		chunker:   chunker,
		embedders: embedders,
		stores:    stores,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Ingest はドキュメント本文をチャンク化し、Embeddingを生成してベクトルインデックスへ保存します
// 同じ (documentID, userID, text) での再実行は保存済みベクトルをそのまま維持します（冪等）
func (s *Service) Ingest(ctx context.Context, text string, class document.Class, documentID, userID string) error {
	if !class.Valid() {
		return fmt.Errorf("unknown document class: %q", class)
	}
	if documentID == "" || userID == "" {
		return fmt.Errorf("documentID and userID are required")
	}

	chunks := s.chunker.Split(documentID, text)
	if len(chunks) == 0 {
		s.logger.Info("document is empty, nothing to ingest",
			"documentID", documentID,
			"class", string(class),
		)
		return nil
	}

	s.logger.Info("ingesting document",
		"documentID", documentID,
		"class", string(class),
		"chunks", len(chunks),
	)

	embedder := s.embedders[class]

	records := make([]vectorstore.Record, 0, len(chunks))
	for start := 0; start < len(chunks); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := embedder.BatchEmbed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		for i, c := range batch {
			records = append(records, vectorstore.Record{
				ID:         vectorstore.RecordID(documentID, c.Ordinal),
				DocumentID: documentID,
				UserID:     userID,
				Ordinal:    c.Ordinal,
				Vector:     vectors[i],
				Metadata: map[string]string{
					vectorstore.MetadataKeyDocumentID: documentID,
					vectorstore.MetadataKeyUserID:     userID,
					vectorstore.MetadataKeyText:       c.Text,
					vectorstore.MetadataKeyOrdinal:    strconv.Itoa(c.Ordinal),
				},
			})
		}
	}

	if err := s.stores[class].Upsert(ctx, records); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	s.logger.Info("document ingested",
		"documentID", documentID,
		"class", string(class),
		"vectors", len(records),
	)

	return nil
}

// IngestDocument は document.Document を取り込みます
// Ingest の薄いラッパーで、呼び出し元がドキュメントを値として扱う場合に使います
func (s *Service) IngestDocument(ctx context.Context, doc document.Document) error {
	return s.Ingest(ctx, doc.RawText, doc.Class, doc.ID, doc.OwnerID)
}

// DeleteDocumentVectors はドキュメントのベクトルをすべて削除します
// フィルタは {document_id, user_id} の同一性キーに限定されます
func (s *Service) DeleteDocumentVectors(ctx context.Context, documentID, userID string, class document.Class) error {
	if !class.Valid() {
		return fmt.Errorf("unknown document class: %q", class)
	}

	filter, err := vectorstore.NewIdentityFilter(map[string]string{
		vectorstore.MetadataKeyDocumentID: documentID,
		vectorstore.MetadataKeyUserID:     userID,
	})
	if err != nil {
		return err
	}

	if err := s.stores[class].Delete(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}

	s.logger.Info("document vectors deleted",
		"documentID", documentID,
		"class", string(class),
	)

	return nil
}
