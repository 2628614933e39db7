package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jinford/resume-match/internal/core/document"
	"github.com/jinford/resume-match/internal/core/vectorstore"
)

// MatchRequest はマッチング実行1回分の入力です
type MatchRequest struct {
	// DocumentID は検索対象となるレジュメのドキュメントID
	DocumentID string
	// UserID はレジュメの所有者ID
	UserID string
	// JobDescription は求人票の本文
	JobDescription string
	// Query は検索クエリ。空の場合はJobDescriptionをクエリとして使用します
	Query string
	// TopK は取得する上位チャンク数。0以下の場合はデフォルト値を使用します
	TopK int
	// StoreIntermediate / StoreAll は中間成果物を出力に含めるかどうかを制御します
	StoreIntermediate bool
	StoreAll          bool
}

// Service はレジュメ検索とLLMチェーンを束ねたマッチングサービスです
type Service struct {
	retriever   *Retriever
	chain       *Chain
	resumeStore vectorstore.Store
	logger      *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithServiceLogger は Service にロガーを設定します
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいマッチングサービスを作成します
// resumeStore は所有権チェックに使用するレジュメ用のベクトルストアです
func NewService(retriever *Retriever, chain *Chain, resumeStore vectorstore.Store, opts ...ServiceOption) (*Service, error) {
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if chain == nil {
		return nil, errors.New("chain is required")
	}
	if resumeStore == nil {
		return nil, errors.New("resume vector store is required")
	}

	s := &Service{
		retriever:   retriever,
		chain:       chain,
		resumeStore: resumeStore,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// RetrieveAndMatch は検索クエリに求人票本文を使う標準的なマッチングを実行します
func (s *Service) RetrieveAndMatch(ctx context.Context, documentID, userID, jdText string, storeIntermediate, storeAll bool) (*PipelineOutput, error) {
	return s.Run(ctx, MatchRequest{
		DocumentID:        documentID,
		UserID:            userID,
		JobDescription:    jdText,
		StoreIntermediate: storeIntermediate,
		StoreAll:          storeAll,
	})
}

// Run はレジュメとジョブディスクリプションのマッチングを実行します
// (document, user) に対応するベクトルが存在しない場合はエラーにせず、
// 空の検索コンテキストのままチェーンを実行します
// 存在確認が同一性フィルタで所有者に閉じているため、他ユーザーのドキュメントIDを
// 指定しても本人のレジュメ本文が検索結果に載ることはありません
func (s *Service) Run(ctx context.Context, req MatchRequest) (*PipelineOutput, error) {
	if req.DocumentID == "" {
		return nil, errors.New("document ID is required")
	}
	if req.UserID == "" {
		return nil, errors.New("user ID is required")
	}

	filter, err := vectorstore.NewIdentityFilter(map[string]string{
		vectorstore.MetadataKeyDocumentID: req.DocumentID,
		vectorstore.MetadataKeyUserID:     req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build identity filter: %w", err)
	}

	exists, err := s.resumeStore.Exists(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to check document ownership: %w", err)
	}

	var resumeContext string
	if exists {
		query := req.Query
		if query == "" {
			query = req.JobDescription
		}

		resumeContext, err = s.retriever.Retrieve(ctx, document.ClassResume, req.DocumentID, query, req.TopK)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve resume context: %w", err)
		}
	} else {
		s.logger.Info("no vectors found for document, running with empty context",
			"documentID", req.DocumentID,
			"userID", req.UserID,
		)
	}

	s.logger.Info("starting match pipeline",
		"documentID", req.DocumentID,
		"userID", req.UserID,
		"contextEmpty", resumeContext == "",
	)

	output, err := s.chain.Run(ctx, resumeContext, req.JobDescription, req.StoreIntermediate, req.StoreAll)
	if err != nil {
		return nil, fmt.Errorf("match pipeline failed: %w", err)
	}

	return output, nil
}
