package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jinford/resume-match/internal/config"
	"github.com/jinford/resume-match/internal/core/document"
	"github.com/jinford/resume-match/internal/core/ingestion"
	"github.com/jinford/resume-match/internal/core/match"
	"github.com/jinford/resume-match/internal/core/vectorstore"
	openaiinfra "github.com/jinford/resume-match/internal/infra/openai"
	"github.com/jinford/resume-match/internal/infra/postgres"
	"github.com/jinford/resume-match/internal/infra/webfetch"
	"github.com/jinford/resume-match/internal/platform/db"
	"github.com/jinford/resume-match/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config    *config.Config
	Logger    *slog.Logger
	Database  *db.DB
	Stores    map[document.Class]vectorstore.Store
	Loader    *document.Loader
	Fetcher   *webfetch.Fetcher
	Ingestion *ingestion.Service
	Match     *match.Service
}

// NewAppContext は設定ファイルを読み込み、DBに接続して AppContext を作成する
// ベクトルテーブルのマイグレーションもここで行う（冪等）
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	stores := make(map[document.Class]vectorstore.Store, 2)
	for _, class := range []document.Class{document.ClassResume, document.ClassJobDescription} {
		store, err := postgres.NewStore(database.Pool, class, cfg.OpenAI.EmbeddingDimension)
		if err != nil {
			database.Close()
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		stores[class] = store
	}

	// クラスごとに独立したEmbedderインスタンスを作成する
	embedders := make(map[document.Class]ingestion.Embedder, 2)
	for _, class := range []document.Class{document.ClassResume, document.ClassJobDescription} {
		embedder, err := openaiinfra.NewEmbedder(cfg.OpenAI.APIKey,
			openaiinfra.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			openaiinfra.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
		)
		if err != nil {
			database.Close()
			return nil, err
		}
		embedders[class] = embedder
	}

	chunker, err := ingestion.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		database.Close()
		return nil, err
	}

	ingestionSvc, err := ingestion.NewService(chunker, embedders, stores,
		ingestion.WithLogger(appLogger),
	)
	if err != nil {
		database.Close()
		return nil, err
	}

	llmClient, err := openaiinfra.NewClient(cfg.OpenAI.APIKey,
		openaiinfra.WithModel(cfg.OpenAI.LLMModel),
	)
	if err != nil {
		database.Close()
		return nil, err
	}

	retriever, err := match.NewRetriever(embedders, stores,
		match.WithContextMaxTokens(cfg.Retrieval.ContextMaxTokens),
		match.WithRetrieverLogger(appLogger),
	)
	if err != nil {
		database.Close()
		return nil, err
	}

	chain := match.NewChain(llmClient, match.WithChainLogger(appLogger))

	matchSvc, err := match.NewService(retriever, chain, stores[document.ClassResume],
		match.WithServiceLogger(appLogger),
	)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &AppContext{
		Config:   cfg,
		Logger:   appLogger,
		Database: database,
		Stores:   stores,
		Loader:   document.NewLoader(),
		Fetcher: webfetch.NewFetcher(
			webfetch.WithTimeout(cfg.JDFetch.Timeout),
			webfetch.WithMaxBodyBytes(cfg.JDFetch.MaxBodyBytes),
			webfetch.WithLogger(appLogger),
		),
		Ingestion: ingestionSvc,
		Match:     matchSvc,
	}, nil
}

// MaxUploadBytes は読み込むドキュメントファイルの上限サイズ
const MaxUploadBytes = 16 << 20 // 16MiB

// readDocumentFile はファイルをサイズ上限付きで読み込み、テキストを抽出する
func readDocumentFile(appCtx *AppContext, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("ファイルのオープンに失敗: %w", err)
	}
	defer f.Close()

	data, err := document.ReadAll(f, MaxUploadBytes)
	if err != nil {
		return "", fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}

	text, err := appCtx.Loader.LoadFile(filePath, data)
	if err != nil {
		return "", fmt.Errorf("ドキュメントの解析に失敗: %w", err)
	}
	return text, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Database != nil {
		ac.Database.Close()
	}
}
