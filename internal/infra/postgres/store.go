package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/resume-match/internal/core/document"
	"github.com/jinford/resume-match/internal/core/vectorstore"
)

// DefaultVectorDimension はテーブル定義に使用するデフォルトのベクトル次元
const DefaultVectorDimension = 1536

// Store は vectorstore.Store を実装する PostgreSQL (pgvector) リポジトリです
// ドキュメントクラスごとに専用テーブルを持ち、インスタンスも1クラスにつき1つ作成します
type Store struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
}

// NewStore は指定クラス用の新しい Store を作成します
func NewStore(pool *pgxpool.Pool, class document.Class, dimension int) (*Store, error) {
	table, err := tableForClass(class)
	if err != nil {
		return nil, err
	}
	if dimension <= 0 {
		dimension = DefaultVectorDimension
	}

	return &Store{
		pool:      pool,
		table:     table,
		dimension: dimension,
	}, nil
}

// tableForClass はクラスに対応するテーブル名を返します
// テーブル名はSQLに直接埋め込むため、既知のクラス以外は受け付けません
func tableForClass(class document.Class) (string, error) {
	switch class {
	case document.ClassResume:
		return "resume_vectors", nil
	case document.ClassJobDescription:
		return "job_description_vectors", nil
	}
	return "", fmt.Errorf("unknown document class: %q", class)
}

// Migrate はテーブルとインデックスを作成します（冪等）
func (s *Store) Migrate(ctx context.Context) error {
	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_identity ON %s (document_id, user_id)`, s.table, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s USING hnsw (embedding vector_cosine_ops)`, s.table, s.table),
	}

	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate table %s: %w", s.table, err)
		}
	}
	return nil
}

// Exists は同一性フィルタに一致するベクトルが存在するかを返します
func (s *Store) Exists(ctx context.Context, filter vectorstore.IdentityFilter) (bool, error) {
	if err := filter.Validate(); err != nil {
		return false, err
	}

	query := fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE document_id = $1 AND user_id = $2)`,
		s.table,
	)

	var exists bool
	if err := s.pool.QueryRow(ctx, query, filter.DocumentID, filter.UserID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check vector existence: %w", err)
	}
	return exists, nil
}

// Upsert はレコードバッチを保存します
// バッチの (document, user) に既存ベクトルがある場合は書き込み全体をスキップし、
// 確認と書き込みの競合は主キーの ON CONFLICT DO NOTHING で吸収します
func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	filter, err := vectorstore.ValidateBatch(records)
	if err != nil {
		return err
	}

	exists, err := s.Exists(ctx, filter)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s (id, document_id, user_id, ordinal, content, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		s.table,
	)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insert,
			rec.ID,
			rec.DocumentID,
			rec.UserID,
			rec.Ordinal,
			rec.Metadata[vectorstore.MetadataKeyText],
			pgvector.NewVector(rec.Vector),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert vectors: %w", err)
		}
	}
	return nil
}

// Delete は同一性フィルタに一致するベクトルをすべて削除します
func (s *Store) Delete(ctx context.Context, filter vectorstore.IdentityFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 AND user_id = $2`, s.table)
	if _, err := s.pool.Exec(ctx, query, filter.DocumentID, filter.UserID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

// Query はユーザー所有のベクトルに限定して近傍topK件を返します
func (s *Store) Query(ctx context.Context, vector []float32, userID string, topK int) ([]vectorstore.Match, error) {
	query := fmt.Sprintf(
		`SELECT id, document_id, user_id, ordinal, content, 1 - (embedding <=> $1) AS score
		 FROM %s
		 WHERE user_id = $2
		 ORDER BY embedding <=> $1, ordinal
		 LIMIT $3`,
		s.table,
	)
	return s.queryMatches(ctx, query, pgvector.NewVector(vector), userID, topK)
}

// QueryForDocument はドキュメント単位に限定して近傍topK件を返します
func (s *Store) QueryForDocument(ctx context.Context, vector []float32, documentID string, topK int) ([]vectorstore.Match, error) {
	query := fmt.Sprintf(
		`SELECT id, document_id, user_id, ordinal, content, 1 - (embedding <=> $1) AS score
		 FROM %s
		 WHERE document_id = $2
		 ORDER BY embedding <=> $1, ordinal
		 LIMIT $3`,
		s.table,
	)
	return s.queryMatches(ctx, query, pgvector.NewVector(vector), documentID, topK)
}

func (s *Store) queryMatches(ctx context.Context, query string, args ...any) ([]vectorstore.Match, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	defer rows.Close()

	var matches []vectorstore.Match
	for rows.Next() {
		var m vectorstore.Match
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.UserID, &m.Ordinal, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	return matches, nil
}

// インターフェース実装の確認
var _ vectorstore.Store = (*Store)(nil)
