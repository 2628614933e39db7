package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrInvalidIdentityFilter は同一性フィルタのキー構成が不正な場合のエラー
	// 設定・実装の欠陥を示すため、リトライせず即座に失敗させます
	ErrInvalidIdentityFilter = errors.New("identity filter must contain exactly {document_id, user_id}")

	// ErrEmptyBatch は空のレコードバッチをupsertしようとした場合のエラー
	ErrEmptyBatch = errors.New("record batch is empty")

	// ErrMixedBatch は複数ドキュメントのレコードが混在したバッチのエラー
	// 1回のupsertは単一の (document, user) に属するベクトルのみを受け付けます
	ErrMixedBatch = errors.New("record batch must belong to a single (document, user) pair")
)

// Store はドキュメントクラス単位のベクトルインデックスを表すインターフェース
// 実装はコンストラクタで注入され、クラスごとに独立したインスタンスが共存できます
type Store interface {
	// Exists は同一性フィルタに一致するベクトルが既に存在するかを返す
	// top_k=1相当の存在確認であり、ベクトル値は取得しない
	Exists(ctx context.Context, filter IdentityFilter) (bool, error)

	// Upsert はレコードバッチを保存する
	// バッチ先頭の (document, user) でExistsを確認し、既存なら書き込み全体をスキップする
	// （同一ドキュメント再投入時の重複ベクトルを防ぐat-most-once方針）
	Upsert(ctx context.Context, records []Record) error

	// Delete は同一性フィルタに一致するベクトルをすべて削除する
	Delete(ctx context.Context, filter IdentityFilter) error

	// Query はユーザー所有のベクトルに限定して近傍topK件を返す
	Query(ctx context.Context, vector []float32, userID string, topK int) ([]Match, error)

	// QueryForDocument はドキュメント単位に限定して近傍topK件を返す
	// マッチング時の検索で使用する
	QueryForDocument(ctx context.Context, vector []float32, documentID string, topK int) ([]Match, error)
}

// ValidateBatch はupsert対象バッチの前提条件を検証します
// 空バッチ、(document, user) の混在、メタデータの同一性キー欠落を検出します
func ValidateBatch(records []Record) (IdentityFilter, error) {
	if len(records) == 0 {
		return IdentityFilter{}, ErrEmptyBatch
	}

	first := records[0]
	filter := IdentityFilter{DocumentID: first.DocumentID, UserID: first.UserID}
	if err := filter.Validate(); err != nil {
		return IdentityFilter{}, err
	}

	for _, rec := range records {
		if rec.DocumentID != filter.DocumentID || rec.UserID != filter.UserID {
			return IdentityFilter{}, ErrMixedBatch
		}
	}

	return filter, nil
}
