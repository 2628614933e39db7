package vectorstore

import "fmt"

// MetadataKeyDocumentID はベクトルメタデータ内のドキュメントIDキー
const MetadataKeyDocumentID = "document_id"

// MetadataKeyUserID はベクトルメタデータ内の所有ユーザーIDキー
const MetadataKeyUserID = "user_id"

// MetadataKeyText はベクトルメタデータ内のチャンク本文キー
const MetadataKeyText = "text"

// MetadataKeyOrdinal はベクトルメタデータ内のチャンク順序キー
const MetadataKeyOrdinal = "ordinal"

// Record はチャンクのEmbeddingベクトルとメタデータを表します
type Record struct {
	ID         string            // "<documentID>_chunk<ordinal>" 形式（再埋め込みで同一IDになる）
	DocumentID string            // 親ドキュメントID
	UserID     string            // 所有ユーザーID
	Ordinal    int               // 親ドキュメント内でのチャンク順序
	Vector     []float32         // Embeddingベクトル
	Metadata   map[string]string // フラットなメタデータ（document_id / user_id / text を必ず含む）
}

// RecordID は (documentID, ordinal) からベクトルIDを導出します
// ベクトルIDの同一性が冪等なupsertの基盤となります
func RecordID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk%d", documentID, ordinal)
}

// Match はクエリ結果の1件を表します
type Match struct {
	ID         string
	DocumentID string
	UserID     string
	Ordinal    int
	Text       string
	Score      float64 // コサイン類似度（大きいほど類似）
}

// IdentityFilter は存在確認・削除で使用するドキュメント同一性フィルタです
// {document_id, user_id} 以外のキー構成は受け付けません
type IdentityFilter struct {
	DocumentID string
	UserID     string
}

// NewIdentityFilter はメタデータフィルタマップからIdentityFilterを構築します
// キー集合が厳密に {document_id, user_id} でない場合はErrInvalidIdentityFilterを返します
// （キー過不足を許すと別ドキュメント・別ユーザーのベクトルを黙って操作してしまうため）
func NewIdentityFilter(filter map[string]string) (IdentityFilter, error) {
	if len(filter) != 2 {
		return IdentityFilter{}, fmt.Errorf("%w: filter must only contain {%s, %s}, got %d keys",
			ErrInvalidIdentityFilter, MetadataKeyDocumentID, MetadataKeyUserID, len(filter))
	}

	documentID, ok := filter[MetadataKeyDocumentID]
	if !ok {
		return IdentityFilter{}, fmt.Errorf("%w: missing key %q",
			ErrInvalidIdentityFilter, MetadataKeyDocumentID)
	}

	userID, ok := filter[MetadataKeyUserID]
	if !ok {
		return IdentityFilter{}, fmt.Errorf("%w: missing key %q",
			ErrInvalidIdentityFilter, MetadataKeyUserID)
	}

	f := IdentityFilter{DocumentID: documentID, UserID: userID}
	if err := f.Validate(); err != nil {
		return IdentityFilter{}, err
	}

	return f, nil
}

// Validate はフィルタ値が空でないことを確認します
func (f IdentityFilter) Validate() error {
	if f.DocumentID == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidIdentityFilter, MetadataKeyDocumentID)
	}
	if f.UserID == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidIdentityFilter, MetadataKeyUserID)
	}
	return nil
}
