package ingestion

import "context"

// Embedder はテキストをベクトル表現に変換するインターフェース
// ドキュメントクラスごとに独立したインスタンスを使用します
// 実装は失敗時にエラーを返すこと（ゼロベクトルへの縮退は類似度空間を壊すため禁止）
type Embedder interface {
	// Embed は単一テキストのEmbeddingベクトルを生成する
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed は複数テキストのEmbeddingベクトルをまとめて生成する
	// 返却順は入力順と一致する
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension はEmbeddingベクトルの次元数を返す
	Dimension() int
}
