package document

import (
	"context"
	"errors"
	"net/url"
)

// FallbackJobDescription は求人票の取得に失敗した場合のプレースホルダ本文
// 取得失敗はマッチング全体を中断せず、この固定文で処理を継続します
// （フォールバックが許されるのは求人票取得ステップのみ）
const FallbackJobDescription = "job description unavailable"

// ErrInvalidURL は求人票URLが不正な場合のエラー
var ErrInvalidURL = errors.New("invalid job description URL")

// JobDescriptionFetcher は求人票URLからプレーンテキストを取得するインターフェース
// 実装は取得失敗時にFallbackJobDescriptionへ縮退し、空文字列を返してはいけません
type JobDescriptionFetcher interface {
	FetchJobDescription(ctx context.Context, rawURL string) (string, error)
}

// ValidateJobURL は求人票URLの形式を検証します
// http/https スキームとホスト名の存在のみを要求します
func ValidateJobURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
