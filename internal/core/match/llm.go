package match

import "context"

// CompletionRequest はLLMへのリクエストパラメータ
type CompletionRequest struct {
	// Prompt はLLMに送信するプロンプト
	Prompt string

	// Temperature は生成の多様性を制御する (0.0-2.0)
	Temperature float64

	// MaxTokens は生成する最大トークン数
	MaxTokens int

	// ResponseFormat はレスポンスの形式 ("json" or "text")
	ResponseFormat string
}

// LLMClient はLLMサービスとのやり取りを抽象化するインターフェース
// 失敗はエラーとして伝播させること（チェーン内でのフォールバック生成は行わない）
type LLMClient interface {
	// GenerateCompletion はプロンプトに基づいてLLMから応答を生成する
	GenerateCompletion(ctx context.Context, req CompletionRequest) (string, error)
}
