package match

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	// WriterPromptVersion はレポート生成プロンプトのバージョン
	WriterPromptVersion = "1.0"

	// WriterTemperature はレポート生成ステージの温度設定
	WriterTemperature = 0.0

	// WriterMaxTokens はレポート生成ステージで生成する最大トークン数
	WriterMaxTokens = 1000
)

const writerSystemPrompt = `You are a professional career advisor and report writer. Your task is to transform structured analysis data about a candidate's resume versus a job description into a clear, concise, and human-friendly report.
Maintain a professional and approachable tone.
Do not add new facts; only reframe the information provided.
Ensure the report is easy to read for recruiters and candidates, with actionable recommendations and a clear overall rating.
Return output strictly as a single JSON object.`

// Writer は分析結果を人間可読なレポートに変換するステージです
// 数値スコアから評価バンドへの対応付けはモデルに委ねています
type Writer struct {
	llm LLMClient
}

// NewWriter は新しいWriterを作成します
func NewWriter(llm LLMClient) *Writer {
	return &Writer{llm: llm}
}

// BuildWriterPrompt はレポート生成ステージのユーザープロンプトを構築します
func BuildWriterPrompt(analysis *AnalysisResult) (string, error) {
	data, err := json.Marshal(analysis)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis result: %w", err)
	}

	return fmt.Sprintf(`Using the structured analysis data below, produce a polished, human-readable report.
The report should be easy for both recruiters and candidates to understand.
Include the following sections:

1. A 3-5 sentence summary of the candidate's fit for the role.
2. Actionable recommendations for improving the resume.
3. An overall rating that is exactly one of: "Strong Match", "Moderate Match", "Weak Match".

Analysis Data:
%s

Return a JSON object with the following structure:
{
  "summary": "3-5 sentence summary",
  "recommendations": "actionable suggestions",
  "overall_rating": "Strong Match" | "Moderate Match" | "Weak Match"
}`, string(data)), nil
}

// Run は分析結果からレポートを生成します
// overall_ratingが閉じたバンド集合の外にある出力はErrSchemaValidationになります
func (w *Writer) Run(ctx context.Context, analysis *AnalysisResult) (*Report, error) {
	userPrompt, err := BuildWriterPrompt(analysis)
	if err != nil {
		return nil, err
	}

	raw, err := w.llm.GenerateCompletion(ctx, CompletionRequest{
		Prompt:         fmt.Sprintf("%s\n\n%s", writerSystemPrompt, userPrompt),
		Temperature:    WriterTemperature,
		MaxTokens:      WriterMaxTokens,
		ResponseFormat: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("writer stage failed: %w", err)
	}

	return parseReport(raw)
}
