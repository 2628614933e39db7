package match

import (
	"context"
	"fmt"
)

const (
	// ExtractorPromptVersion は抽出プロンプトのバージョン
	ExtractorPromptVersion = "1.0"

	// ExtractorTemperature は抽出ステージの温度設定（決定的出力のため0）
	ExtractorTemperature = 0.0

	// ExtractorMaxTokens は抽出ステージで生成する最大トークン数
	ExtractorMaxTokens = 1200
)

const extractorSystemPrompt = `You are a precise information extractor that pulls structured data from resumes.
Always extract the candidate's name, skills, experiences, education, certifications, and a brief summary of their background.
Do not add information that is not present in the resume.
If the resume text is empty or contains no usable information, return empty values for every field.
Return output strictly as a single JSON object.`

// Extractor は履歴書テキストから構造化情報を抽出するステージです
type Extractor struct {
	llm LLMClient
}

// NewExtractor は新しいExtractorを作成します
func NewExtractor(llm LLMClient) *Extractor {
	return &Extractor{llm: llm}
}

// BuildExtractorPrompt は抽出ステージのユーザープロンプトを構築します
func BuildExtractorPrompt(resumeText string) string {
	if resumeText == "" {
		resumeText = "(no resume information available)"
	}

	return fmt.Sprintf(`Extract the requested structured information from the resume text below.
Ensure all fields (name, skills, experiences, education, certifications, summary) are filled accurately using only the information in the resume.

Resume text:
%s

Return a JSON object with the following structure:
{
  "name": "candidate name or empty string",
  "skills": ["skill", ...],
  "experiences": ["experience", ...],
  "education": ["education item", ...],
  "certifications": ["certification", ...],
  "summary": "1-2 sentence summary"
}`, resumeText)
}

// Run は履歴書テキストを抽出結果に変換します
// LLM出力がスキーマに適合しない場合はErrSchemaValidationを返します
func (e *Extractor) Run(ctx context.Context, resumeText string) (*ExtractedResume, error) {
	prompt := fmt.Sprintf("%s\n\n%s", extractorSystemPrompt, BuildExtractorPrompt(resumeText))

	raw, err := e.llm.GenerateCompletion(ctx, CompletionRequest{
		Prompt:         prompt,
		Temperature:    ExtractorTemperature,
		MaxTokens:      ExtractorMaxTokens,
		ResponseFormat: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("extractor stage failed: %w", err)
	}

	return parseExtractedResume(raw)
}
