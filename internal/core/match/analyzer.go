package match

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	// AnalyzerPromptVersion は分析プロンプトのバージョン
	AnalyzerPromptVersion = "1.0"

	// AnalyzerTemperature は分析ステージの温度設定
	AnalyzerTemperature = 0.0

	// AnalyzerMaxTokens は分析ステージで生成する最大トークン数
	AnalyzerMaxTokens = 1200
)

const analyzerSystemPrompt = `You are an expert career evaluator. Your task is to compare a candidate's extracted resume data with a job description and provide a structured analysis.
Use only information explicitly present in the resume data and the job description. Do not invent or infer details.
matched_skills must only contain skills present in both the resume data and the job description.
missing_skills must only contain skills implied by the job description that are absent from the resume data.
Return output strictly as a single JSON object.`

// Analyzer は抽出結果と求人票を比較して構造化分析を行うステージです
type Analyzer struct {
	llm LLMClient
}

// NewAnalyzer は新しいAnalyzerを作成します
func NewAnalyzer(llm LLMClient) *Analyzer {
	return &Analyzer{llm: llm}
}

// BuildAnalyzerPrompt は分析ステージのユーザープロンプトを構築します
func BuildAnalyzerPrompt(extracted *ExtractedResume, jdText string) (string, error) {
	resumeInfo, err := json.Marshal(extracted)
	if err != nil {
		return "", fmt.Errorf("failed to encode extracted resume: %w", err)
	}

	return fmt.Sprintf(`Compare the candidate's extracted resume information with the job description.
Provide a structured analysis including: match_score, matched_skills, missing_skills, strengths, and weaknesses.
Only use information present in the provided data; do not infer new details.
match_score must be a number in the closed interval [0, 1].

Candidate Resume (extracted_info):
%s

Job Description:
%s

Return a JSON object with the following structure:
{
  "match_score": 0.0,
  "matched_skills": ["skill", ...],
  "missing_skills": ["skill", ...],
  "strengths": ["strength", ...],
  "weaknesses": ["weakness", ...]
}`, string(resumeInfo), jdText), nil
}

// Run は抽出結果と求人票から分析結果を生成します
// match_scoreが[0,1]の範囲外の出力はErrSchemaValidationになります
func (a *Analyzer) Run(ctx context.Context, extracted *ExtractedResume, jdText string) (*AnalysisResult, error) {
	userPrompt, err := BuildAnalyzerPrompt(extracted, jdText)
	if err != nil {
		return nil, err
	}

	raw, err := a.llm.GenerateCompletion(ctx, CompletionRequest{
		Prompt:         fmt.Sprintf("%s\n\n%s", analyzerSystemPrompt, userPrompt),
		Temperature:    AnalyzerTemperature,
		MaxTokens:      AnalyzerMaxTokens,
		ResponseFormat: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer stage failed: %w", err)
	}

	return parseAnalysisResult(raw)
}
