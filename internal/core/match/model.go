package match

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaValidation はステージ出力が宣言スキーマに適合しない場合のエラー
	// 空値への黙った変換はスコアの意味を壊すため、当該実行は致命的失敗として扱います
	ErrSchemaValidation = errors.New("stage output failed schema validation")
)

// ExtractedResume は抽出ステージの出力を表します
// 全フィールドは抽出後に必ず存在します（該当情報がない場合は空値）
type ExtractedResume struct {
	Name           string   `json:"name"`
	Skills         []string `json:"skills"`
	Experiences    []string `json:"experiences"`
	Education      []string `json:"education"`
	Certifications []string `json:"certifications"`
	Summary        string   `json:"summary"`
}

// AnalysisResult は分析ステージの出力を表します
type AnalysisResult struct {
	MatchScore    float64  `json:"match_score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
}

// Report は最終レポートを表します
// 生成後は不変として扱います
type Report struct {
	Summary         string `json:"summary"`
	Recommendations string `json:"recommendations"`
	OverallRating   string `json:"overall_rating"`
}

// 総合評価の閉じたバンド集合
const (
	RatingStrongMatch   = "Strong Match"
	RatingModerateMatch = "Moderate Match"
	RatingWeakMatch     = "Weak Match"
)

// ValidRating は評価バンドが閉集合に含まれるかを返します
func ValidRating(rating string) bool {
	switch rating {
	case RatingStrongMatch, RatingModerateMatch, RatingWeakMatch:
		return true
	}
	return false
}

// PipelineOutput はパイプライン全体の実行結果を表します
// ReportはAlways、ExtractionとAnalysisは呼び出しフラグに応じて保持されます
type PipelineOutput struct {
	Extraction *ExtractedResume `json:"extracted,omitempty"`
	Analysis   *AnalysisResult  `json:"analysis,omitempty"`
	Report     *Report          `json:"written"`
}

// cleanJSON はLLM出力からMarkdownコードフェンスを除去します
func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

// parseExtractedResume はLLM出力をExtractedResumeとして厳密に解析します
func parseExtractedResume(raw string) (*ExtractedResume, error) {
	var out ExtractedResume
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	// 欠落したリストは空リストとして存在を保証する
	out.Skills = ensureList(out.Skills)
	out.Experiences = ensureList(out.Experiences)
	out.Education = ensureList(out.Education)
	out.Certifications = ensureList(out.Certifications)

	return &out, nil
}

// parseAnalysisResult はLLM出力をAnalysisResultとして厳密に解析します
// match_scoreが[0,1]の範囲外の場合はスキーマ違反です
func parseAnalysisResult(raw string) (*AnalysisResult, error) {
	var out AnalysisResult
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	if out.MatchScore < 0 || out.MatchScore > 1 {
		return nil, fmt.Errorf("%w: match_score %v is outside [0, 1]", ErrSchemaValidation, out.MatchScore)
	}

	out.MatchedSkills = ensureList(out.MatchedSkills)
	out.MissingSkills = ensureList(out.MissingSkills)
	out.Strengths = ensureList(out.Strengths)
	out.Weaknesses = ensureList(out.Weaknesses)

	return &out, nil
}

// parseReport はLLM出力をReportとして厳密に解析します
// overall_ratingが閉じたバンド集合に含まれない場合はスキーマ違反です
func parseReport(raw string) (*Report, error) {
	var out Report
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	if out.Summary == "" {
		return nil, fmt.Errorf("%w: summary must not be empty", ErrSchemaValidation)
	}
	if out.Recommendations == "" {
		return nil, fmt.Errorf("%w: recommendations must not be empty", ErrSchemaValidation)
	}
	if !ValidRating(out.OverallRating) {
		return nil, fmt.Errorf("%w: unknown overall_rating %q", ErrSchemaValidation, out.OverallRating)
	}

	return &out, nil
}

func ensureList(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
