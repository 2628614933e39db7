package match

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageLLM はプロンプト内容からステージを判別して定型応答を返すテスト用クライアント
type stageLLM struct {
	extractResponse string
	analyzeResponse string
	writeResponse   string
	prompts         []string
}

func (f *stageLLM) GenerateCompletion(_ context.Context, req CompletionRequest) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)

	switch {
	case strings.Contains(req.Prompt, "information extractor"):
		return f.extractResponse, nil
	case strings.Contains(req.Prompt, "career evaluator"):
		return f.analyzeResponse, nil
	case strings.Contains(req.Prompt, "report writer"):
		return f.writeResponse, nil
	}
	return "", errors.New("unexpected prompt")
}

func newStageLLM() *stageLLM {
	return &stageLLM{
		extractResponse: `{
			"name": "Hanako Sato",
			"skills": ["Python", "SQL", "Docker"],
			"experiences": ["Data engineer at Example Corp for 3 years"],
			"education": ["M.S. Information Science"],
			"certifications": ["AWS SAA"],
			"summary": "Data engineer with pipeline and warehouse experience."
		}`,
		analyzeResponse: `{
			"match_score": 0.72,
			"matched_skills": ["Python", "SQL"],
			"missing_skills": ["Kubernetes"],
			"strengths": ["Solid data pipeline experience"],
			"weaknesses": ["No container orchestration experience"]
		}`,
		writeResponse: `{
			"summary": "Hanako is a solid fit for the data engineering role with strong Python and SQL skills.",
			"recommendations": "Gain hands-on Kubernetes experience and surface it on the resume.",
			"overall_rating": "Moderate Match"
		}`,
	}
}

func TestChainRunProducesReport(t *testing.T) {
	llm := newStageLLM()
	chain := NewChain(llm)

	out, err := chain.Run(context.Background(), "Python data engineer resume text", "Data engineer JD requiring Python, SQL, Kubernetes", false, false)
	require.NoError(t, err)

	require.NotNil(t, out.Report)
	assert.Equal(t, RatingModerateMatch, out.Report.OverallRating)
	assert.NotEmpty(t, out.Report.Summary)
	assert.NotEmpty(t, out.Report.Recommendations)

	// 3ステージが固定順で1回ずつ呼ばれている
	require.Len(t, llm.prompts, 3)
	assert.Contains(t, llm.prompts[0], "information extractor")
	assert.Contains(t, llm.prompts[1], "career evaluator")
	assert.Contains(t, llm.prompts[2], "report writer")
}

func TestChainRunIntermediateOutputFlags(t *testing.T) {
	tests := []struct {
		name              string
		storeIntermediate bool
		storeAll          bool
		wantIntermediate  bool
	}{
		{name: "両フラグfalseはReportのみ", storeIntermediate: false, storeAll: false, wantIntermediate: false},
		{name: "storeIntermediateのみではReportのみ", storeIntermediate: true, storeAll: false, wantIntermediate: false},
		{name: "storeAllのみではReportのみ", storeIntermediate: false, storeAll: true, wantIntermediate: false},
		{name: "両フラグtrueで中間成果物も返す", storeIntermediate: true, storeAll: true, wantIntermediate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewChain(newStageLLM())

			out, err := chain.Run(context.Background(), "resume", "jd", tt.storeIntermediate, tt.storeAll)
			require.NoError(t, err)
			require.NotNil(t, out.Report)

			if tt.wantIntermediate {
				require.NotNil(t, out.Extraction)
				require.NotNil(t, out.Analysis)
				assert.Equal(t, "Hanako Sato", out.Extraction.Name)
				assert.InDelta(t, 0.72, out.Analysis.MatchScore, 1e-9)
			} else {
				assert.Nil(t, out.Extraction)
				assert.Nil(t, out.Analysis)
			}
		})
	}
}

func TestChainRunEmptyResumeContext(t *testing.T) {
	// 検索結果が空でもチェーンは実行され、プレースホルダがプロンプトに入る
	llm := newStageLLM()
	llm.extractResponse = `{"name": "", "skills": [], "experiences": [], "education": [], "certifications": [], "summary": ""}`
	llm.analyzeResponse = `{"match_score": 0.0, "matched_skills": [], "missing_skills": ["Python"], "strengths": [], "weaknesses": ["No resume information"]}`
	llm.writeResponse = `{"summary": "No resume information was available to evaluate.", "recommendations": "Provide a resume.", "overall_rating": "Weak Match"}`

	chain := NewChain(llm)
	out, err := chain.Run(context.Background(), "", "Python developer JD", true, true)
	require.NoError(t, err)

	assert.Contains(t, llm.prompts[0], "(no resume information available)")
	assert.Equal(t, RatingWeakMatch, out.Report.OverallRating)
	assert.Empty(t, out.Extraction.Skills)
}

func TestChainRunSchemaViolationFailsRun(t *testing.T) {
	t.Run("抽出ステージの不正出力", func(t *testing.T) {
		llm := newStageLLM()
		llm.extractResponse = "I could not extract anything."

		_, err := NewChain(llm).Run(context.Background(), "resume", "jd", false, false)
		assert.ErrorIs(t, err, ErrSchemaValidation)
	})

	t.Run("分析ステージの範囲外スコア", func(t *testing.T) {
		llm := newStageLLM()
		llm.analyzeResponse = `{"match_score": 72, "matched_skills": [], "missing_skills": [], "strengths": [], "weaknesses": []}`

		_, err := NewChain(llm).Run(context.Background(), "resume", "jd", false, false)
		assert.ErrorIs(t, err, ErrSchemaValidation)
	})

	t.Run("レポートステージの未知の評価バンド", func(t *testing.T) {
		llm := newStageLLM()
		llm.writeResponse = `{"summary": "s", "recommendations": "r", "overall_rating": "Great Match"}`

		_, err := NewChain(llm).Run(context.Background(), "resume", "jd", false, false)
		assert.ErrorIs(t, err, ErrSchemaValidation)
	})
}

func TestChainRunCodeFencedResponses(t *testing.T) {
	llm := newStageLLM()
	llm.writeResponse = "```json\n" + llm.writeResponse + "\n```"

	out, err := NewChain(llm).Run(context.Background(), "resume", "jd", false, false)
	require.NoError(t, err)
	assert.Equal(t, RatingModerateMatch, out.Report.OverallRating)
}

type failingLLM struct{}

func (failingLLM) GenerateCompletion(context.Context, CompletionRequest) (string, error) {
	return "", errors.New("service unavailable")
}

func TestChainRunLLMErrorPropagates(t *testing.T) {
	_, err := NewChain(failingLLM{}).Run(context.Background(), "resume", "jd", false, false)
	require.Error(t, err)
	assert.ErrorContains(t, err, "extraction failed")
	assert.ErrorContains(t, err, "service unavailable")
}
