package match

import (
	"context"
	"fmt"
	"log/slog"
)

// Chain は抽出 → 分析 → レポート生成の3ステージを固定順で実行します
// ステージ間のファンアウトはなく、各ステージは前段の出力に依存します
type Chain struct {
	extractor *Extractor
	analyzer  *Analyzer
	writer    *Writer
	logger    *slog.Logger
}

// ChainOption は Chain のオプション設定
type ChainOption func(*Chain)

// WithChainLogger は Chain にロガーを設定します
func WithChainLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain は新しいChainを作成します
// 3ステージは同一のLLMクライアントを共有します
func NewChain(llm LLMClient, opts ...ChainOption) *Chain {
	c := &Chain{
		extractor: NewExtractor(llm),
		analyzer:  NewAnalyzer(llm),
		writer:    NewWriter(llm),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run はパイプライン全体を実行します
// storeIntermediateがfalseの場合はReportのみを返します
// storeIntermediateかつstoreAllの場合は抽出結果・分析結果も併せて返します
// （監査・デバッグ用の呼び出しと軽量な本番呼び出しを同一の入口で支えるための非対称です）
func (c *Chain) Run(ctx context.Context, resumeText, jdText string, storeIntermediate, storeAll bool) (*PipelineOutput, error) {
	c.logger.Info("running matching chain",
		"resumeTextLen", len(resumeText),
		"jdTextLen", len(jdText),
		"storeIntermediate", storeIntermediate,
		"storeAll", storeAll,
	)

	extraction, err := c.extractor.Run(ctx, resumeText)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	c.logger.Info("extraction completed",
		"skills", len(extraction.Skills),
		"experiences", len(extraction.Experiences),
	)

	analysis, err := c.analyzer.Run(ctx, extraction, jdText)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	c.logger.Info("analysis completed",
		"matchScore", analysis.MatchScore,
		"matchedSkills", len(analysis.MatchedSkills),
		"missingSkills", len(analysis.MissingSkills),
	)

	report, err := c.writer.Run(ctx, analysis)
	if err != nil {
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	c.logger.Info("report generated", "overallRating", report.OverallRating)

	out := &PipelineOutput{Report: report}
	if storeIntermediate && storeAll {
		out.Extraction = extraction
		out.Analysis = analysis
	}

	return out, nil
}
