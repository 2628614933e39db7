package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/resume-match/internal/core/match"
)

// MatchAction はレジュメと求人票のマッチングを実行するコマンドのアクション
// 求人票は --jd-url または --jd-file のどちらかで与えます
// URL取得に失敗した場合は固定のプレースホルダ本文で処理を継続します
func MatchAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	documentID := cmd.String("id")
	userID := cmd.String("user")
	jdURL := cmd.String("jd-url")
	jdFile := cmd.String("jd-file")

	if (jdURL == "") == (jdFile == "") {
		return fmt.Errorf("--jd-url と --jd-file はどちらか一方を指定してください")
	}

	slog.Info("マッチングを開始", "documentID", documentID, "userID", userID)

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	jdText, err := loadJobDescription(ctx, appCtx, jdURL, jdFile)
	if err != nil {
		return err
	}

	topK := int(cmd.Int("top-k"))
	if topK <= 0 {
		topK = appCtx.Config.Retrieval.TopK
	}

	output, err := appCtx.Match.Run(ctx, match.MatchRequest{
		DocumentID:        documentID,
		UserID:            userID,
		JobDescription:    jdText,
		TopK:              topK,
		StoreIntermediate: cmd.Bool("store-intermediate"),
		StoreAll:          cmd.Bool("store-all"),
	})
	if err != nil {
		return fmt.Errorf("マッチングに失敗: %w", err)
	}

	// レポートは標準出力へJSONとして書き出す（ログは標準エラー）
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("結果の出力に失敗: %w", err)
	}

	slog.Info("マッチングが完了", "overallRating", output.Report.OverallRating)
	return nil
}

func loadJobDescription(ctx context.Context, appCtx *AppContext, jdURL, jdFile string) (string, error) {
	if jdURL != "" {
		text, err := appCtx.Fetcher.FetchJobDescription(ctx, jdURL)
		if err != nil {
			return "", fmt.Errorf("求人票URLが不正: %w", err)
		}
		return text, nil
	}

	return readDocumentFile(appCtx, jdFile)
}
