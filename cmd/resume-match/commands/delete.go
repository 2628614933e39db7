package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/jinford/resume-match/internal/core/document"
)

// DeleteAction はドキュメントのベクトルをインデックスから削除するコマンドのアクション
func DeleteAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	documentID := cmd.String("id")
	userID := cmd.String("user")
	class := document.Class(cmd.String("class"))

	if !class.Valid() {
		return fmt.Errorf("不明なドキュメントクラス: %q (resume または job_description)", class)
	}

	slog.Info("ベクトル削除を開始", "documentID", documentID, "userID", userID, "class", class)

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Ingestion.DeleteDocumentVectors(ctx, documentID, userID, class); err != nil {
		return fmt.Errorf("ベクトル削除に失敗: %w", err)
	}

	slog.Info("ベクトル削除が完了", "documentID", documentID)
	return nil
}
