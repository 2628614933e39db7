package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/jinford/resume-match/internal/core/document"
)

// IngestAction はドキュメントファイルをベクトルインデックスへ取り込むコマンドのアクション
// --id を省略した場合は新しいドキュメントIDを発行します
func IngestAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	filePath := cmd.String("file")
	userID := cmd.String("user")
	documentID := cmd.String("id")
	class := document.Class(cmd.String("class"))

	if !class.Valid() {
		return fmt.Errorf("不明なドキュメントクラス: %q (resume または job_description)", class)
	}
	if documentID == "" {
		documentID = uuid.NewString()
	}

	slog.Info("取り込みを開始", "file", filePath, "class", class, "documentID", documentID, "userID", userID)

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	text, err := readDocumentFile(appCtx, filePath)
	if err != nil {
		return err
	}

	doc := document.Document{
		ID:      documentID,
		OwnerID: userID,
		Class:   class,
		RawText: text,
	}
	if err := appCtx.Ingestion.IngestDocument(ctx, doc); err != nil {
		return fmt.Errorf("取り込みに失敗: %w", err)
	}

	slog.Info("取り込みが完了", "documentID", documentID)
	fmt.Println(documentID)

	return nil
}
