package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/resume-match/cmd/resume-match/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "resume-match",
		Usage: "レジュメと求人票のRAGマッチングパイプライン",
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "ドキュメントをチャンク化してベクトルインデックスへ取り込む",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "取り込むファイル (.pdf / .docx / .txt)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Usage:    "所有者のユーザーID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "ドキュメントID（省略時は自動発行）",
					},
					&cli.StringFlag{
						Name:  "class",
						Usage: "ドキュメントクラス (resume / job_description)",
						Value: "resume",
					},
				},
				Action: commands.IngestAction,
			},
			{
				Name:  "match",
				Usage: "レジュメと求人票のマッチングレポートを生成する",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "レジュメのドキュメントID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Usage:    "所有者のユーザーID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "jd-url",
						Usage: "求人票ページのURL",
					},
					&cli.StringFlag{
						Name:  "jd-file",
						Usage: "求人票ファイル (.pdf / .docx / .txt)",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "検索で取得する上位チャンク数（省略時は設定値）",
					},
					&cli.BoolFlag{
						Name:  "store-intermediate",
						Usage: "中間成果物の保持を有効にする",
					},
					&cli.BoolFlag{
						Name:  "store-all",
						Usage: "抽出結果・分析結果も出力に含める（--store-intermediate と併用）",
					},
				},
				Action: commands.MatchAction,
			},
			{
				Name:  "delete",
				Usage: "ドキュメントのベクトルをインデックスから削除する",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "ドキュメントID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Usage:    "所有者のユーザーID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "class",
						Usage: "ドキュメントクラス (resume / job_description)",
						Value: "resume",
					},
				},
				Action: commands.DeleteAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
