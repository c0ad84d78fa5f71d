// タクシーポットサーバーのエントリポイント。
// 相乗りパーティーの募集・参加、精算ライフサイクル、SSEによる
// リアルタイム通知配信を単一プロセスで提供する。
package main

import (
	"log/slog"
	"os"

	"github.com/taxipot/server/internal/app"
	"github.com/taxipot/server/internal/config"
	"github.com/taxipot/server/pkg/logging"
)

func main() {
	logging.Setup()

	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("サーバーの初期化に失敗", "error", err)
		os.Exit(1)
	}

	slog.Info("タクシーポットサーバーを起動します", "port", cfg.Port)
	if err := a.Run(); err != nil {
		slog.Error("サーバーの起動に失敗", "error", err)
		os.Exit(1)
	}
}
