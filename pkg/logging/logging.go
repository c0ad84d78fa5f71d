// Package logging はtintを使った色付き構造化ログの設定を提供する。
//
// 環境変数:
//
//	LOG_LEVEL: debug, info, warn, error (デフォルト: info)
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup はLOG_LEVEL環境変数で指定されたレベルで色付きログを設定する。
func Setup() {
	SetupWithLevel(levelFromEnv())
}

// SetupWithLevel は指定されたレベルで色付きログを設定する。
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))
}

// levelFromEnv はLOG_LEVEL環境変数からログレベルを取得する。
func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
