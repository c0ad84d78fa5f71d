// Package config はサーバーの設定を環境変数から読み込む。
// .envファイルが存在する場合はgodotenvで読み込む（存在しなくてもエラーにしない）。
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config はサーバーの設定値を保持する。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string
	// JWTSecret はJWT署名用の秘密鍵。
	JWTSecret string
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	// .envが存在する場合のみ読み込む
	_ = godotenv.Load()

	return &Config{
		Port:        getEnvOr("PORT", "8080"),
		DBPath:      getEnvOr("DB_PATH", "./data/taxipot.db"),
		JWTSecret:   getEnvOr("JWT_SECRET", "dev-secret-key"),
		FrontendURL: getEnvOr("FRONTEND_URL", "http://localhost:3000"),
	}
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
