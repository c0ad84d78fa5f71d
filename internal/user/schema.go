package user

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    -- ユーザーの一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- ログイン用メールアドレス（学内メール）
    email TEXT NOT NULL UNIQUE,
    -- アプリ内の表示名
    nickname TEXT NOT NULL,
    -- bcryptでハッシュ化したパスワード
    password_hash TEXT NOT NULL,
    -- アカウント作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// InitSchema はSQLiteデータベースにユーザーテーブルのスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
