package chat

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS chat_rooms (
    -- チャットルームの一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 対応するパーティーのID。パーティーごとに1ルーム
    party_id TEXT NOT NULL UNIQUE,
    -- ルームが閉鎖済みかどうか
    is_closed INTEGER NOT NULL DEFAULT 0,
    -- 最後に投稿されたメッセージの本文（一覧表示用サマリー）
    last_message TEXT,
    -- 最後に投稿されたメッセージの日時
    last_message_at DATETIME,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS chat_messages (
    -- メッセージの一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 所属ルームのID
    room_id TEXT NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
    -- 送信者のユーザーID。システムメッセージでは空文字列
    sender_id TEXT NOT NULL DEFAULT '',
    -- メッセージ種別（TALK | SYSTEM）
    type TEXT NOT NULL DEFAULT 'TALK',
    -- メッセージ本文
    content TEXT NOT NULL,
    -- 投稿日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

-- ルーム単位のメッセージ取得を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_chat_messages_room_id
    ON chat_messages(room_id);
`

// InitSchema はSQLiteデータベースにチャット関連テーブルのスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
