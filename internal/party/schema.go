package party

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS parties (
    -- タクシーパーティーの一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 主催者（ホスト）のユーザーID
    host_id TEXT NOT NULL,
    -- 出発地
    origin TEXT NOT NULL,
    -- 目的地
    destination TEXT NOT NULL,
    -- 出発予定日時
    departure_at DATETIME NOT NULL,
    -- 最大乗車人数
    max_members INTEGER NOT NULL DEFAULT 4,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS party_members (
    -- メンバー行の一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 所属パーティーのID
    party_id TEXT NOT NULL REFERENCES parties(id) ON DELETE CASCADE,
    -- 参加者のユーザーID
    user_id TEXT NOT NULL,
    -- 参加状態（PENDING | ACCEPTED）
    status TEXT NOT NULL DEFAULT 'PENDING',
    -- 参加リクエスト日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    -- パーティーとユーザーの組み合わせは一意
    UNIQUE(party_id, user_id)
);

-- パーティー単位のメンバー検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_party_members_party_id
    ON party_members(party_id);
`

// InitSchema はSQLiteデータベースにパーティー関連テーブルのスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
