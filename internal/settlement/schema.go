package settlement

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS settlements (
    -- 精算の一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 対応するパーティーのID。パーティーごとに精算は1件
    party_id TEXT NOT NULL UNIQUE,
    -- 立て替えたホストのユーザーID
    host_id TEXT NOT NULL,
    -- 運賃の総額（ウォン）
    total_fare INTEGER NOT NULL,
    -- 振込先の銀行名
    bank_name TEXT NOT NULL,
    -- 振込先の口座番号
    account_number TEXT NOT NULL,
    -- 精算の状態（IN_PROGRESS | COMPLETED）
    status TEXT NOT NULL DEFAULT 'IN_PROGRESS',
    -- 最後に催促した日時。未催促の間はNULL
    last_reminded_at DATETIME,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS settlement_participants (
    -- 参加者行の一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 所属する精算のID。精算削除時に一緒に削除される
    settlement_id TEXT NOT NULL REFERENCES settlements(id) ON DELETE CASCADE,
    -- 支払うユーザーのID
    user_id TEXT NOT NULL,
    -- 支払額（ウォン）
    amount INTEGER NOT NULL,
    -- 支払済みかどうか。一度trueになったら戻らない
    is_paid INTEGER NOT NULL DEFAULT 0,
    -- 支払済みにした日時。未払いの間はNULL
    paid_at DATETIME,
    -- ホスト自身の行かどうか。ホスト行は作成時点で支払済み
    is_host INTEGER NOT NULL DEFAULT 0,
    -- 精算とユーザーの組み合わせは一意
    UNIQUE(settlement_id, user_id)
);

-- 精算単位の参加者取得を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_settlement_participants_settlement_id
    ON settlement_participants(settlement_id);
`

// InitSchema はSQLiteデータベースに精算関連テーブルのスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
