package party

import (
	"context"
	"database/sql"

	partydb "github.com/taxipot/server/internal/party/db"
)

// Store はパーティーのディレクトリ。
// ホスト権限チェックのために他パッケージから参照される。
type Store struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *partydb.Queries
}

// NewStore は新しいパーティーディレクトリを生成する。
func NewStore(sqlDB *sql.DB) *Store {
	return &Store{queries: partydb.New(sqlDB)}
}

// GetByID は指定されたIDのパーティーを取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (s *Store) GetByID(ctx context.Context, id string) (partydb.Party, error) {
	return s.queries.GetPartyByID(ctx, id)
}

// IsMember はユーザーがパーティーのホストまたは承認済みメンバーかどうかを返す。
// パーティーが存在しない場合はfalseを返す（エラーにしない）。
func (s *Store) IsMember(ctx context.Context, partyID, userID string) (bool, error) {
	p, err := s.queries.GetPartyByID(ctx, partyID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if p.HostID == userID {
		return true, nil
	}

	m, err := s.queries.GetPartyMember(ctx, partydb.GetPartyMemberParams{
		PartyID: partyID,
		UserID:  userID,
	})
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Status == MemberStatusAccepted, nil
}
