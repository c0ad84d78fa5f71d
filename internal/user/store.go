package user

import (
	"context"
	"database/sql"

	userdb "github.com/taxipot/server/internal/user/db"
)

// Store はユーザーディレクトリ。
// 受信者解決や表示名の取得のために他パッケージから参照される。
type Store struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *userdb.Queries
}

// NewStore は新しいユーザーディレクトリを生成する。
func NewStore(sqlDB *sql.DB) *Store {
	return &Store{queries: userdb.New(sqlDB)}
}

// GetByID は指定されたIDのユーザーを取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (s *Store) GetByID(ctx context.Context, id string) (userdb.User, error) {
	return s.queries.GetUserByID(ctx, id)
}
