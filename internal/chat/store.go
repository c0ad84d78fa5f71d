package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	chatdb "github.com/taxipot/server/internal/chat/db"
)

// MessageTypeSystem はシステムメッセージのメッセージ種別。
const MessageTypeSystem = "SYSTEM"

// Store はチャットルームのディレクトリ。
// ルームの作成・検索とシステムメッセージの追記を提供する。
type Store struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *chatdb.Queries
}

// NewStore は新しいチャットストアを生成する。
func NewStore(sqlDB *sql.DB) *Store {
	return &Store{queries: chatdb.New(sqlDB)}
}

// CreateRoom はパーティーのチャットルームを作成してIDを返す。
// パーティー作成時に呼び出される。
func (s *Store) CreateRoom(ctx context.Context, partyID string) (string, error) {
	roomID := uuid.New().String()
	if err := s.queries.CreateChatRoom(ctx, chatdb.CreateChatRoomParams{
		ID:      roomID,
		PartyID: partyID,
	}); err != nil {
		return "", fmt.Errorf("チャットルームの作成に失敗: %w", err)
	}
	return roomID, nil
}

// RoomByPartyID はパーティーに対応するチャットルームを取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (s *Store) RoomByPartyID(ctx context.Context, partyID string) (chatdb.ChatRoom, error) {
	return s.queries.GetChatRoomByPartyID(ctx, partyID)
}

// PostSystemMessage はパーティーのチャットルームにシステムメッセージを追記し、
// ルームの最終メッセージサマリーを更新する。ルームが存在しない、または
// 閉鎖済みの場合は何もせずnilを返す。
func (s *Store) PostSystemMessage(ctx context.Context, partyID, content string) error {
	room, err := s.queries.GetChatRoomByPartyID(ctx, partyID)
	if err == sql.ErrNoRows {
		slog.Debug("チャットルームが存在しないためシステムメッセージをスキップ", "party_id", partyID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("チャットルームの取得に失敗: %w", err)
	}
	if room.IsClosed != 0 {
		slog.Debug("チャットルームが閉鎖済みのためシステムメッセージをスキップ", "party_id", partyID)
		return nil
	}

	if err := s.queries.CreateChatMessage(ctx, chatdb.CreateChatMessageParams{
		ID:      uuid.New().String(),
		RoomID:  room.ID,
		Type:    MessageTypeSystem,
		Content: content,
	}); err != nil {
		return fmt.Errorf("システムメッセージの作成に失敗: %w", err)
	}

	if err := s.queries.UpdateChatRoomLastMessage(ctx, chatdb.UpdateChatRoomLastMessageParams{
		LastMessage:   content,
		LastMessageAt: time.Now().UTC(),
		ID:            room.ID,
	}); err != nil {
		return fmt.Errorf("最終メッセージサマリーの更新に失敗: %w", err)
	}
	return nil
}

// CloseRoom はチャットルームを閉鎖する。
// 閉鎖後のルームにはシステムメッセージが追記されなくなる。
func (s *Store) CloseRoom(ctx context.Context, roomID string) error {
	if err := s.queries.CloseChatRoom(ctx, roomID); err != nil {
		return fmt.Errorf("チャットルームの閉鎖に失敗: %w", err)
	}
	return nil
}

// MessagesByRoomID はルーム内のメッセージを投稿順に取得する。
func (s *Store) MessagesByRoomID(ctx context.Context, roomID string) ([]chatdb.ChatMessage, error) {
	return s.queries.ListChatMessagesByRoomID(ctx, roomID)
}
