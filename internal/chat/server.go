package chat

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	chatdb "github.com/taxipot/server/internal/chat/db"
	"github.com/taxipot/server/pkg/middleware"
)

// MemberDirectory はパーティーのメンバーシップ判定を提供する。
// partyパッケージのStoreが実装する。
type MemberDirectory interface {
	// IsMember はユーザーがパーティーのホストまたは承認済みメンバーかどうかを返す。
	IsMember(ctx context.Context, partyID, userID string) (bool, error)
}

// Server はチャットサービスのHTTPハンドラ群。
type Server struct {
	// store はチャットルームのディレクトリ。
	store *Store
	// members はメッセージ閲覧の権限チェックに使うメンバーシップ判定。
	members MemberDirectory
}

// NewServer は新しいチャットサーバーを生成する。
func NewServer(store *Store, members MemberDirectory) *Server {
	return &Server{store: store, members: members}
}

// RegisterRoutes はAPIルーティングを設定する。
func (s *Server) RegisterRoutes(api *gin.RouterGroup) {
	// パーティーのチャットメッセージ一覧取得
	api.GET("/parties/:party_id/messages", s.handleListMessages())
}

// messageResponse はチャットメッセージのJSONレスポンス構造。
type messageResponse struct {
	// ID はメッセージの一意識別子。
	ID string `json:"id"`
	// SenderID は送信者のユーザーID。システムメッセージでは空。
	SenderID string `json:"sender_id"`
	// Type はメッセージ種別（TALK | SYSTEM）。
	Type string `json:"type"`
	// Content はメッセージ本文。
	Content string `json:"content"`
	// CreatedAt は投稿日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// toMessageResponse はDB行をJSONレスポンスに変換する。
func toMessageResponse(m chatdb.ChatMessage) messageResponse {
	return messageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Type:      m.Type,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

// handleListMessages はパーティーのチャットメッセージ一覧を返すハンドラ。
func (s *Server) handleListMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		partyID := c.Param("party_id")
		room, err := s.store.RoomByPartyID(c.Request.Context(), partyID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "チャットルームが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "チャットルームの取得に失敗しました"})
			slog.Error("チャットルーム取得エラー", "error", err)
			return
		}

		// メッセージを閲覧できるのはパーティーのメンバーのみ
		ok, err := s.members.IsMember(c.Request.Context(), partyID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "メンバーシップの確認に失敗しました"})
			slog.Error("メンバーシップ確認エラー", "error", err)
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "このチャットを閲覧する権限がありません"})
			return
		}

		messages, err := s.store.MessagesByRoomID(c.Request.Context(), room.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "メッセージ一覧の取得に失敗しました"})
			slog.Error("メッセージ一覧取得エラー", "error", err)
			return
		}

		responses := make([]messageResponse, 0, len(messages))
		for _, m := range messages {
			responses = append(responses, toMessageResponse(m))
		}
		c.JSON(http.StatusOK, responses)
	}
}
