package notification

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	notificationdb "github.com/taxipot/server/internal/notification/db"
	"github.com/taxipot/server/internal/stream"
	"github.com/taxipot/server/pkg/middleware"
)

// pageSize は通知一覧の1ページあたりの件数。
const pageSize = 20

// Server は通知サービスのHTTPハンドラ群。
type Server struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *notificationdb.Queries
	// registry はSSE配信チャネルのレジストリ。
	registry *stream.Registry
}

// NewServer は新しい通知サーバーを生成する。
func NewServer(sqlDB *sql.DB, registry *stream.Registry) *Server {
	return &Server{
		queries:  notificationdb.New(sqlDB),
		registry: registry,
	}
}

// RegisterRoutes はAPIルーティングを設定する。
func (s *Server) RegisterRoutes(api *gin.RouterGroup) {
	notifications := api.Group("/notifications")
	{
		// 通知一覧取得（作成日時の降順、ページング付き）
		notifications.GET("", s.handleList())
		// 未読通知数取得
		notifications.GET("/unread-count", s.handleUnreadCount())
		// SSE購読
		notifications.GET("/stream", s.handleStream())
		// 通知を既読にする
		notifications.PUT("/:id/read", s.handleMarkAsRead())
	}
}

// notificationResponse は通知のJSONレスポンス構造。
type notificationResponse struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// UserID は通知先のユーザーID。
	UserID string `json:"user_id"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Message は通知メッセージ。
	Message string `json:"message"`
	// Type は通知イベントの種類。
	Type string `json:"type"`
	// TargetType はクリック時の遷移先の種類。
	TargetType string `json:"target_type"`
	// TargetID は遷移先エンティティの識別子。
	TargetID string `json:"target_id"`
	// IsRead は通知の既読状態。
	IsRead bool `json:"is_read"`
	// CreatedAt は通知の作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
	// ReadAt は既読にした日時（RFC3339形式）。未読の間はnull。
	ReadAt *string `json:"read_at"`
}

// toNotificationResponse はDB行をJSONレスポンスに変換する。
func toNotificationResponse(n notificationdb.Notification) notificationResponse {
	resp := notificationResponse{
		ID:         n.ID,
		UserID:     n.UserID,
		Title:      n.Title,
		Message:    n.Message,
		Type:       n.Type,
		TargetType: n.TargetType,
		TargetID:   n.TargetID,
		IsRead:     n.IsRead != 0,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
	if n.ReadAt.Valid {
		readAt := n.ReadAt.Time.Format(time.RFC3339)
		resp.ReadAt = &readAt
	}
	return resp
}

// handleList は認証済みユーザーの通知一覧を返すハンドラ。
// pageクエリパラメータは0始まり。既読・未読を問わず全件を対象とする。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
		if err != nil || page < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pageパラメータが不正です"})
			return
		}

		// 次ページの有無を判定するため1件多く取得する
		notifications, err := s.queries.ListNotificationsByUserID(c.Request.Context(), notificationdb.ListNotificationsByUserIDParams{
			UserID: userID,
			Limit:  pageSize + 1,
			Offset: int64(page) * pageSize,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知一覧の取得に失敗しました"})
			slog.Error("通知一覧取得エラー", "error", err)
			return
		}

		hasNext := len(notifications) > pageSize
		if hasNext {
			notifications = notifications[:pageSize]
		}

		responses := make([]notificationResponse, 0, len(notifications))
		for _, n := range notifications {
			responses = append(responses, toNotificationResponse(n))
		}

		c.JSON(http.StatusOK, gin.H{
			"notifications": responses,
			"page":          page,
			"has_next":      hasNext,
		})
	}
}

// handleUnreadCount は認証済みユーザーの未読通知数を返すハンドラ。
func (s *Server) handleUnreadCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		count, err := s.queries.CountUnreadNotifications(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "未読通知数の取得に失敗しました"})
			slog.Error("未読通知数取得エラー", "error", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"unread_count": count})
	}
}

// handleMarkAsRead は指定された通知を既読にするハンドラ。
// 既読済みの通知への再実行は何もしない（read_atは更新されない）。
func (s *Server) handleMarkAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		notificationID := c.Param("id")

		// 通知の存在確認と受信者チェック
		n, err := s.queries.GetNotificationByID(c.Request.Context(), notificationID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "通知が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の取得に失敗しました"})
			slog.Error("通知取得エラー", "error", err)
			return
		}

		if n.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "この通知を操作する権限がありません"})
			return
		}

		if n.IsRead != 0 {
			c.JSON(http.StatusOK, gin.H{"message": "すでに既読です"})
			return
		}

		if err := s.queries.MarkNotificationRead(c.Request.Context(), notificationdb.MarkNotificationReadParams{
			ReadAt: time.Now().UTC(),
			ID:     notificationID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の既読処理に失敗しました"})
			slog.Error("通知既読処理エラー", "error", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "通知を既読にしました"})
	}
}

// handleStream は通知のSSE購読を処理するハンドラ。
// レジストリに配信チャネルを登録し、切断・タイムアウト・置き換えの
// いずれかが起きるまでイベントを書き続ける。後始末では自分のチャネル
// だけを削除し、再接続で置き換えられた新しいチャネルには触れない。
func (s *Server) handleStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		client := s.registry.Create(userID)
		defer s.registry.RemoveClient(userID, client)

		idle := time.NewTimer(s.registry.IdleTimeout())
		defer idle.Stop()

		c.Header("Cache-Control", "no-cache")
		slog.Info("SSE購読を開始", "user_id", userID)

		c.Stream(func(_ io.Writer) bool {
			select {
			case ev := <-client.Events():
				c.SSEvent(ev.Event, ev.Data)
				// イベントが届いている間はアイドルタイムアウトを延長する
				if !idle.Stop() {
					<-idle.C
				}
				idle.Reset(s.registry.IdleTimeout())
				return true
			case <-client.Done():
				slog.Info("SSEチャネルが終了しました", "user_id", userID)
				return false
			case <-idle.C:
				slog.Info("SSEチャネルがアイドルタイムアウトしました", "user_id", userID)
				return false
			case <-c.Request.Context().Done():
				slog.Info("SSEクライアントが切断しました", "user_id", userID)
				return false
			}
		})
	}
}
