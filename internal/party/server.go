package party

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taxipot/server/internal/chat"
	"github.com/taxipot/server/internal/notification"
	partydb "github.com/taxipot/server/internal/party/db"
	"github.com/taxipot/server/pkg/middleware"
)

// 参加状態の定数。
const (
	// MemberStatusPending は承認待ちの参加リクエストを表す。
	MemberStatusPending = "PENDING"
	// MemberStatusAccepted は承認済みのメンバーを表す。
	MemberStatusAccepted = "ACCEPTED"
)

// Server はパーティーサービスのHTTPハンドラ群。
type Server struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *partydb.Queries
	// chat はチャットルームのディレクトリ。パーティー作成時にルームを作る。
	chat *chat.Store
	// notifier は参加リクエスト・承認の通知を配信するDispatcher。
	notifier *notification.Dispatcher
}

// NewServer は新しいパーティーサーバーを生成する。
func NewServer(sqlDB *sql.DB, chatStore *chat.Store, notifier *notification.Dispatcher) *Server {
	return &Server{
		queries:  partydb.New(sqlDB),
		chat:     chatStore,
		notifier: notifier,
	}
}

// RegisterRoutes はAPIルーティングを設定する。
func (s *Server) RegisterRoutes(api *gin.RouterGroup) {
	parties := api.Group("/parties")
	{
		// パーティー作成
		parties.POST("", s.handleCreate())
		// パーティー詳細取得
		parties.GET("/:party_id", s.handleGetByID())
		// 参加リクエスト
		parties.POST("/:party_id/join", s.handleJoin())
		// 参加リクエストの承認（ホストのみ）
		parties.POST("/:party_id/accept", s.handleAccept())
	}
}

// createPartyRequest はパーティー作成リクエストのJSON構造。
type createPartyRequest struct {
	// Origin は出発地。
	Origin string `json:"origin" binding:"required"`
	// Destination は目的地。
	Destination string `json:"destination" binding:"required"`
	// DepartureAt は出発予定日時（RFC3339形式）。
	DepartureAt time.Time `json:"departure_at" binding:"required"`
	// MaxMembers は最大乗車人数。
	MaxMembers int64 `json:"max_members"`
}

// acceptRequest は参加承認リクエストのJSON構造。
type acceptRequest struct {
	// UserID は承認対象ユーザーのID。
	UserID string `json:"user_id" binding:"required"`
}

// partyResponse はパーティーのJSONレスポンス構造。
type partyResponse struct {
	// ID はパーティーの一意識別子。
	ID string `json:"id"`
	// HostID はホストのユーザーID。
	HostID string `json:"host_id"`
	// Origin は出発地。
	Origin string `json:"origin"`
	// Destination は目的地。
	Destination string `json:"destination"`
	// DepartureAt は出発予定日時（RFC3339形式）。
	DepartureAt string `json:"departure_at"`
	// MaxMembers は最大乗車人数。
	MaxMembers int64 `json:"max_members"`
	// CreatedAt は作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// memberResponse はパーティーメンバーのJSONレスポンス構造。
type memberResponse struct {
	// UserID は参加者のユーザーID。
	UserID string `json:"user_id"`
	// Status は参加状態（PENDING | ACCEPTED）。
	Status string `json:"status"`
}

// toPartyResponse はDB行をJSONレスポンスに変換する。
func toPartyResponse(p partydb.Party) partyResponse {
	return partyResponse{
		ID:          p.ID,
		HostID:      p.HostID,
		Origin:      p.Origin,
		Destination: p.Destination,
		DepartureAt: p.DepartureAt.Format(time.RFC3339),
		MaxMembers:  p.MaxMembers,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// handleCreate はパーティー作成を処理するハンドラを返す。
// パーティーとホストのメンバー行、対応するチャットルームを作成する。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req createPartyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		maxMembers := req.MaxMembers
		if maxMembers <= 0 {
			maxMembers = 4
		}

		partyID := uuid.New().String()
		if err := s.queries.CreateParty(c.Request.Context(), partydb.CreatePartyParams{
			ID:          partyID,
			HostID:      userID,
			Origin:      req.Origin,
			Destination: req.Destination,
			DepartureAt: req.DepartureAt.UTC(),
			MaxMembers:  maxMembers,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パーティーの作成に失敗しました"})
			slog.Error("パーティー作成エラー", "error", err)
			return
		}

		// ホスト自身のメンバー行は承認済みで作成する
		if err := s.queries.CreatePartyMember(c.Request.Context(), partydb.CreatePartyMemberParams{
			ID:      uuid.New().String(),
			PartyID: partyID,
			UserID:  userID,
			Status:  MemberStatusAccepted,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ホストメンバーの作成に失敗しました"})
			slog.Error("ホストメンバー作成エラー", "error", err)
			return
		}

		if _, err := s.chat.CreateRoom(c.Request.Context(), partyID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "チャットルームの作成に失敗しました"})
			slog.Error("チャットルーム作成エラー", "error", err)
			return
		}

		created, err := s.queries.GetPartyByID(c.Request.Context(), partyID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成したパーティーの取得に失敗しました"})
			slog.Error("パーティー取得エラー", "error", err)
			return
		}

		c.JSON(http.StatusCreated, toPartyResponse(created))
	}
}

// handleGetByID はパーティー詳細取得を処理するハンドラを返す。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		partyID := c.Param("party_id")
		p, err := s.queries.GetPartyByID(c.Request.Context(), partyID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "パーティーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パーティーの取得に失敗しました"})
			slog.Error("パーティー取得エラー", "error", err)
			return
		}

		members, err := s.queries.ListPartyMembers(c.Request.Context(), partyID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "メンバー一覧の取得に失敗しました"})
			slog.Error("メンバー一覧取得エラー", "error", err)
			return
		}

		memberResponses := make([]memberResponse, 0, len(members))
		for _, m := range members {
			memberResponses = append(memberResponses, memberResponse{
				UserID: m.UserID,
				Status: m.Status,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"party":   toPartyResponse(p),
			"members": memberResponses,
		})
	}
}

// handleJoin は参加リクエストを処理するハンドラを返す。
// メンバー行を承認待ちで作成し、ホストに参加リクエスト通知を配信する。
// 通知の配信失敗は参加リクエスト自体の成功を妨げない。
func (s *Server) handleJoin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		partyID := c.Param("party_id")
		p, err := s.queries.GetPartyByID(c.Request.Context(), partyID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "パーティーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パーティーの取得に失敗しました"})
			slog.Error("パーティー取得エラー", "error", err)
			return
		}

		if p.HostID == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ホストは自分のパーティーに参加リクエストできません"})
			return
		}

		if _, err := s.queries.GetPartyMember(c.Request.Context(), partydb.GetPartyMemberParams{
			PartyID: partyID,
			UserID:  userID,
		}); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "すでに参加リクエスト済みです"})
			return
		}

		members, err := s.queries.ListPartyMembers(c.Request.Context(), partyID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "メンバー一覧の取得に失敗しました"})
			slog.Error("メンバー一覧取得エラー", "error", err)
			return
		}
		accepted := int64(0)
		for _, m := range members {
			if m.Status == MemberStatusAccepted {
				accepted++
			}
		}
		if accepted >= p.MaxMembers {
			c.JSON(http.StatusConflict, gin.H{"error": "パーティーは満員です"})
			return
		}

		if err := s.queries.CreatePartyMember(c.Request.Context(), partydb.CreatePartyMemberParams{
			ID:      uuid.New().String(),
			PartyID: partyID,
			UserID:  userID,
			Status:  MemberStatusPending,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "参加リクエストの作成に失敗しました"})
			slog.Error("参加リクエスト作成エラー", "error", err)
			return
		}

		// ホストへの通知はベストエフォート
		if err := s.notifier.ParticipationRequested(c.Request.Context(), p.HostID, partyID, middleware.GetNickname(c)); err != nil {
			slog.Warn("参加リクエスト通知の配信に失敗", "party_id", partyID, "host_id", p.HostID, "error", err)
		}

		c.JSON(http.StatusCreated, gin.H{"message": "参加リクエストを送信しました"})
	}
}

// handleAccept は参加リクエストの承認を処理するハンドラを返す。
// ホストのみが実行でき、承認されたユーザーに通知を配信する。
func (s *Server) handleAccept() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		partyID := c.Param("party_id")
		p, err := s.queries.GetPartyByID(c.Request.Context(), partyID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "パーティーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パーティーの取得に失敗しました"})
			slog.Error("パーティー取得エラー", "error", err)
			return
		}

		if p.HostID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "参加リクエストを承認できるのはホストのみです"})
			return
		}

		var req acceptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		member, err := s.queries.GetPartyMember(c.Request.Context(), partydb.GetPartyMemberParams{
			PartyID: partyID,
			UserID:  req.UserID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "参加リクエストが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "参加リクエストの取得に失敗しました"})
			slog.Error("参加リクエスト取得エラー", "error", err)
			return
		}

		if member.Status == MemberStatusAccepted {
			c.JSON(http.StatusOK, gin.H{"message": "すでに承認済みです"})
			return
		}

		if err := s.queries.UpdatePartyMemberStatus(c.Request.Context(), partydb.UpdatePartyMemberStatusParams{
			Status:  MemberStatusAccepted,
			PartyID: partyID,
			UserID:  req.UserID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "参加リクエストの承認に失敗しました"})
			slog.Error("参加リクエスト承認エラー", "error", err)
			return
		}

		// 承認されたユーザーへの通知はベストエフォート
		if err := s.notifier.ParticipationAccepted(c.Request.Context(), req.UserID, partyID, middleware.GetNickname(c)); err != nil {
			slog.Warn("参加承認通知の配信に失敗", "party_id", partyID, "user_id", req.UserID, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{"message": "参加リクエストを承認しました"})
	}
}
