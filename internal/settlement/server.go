package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taxipot/server/internal/chat"
	"github.com/taxipot/server/internal/notification"
	"github.com/taxipot/server/internal/party"
	settlementdb "github.com/taxipot/server/internal/settlement/db"
	"github.com/taxipot/server/internal/user"
	"github.com/taxipot/server/pkg/middleware"
)

// 精算状態の定数。
const (
	// StatusInProgress は支払い待ちの精算を表す。
	StatusInProgress = "IN_PROGRESS"
	// StatusCompleted は全参加者の支払いが完了した精算を表す。終端状態。
	StatusCompleted = "COMPLETED"
)

// remindCooldown は催促の最低間隔。前回の催促からこの時間が
// 経過するまで、再度の催促はレート制限エラーになる。
const remindCooldown = 2 * time.Hour

// Server は精算サービスのHTTPハンドラ群。
type Server struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *settlementdb.Queries
	// db はトランザクション開始に使うSQLiteデータベース接続。
	db *sql.DB
	// users は参加者の実在確認に使うユーザーディレクトリ。
	users *user.Store
	// parties はホスト権限チェックに使うパーティーディレクトリ。
	parties *party.Store
	// chat はシステムメッセージの投稿先チャットストア。
	chat *chat.Store
	// notifier は精算リクエスト・催促の通知を配信するDispatcher。
	notifier *notification.Dispatcher
}

// NewServer は新しい精算サーバーを生成する。
func NewServer(sqlDB *sql.DB, users *user.Store, parties *party.Store, chatStore *chat.Store, notifier *notification.Dispatcher) *Server {
	return &Server{
		queries:  settlementdb.New(sqlDB),
		db:       sqlDB,
		users:    users,
		parties:  parties,
		chat:     chatStore,
		notifier: notifier,
	}
}

// RegisterRoutes はAPIルーティングを設定する。
func (s *Server) RegisterRoutes(api *gin.RouterGroup) {
	// 精算作成（ホストのみ）
	api.POST("/parties/:party_id/settlements", s.handleCreate())
	// パーティーに対応する精算の有無とIDの取得
	api.GET("/parties/:party_id/settlements/current", s.handleCurrent())

	settlements := api.Group("/settlements")
	{
		// 精算詳細取得（参加者のみ）
		settlements.GET("/:settlement_id", s.handleGetDetail())
		// 参加者を支払済みにする（ホストのみ）
		settlements.PUT("/:settlement_id/participants/:user_id/paid", s.handleMarkPaid())
		// 未払い参加者への催促（ホストのみ、2時間のクールダウン付き）
		settlements.POST("/:settlement_id/remind", s.handleRemind())
	}
}

// participantShare は精算作成リクエスト内の1参加者分の支払額。
type participantShare struct {
	// UserID は支払うユーザーのID。
	UserID string `json:"user_id" binding:"required"`
	// Amount は支払額（ウォン）。
	Amount int64 `json:"amount"`
}

// createSettlementRequest は精算作成リクエストのJSON構造。
type createSettlementRequest struct {
	// TotalFare は運賃の総額（ウォン）。
	TotalFare int64 `json:"total_fare"`
	// BankName は振込先の銀行名。
	BankName string `json:"bank_name"`
	// AccountNumber は振込先の口座番号。
	AccountNumber string `json:"account_number"`
	// Participants は参加者ごとの支払額。ホスト自身の行も含む。
	Participants []participantShare `json:"participants"`
}

// participantResponse は精算参加者のJSONレスポンス構造。
type participantResponse struct {
	// UserID は支払うユーザーのID。
	UserID string `json:"user_id"`
	// Amount は支払額（ウォン）。
	Amount int64 `json:"amount"`
	// IsPaid は支払済みかどうか。
	IsPaid bool `json:"is_paid"`
	// IsHost はホスト自身の行かどうか。
	IsHost bool `json:"is_host"`
	// PaidAt は支払済みにした日時（RFC3339形式）。未払いの間はnull。
	PaidAt *string `json:"paid_at"`
}

// settlementResponse は精算のJSONレスポンス構造。
type settlementResponse struct {
	// ID は精算の一意識別子。
	ID string `json:"id"`
	// PartyID は対応するパーティーのID。
	PartyID string `json:"party_id"`
	// HostID は立て替えたホストのユーザーID。
	HostID string `json:"host_id"`
	// TotalFare は運賃の総額（ウォン）。
	TotalFare int64 `json:"total_fare"`
	// BankName は振込先の銀行名。
	BankName string `json:"bank_name"`
	// AccountNumber は振込先の口座番号。
	AccountNumber string `json:"account_number"`
	// Status は精算の状態（IN_PROGRESS | COMPLETED）。
	Status string `json:"status"`
	// CreatedAt は作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
	// LastRemindedAt は最後に催促した日時（RFC3339形式）。未催促の間はnull。
	LastRemindedAt *string `json:"last_reminded_at"`
	// Participants は参加者ごとの支払い状況。
	Participants []participantResponse `json:"participants"`
}

// toSettlementResponse はDB行をJSONレスポンスに変換する。
func toSettlementResponse(st settlementdb.Settlement, participants []settlementdb.SettlementParticipant) settlementResponse {
	resp := settlementResponse{
		ID:            st.ID,
		PartyID:       st.PartyID,
		HostID:        st.HostID,
		TotalFare:     st.TotalFare,
		BankName:      st.BankName,
		AccountNumber: st.AccountNumber,
		Status:        st.Status,
		CreatedAt:     st.CreatedAt.Format(time.RFC3339),
	}
	if st.LastRemindedAt.Valid {
		reminded := st.LastRemindedAt.Time.Format(time.RFC3339)
		resp.LastRemindedAt = &reminded
	}
	resp.Participants = make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		pr := participantResponse{
			UserID: p.UserID,
			Amount: p.Amount,
			IsPaid: p.IsPaid != 0,
			IsHost: p.IsHost != 0,
		}
		if p.PaidAt.Valid {
			paidAt := p.PaidAt.Time.Format(time.RFC3339)
			pr.PaidAt = &paidAt
		}
		resp.Participants = append(resp.Participants, pr)
	}
	return resp
}

// handleCreate は精算作成を処理するハンドラを返す。
// 精算と参加者行を1つのトランザクションで作成する。ホスト自身の行は
// 作成時点で支払済みになる。コミット後の通知配信とチャット投稿は
// ベストエフォートであり、失敗しても精算作成は成功として扱う。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		partyID := c.Param("party_id")

		var req createSettlementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if req.TotalFare <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "運賃総額は1ウォン以上必要です"})
			return
		}
		if strings.TrimSpace(req.BankName) == "" || strings.TrimSpace(req.AccountNumber) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "銀行名と口座番号は必須です"})
			return
		}
		if len(req.Participants) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "参加者が1人以上必要です"})
			return
		}
		seen := make(map[string]struct{}, len(req.Participants))
		hostIncluded := false
		for _, share := range req.Participants {
			if share.Amount < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "支払額は0ウォン以上必要です"})
				return
			}
			if _, dup := seen[share.UserID]; dup {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("参加者が重複しています: %s", share.UserID)})
				return
			}
			seen[share.UserID] = struct{}{}
			if share.UserID == userID {
				hostIncluded = true
			}
		}
		if !hostIncluded {
			c.JSON(http.StatusBadRequest, gin.H{"error": "参加者にホスト自身が含まれている必要があります"})
			return
		}

		p, err := s.parties.GetByID(c.Request.Context(), partyID)
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
			c.JSON(http.StatusForbidden, gin.H{"error": "精算を作成できるのはホストのみです"})
			return
		}

		// パーティーごとに精算は1件という不変条件
		if _, err := s.queries.GetSettlementByPartyID(c.Request.Context(), partyID); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "このパーティーの精算はすでに存在します"})
			return
		}

		// 参加者全員が実在するユーザーであることを確認する
		notifyTargets := make([]string, 0, len(req.Participants))
		for _, share := range req.Participants {
			if _, err := s.users.GetByID(c.Request.Context(), share.UserID); err != nil {
				if err == sql.ErrNoRows {
					c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("ユーザーが見つかりません: %s", share.UserID)})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
				slog.Error("ユーザー取得エラー", "error", err)
				return
			}
			if share.UserID != userID {
				notifyTargets = append(notifyTargets, share.UserID)
			}
		}

		settlementID := uuid.New().String()
		if err := s.createInTx(c.Request.Context(), settlementID, partyID, userID, req); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "精算の作成に失敗しました"})
			slog.Error("精算作成エラー", "error", err)
			return
		}

		// 以降の通知・チャット投稿はベストエフォート。失敗しても
		// コミット済みの精算は成功として扱う。
		for _, target := range notifyTargets {
			if err := s.notifier.SettlementRequested(c.Request.Context(), target, settlementID); err != nil {
				slog.Warn("精算リクエスト通知の配信に失敗", "settlement_id", settlementID, "user_id", target, "error", err)
			}
		}

		amounts := make([]int64, 0, len(req.Participants))
		for _, share := range req.Participants {
			amounts = append(amounts, share.Amount)
		}
		msg := creationMessage(req.BankName, req.AccountNumber, amounts)
		if err := s.chat.PostSystemMessage(c.Request.Context(), partyID, msg); err != nil {
			slog.Warn("精算案内メッセージの投稿に失敗", "settlement_id", settlementID, "error", err)
		}

		c.JSON(http.StatusCreated, gin.H{"id": settlementID})
	}
}

// createInTx は精算と参加者行を1つのトランザクションで作成する。
// ホスト自身の行は支払済み（is_paid = 1, paid_at = now）で作成する。
func (s *Server) createInTx(ctx context.Context, settlementID, partyID, hostID string, req createSettlementRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	qtx := s.queries.WithTx(tx)
	if err := qtx.CreateSettlement(ctx, settlementdb.CreateSettlementParams{
		ID:            settlementID,
		PartyID:       partyID,
		HostID:        hostID,
		TotalFare:     req.TotalFare,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
	}); err != nil {
		return fmt.Errorf("精算の作成に失敗: %w", err)
	}

	allPaid := true
	for _, share := range req.Participants {
		isHost := share.UserID == hostID
		var isPaid int64
		var paidAt sql.NullTime
		if isHost {
			// ホストは運賃を立て替え済みなので作成時点で支払済み
			isPaid = 1
			paidAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		} else {
			allPaid = false
		}
		var isHostFlag int64
		if isHost {
			isHostFlag = 1
		}
		if err := qtx.CreateSettlementParticipant(ctx, settlementdb.CreateSettlementParticipantParams{
			ID:           uuid.New().String(),
			SettlementID: settlementID,
			UserID:       share.UserID,
			Amount:       share.Amount,
			IsPaid:       isPaid,
			PaidAt:       paidAt,
			IsHost:       isHostFlag,
		}); err != nil {
			return fmt.Errorf("参加者行の作成に失敗: %w", err)
		}
	}

	// 参加者がホストのみの場合、作成時点で全員支払済みになる
	if allPaid {
		if err := qtx.UpdateSettlementStatus(ctx, settlementdb.UpdateSettlementStatusParams{
			Status: StatusCompleted,
			ID:     settlementID,
		}); err != nil {
			return fmt.Errorf("精算状態の更新に失敗: %w", err)
		}
	}

	return tx.Commit()
}

// handleGetDetail は精算詳細取得を処理するハンドラを返す。
// ホストまたは参加者のみが参照できる。
func (s *Server) handleGetDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		settlementID := c.Param("settlement_id")
		st, err := s.queries.GetSettlementByID(c.Request.Context(), settlementID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "精算が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "精算の取得に失敗しました"})
			slog.Error("精算取得エラー", "error", err)
			return
		}

		participants, err := s.queries.ListSettlementParticipants(c.Request.Context(), settlementID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "参加者一覧の取得に失敗しました"})
			slog.Error("参加者一覧取得エラー", "error", err)
			return
		}

		if !isMember(st, participants, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "この精算を参照する権限がありません"})
			return
		}

		c.JSON(http.StatusOK, toSettlementResponse(st, participants))
	}
}

// handleMarkPaid は参加者を支払済みにするハンドラを返す。
// ホストのみが実行できる。支払済みの参加者への再実行は何もしない
// （paid_atは更新されない）。マーク後に全員支払済みかを再計算し、
// 該当すれば精算をCOMPLETEDへ遷移させる。
func (s *Server) handleMarkPaid() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		settlementID := c.Param("settlement_id")
		targetUserID := c.Param("user_id")

		st, err := s.queries.GetSettlementByID(c.Request.Context(), settlementID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "精算が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "精算の取得に失敗しました"})
			slog.Error("精算取得エラー", "error", err)
			return
		}

		if st.HostID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "支払済みにできるのはホストのみです"})
			return
		}

		p, err := s.queries.GetSettlementParticipant(c.Request.Context(), settlementdb.GetSettlementParticipantParams{
			SettlementID: settlementID,
			UserID:       targetUserID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "参加者が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "参加者の取得に失敗しました"})
			slog.Error("参加者取得エラー", "error", err)
			return
		}

		// 支払済みフラグは単調。再実行してもpaid_atは変わらない
		if p.IsPaid != 0 {
			c.JSON(http.StatusOK, gin.H{"status": st.Status, "message": "すでに支払済みです"})
			return
		}

		if err := s.queries.MarkParticipantPaid(c.Request.Context(), settlementdb.MarkParticipantPaidParams{
			PaidAt:       time.Now().UTC(),
			SettlementID: settlementID,
			UserID:       targetUserID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "支払済み処理に失敗しました"})
			slog.Error("支払済み処理エラー", "error", err)
			return
		}

		status, err := s.recomputeStatus(c.Request.Context(), st)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "精算状態の更新に失敗しました"})
			slog.Error("精算状態更新エラー", "error", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

// recomputeStatus は全参加者の支払い状況から精算の状態を再計算する。
// 全員支払済みならCOMPLETEDへ遷移させる。COMPLETEDからの逆遷移はない。
func (s *Server) recomputeStatus(ctx context.Context, st settlementdb.Settlement) (string, error) {
	if st.Status == StatusCompleted {
		return StatusCompleted, nil
	}

	participants, err := s.queries.ListSettlementParticipants(ctx, st.ID)
	if err != nil {
		return "", fmt.Errorf("参加者一覧の取得に失敗: %w", err)
	}

	for _, p := range participants {
		if p.IsPaid == 0 {
			return StatusInProgress, nil
		}
	}

	if err := s.queries.UpdateSettlementStatus(ctx, settlementdb.UpdateSettlementStatusParams{
		Status: StatusCompleted,
		ID:     st.ID,
	}); err != nil {
		return "", fmt.Errorf("精算状態の更新に失敗: %w", err)
	}
	slog.Info("精算が完了しました", "settlement_id", st.ID)
	return StatusCompleted, nil
}

// handleRemind は未払い参加者への催促を処理するハンドラを返す。
// ホストのみが実行でき、前回の催促から2時間のクールダウンがある。
// 参加者ごとの通知配信失敗はログに記録して次の参加者へ進む。
func (s *Server) handleRemind() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		settlementID := c.Param("settlement_id")
		st, err := s.queries.GetSettlementByID(c.Request.Context(), settlementID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "精算が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "精算の取得に失敗しました"})
			slog.Error("精算取得エラー", "error", err)
			return
		}

		if st.HostID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "催促できるのはホストのみです"})
			return
		}

		if st.Status == StatusCompleted {
			c.JSON(http.StatusConflict, gin.H{"error": "すでに完了した精算です"})
			return
		}

		if st.LastRemindedAt.Valid && time.Since(st.LastRemindedAt.Time) < remindCooldown {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "催促は2時間に1回までです"})
			return
		}

		participants, err := s.queries.ListSettlementParticipants(c.Request.Context(), settlementID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "参加者一覧の取得に失敗しました"})
			slog.Error("参加者一覧取得エラー", "error", err)
			return
		}

		// 未払いの参加者（ホスト以外）へ通知する。1人への配信失敗で
		// ループを打ち切らない
		hostName := middleware.GetNickname(c)
		reminded := 0
		for _, p := range participants {
			if p.IsPaid != 0 || p.IsHost != 0 {
				continue
			}
			if err := s.notifier.SettlementReminded(c.Request.Context(), p.UserID, settlementID, hostName); err != nil {
				slog.Warn("催促通知の配信に失敗", "settlement_id", settlementID, "user_id", p.UserID, "error", err)
				continue
			}
			reminded++
		}

		amounts := make([]int64, 0, len(participants))
		for _, p := range participants {
			amounts = append(amounts, p.Amount)
		}
		msg := reminderMessage(st.BankName, st.AccountNumber, amounts)
		if err := s.chat.PostSystemMessage(c.Request.Context(), st.PartyID, msg); err != nil {
			slog.Warn("催促メッセージの投稿に失敗", "settlement_id", settlementID, "error", err)
		}

		if err := s.queries.UpdateSettlementLastRemindedAt(c.Request.Context(), settlementdb.UpdateSettlementLastRemindedAtParams{
			LastRemindedAt: time.Now().UTC(),
			ID:             settlementID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "催促日時の記録に失敗しました"})
			slog.Error("催促日時記録エラー", "error", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "催促を送信しました", "reminded": reminded})
	}
}

// handleCurrent はパーティーに対応する精算の有無とIDを返すハンドラ。
// 精算が存在する場合、参照できるのはホストまたは参加者のみ。
// 精算が未作成の場合はexists=falseを返す（エラーにしない）。
func (s *Server) handleCurrent() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		partyID := c.Param("party_id")
		st, err := s.queries.GetSettlementByPartyID(c.Request.Context(), partyID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, gin.H{"exists": false})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "精算の取得に失敗しました"})
			slog.Error("精算取得エラー", "error", err)
			return
		}

		participants, err := s.queries.ListSettlementParticipants(c.Request.Context(), st.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "参加者一覧の取得に失敗しました"})
			slog.Error("参加者一覧取得エラー", "error", err)
			return
		}

		if !isMember(st, participants, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "この精算を参照する権限がありません"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"exists": true, "settlement_id": st.ID})
	}
}

// isMember はユーザーが精算のホストまたは参加者かどうかを返す。
func isMember(st settlementdb.Settlement, participants []settlementdb.SettlementParticipant, userID string) bool {
	if st.HostID == userID {
		return true
	}
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
