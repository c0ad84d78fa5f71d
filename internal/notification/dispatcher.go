package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	notificationdb "github.com/taxipot/server/internal/notification/db"
	"github.com/taxipot/server/internal/stream"
	"github.com/taxipot/server/internal/user"
	"github.com/taxipot/server/pkg/event"
)

// ErrRecipientNotFound は通知の受信者が存在しないことを表す。
var ErrRecipientNotFound = errors.New("通知の受信者が存在しません")

// notificationsCreated は作成された通知レコード数（種類別）。
var notificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "taxipot_notifications_created_total",
	Help: "Number of notification records created, by event type.",
}, []string{"type"})

// Dispatcher はドメインイベントを通知レコードとSSE配信に変換する。
//
// 各メソッドは (1) 受信者を解決し、(2) 通知レコードを永続化し、
// (3) レジストリ経由でベストエフォート配信する。(3)の失敗は(2)を
// 取り消さず、呼び出し元にエラーとして伝播することもない。
type Dispatcher struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *notificationdb.Queries
	// users は受信者解決に使うユーザーディレクトリ。
	users *user.Store
	// registry はSSE配信チャネルのレジストリ。
	registry *stream.Registry
}

// NewDispatcher は新しいDispatcherを生成する。
func NewDispatcher(sqlDB *sql.DB, users *user.Store, registry *stream.Registry) *Dispatcher {
	return &Dispatcher{
		queries:  notificationdb.New(sqlDB),
		users:    users,
		registry: registry,
	}
}

// SettlementRequested は精算リクエスト通知を配信する。
func (d *Dispatcher) SettlementRequested(ctx context.Context, recipientID, settlementID string) error {
	return d.dispatch(ctx, recipientID, settlementID, event.TypeSettlementRequest, "")
}

// SettlementReminded は精算催促通知を配信する。
// requesterNameには催促したホストの表示名を渡す。
func (d *Dispatcher) SettlementReminded(ctx context.Context, recipientID, settlementID, requesterName string) error {
	return d.dispatch(ctx, recipientID, settlementID, event.TypeSettlementRemind, requesterName)
}

// ReviewArrived は後記（レビュー）到着通知を配信する。
func (d *Dispatcher) ReviewArrived(ctx context.Context, recipientID, reviewID string) error {
	return d.dispatch(ctx, recipientID, reviewID, event.TypeReviewArrived, "")
}

// ParticipationRequested はタクシーパーティーへの参加リクエスト通知を配信する。
// requesterNameにはリクエストしたユーザーの表示名を渡す。
func (d *Dispatcher) ParticipationRequested(ctx context.Context, recipientID, partyID, requesterName string) error {
	return d.dispatch(ctx, recipientID, partyID, event.TypeParticipationRequest, requesterName)
}

// ParticipationAccepted は参加リクエスト承認通知を配信する。
// hostNameには承認したホストの表示名を渡す。
func (d *Dispatcher) ParticipationAccepted(ctx context.Context, recipientID, partyID, hostName string) error {
	return d.dispatch(ctx, recipientID, partyID, event.TypeParticipationAccepted, hostName)
}

// dispatch は通知レコードを永続化し、SSEでベストエフォート配信する。
// 受信者が存在しない場合はErrRecipientNotFoundを返す。配信の失敗は
// ログに記録するのみで、永続化が成功していればnilを返す。
func (d *Dispatcher) dispatch(ctx context.Context, recipientID, targetID string, t event.Type, name string) error {
	if _, err := d.users.GetByID(ctx, recipientID); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: user_id=%s", ErrRecipientNotFound, recipientID)
		}
		return fmt.Errorf("受信者の解決に失敗: %w", err)
	}

	title, message := t.Render(name)
	notificationID := uuid.New().String()
	if err := d.queries.CreateNotification(ctx, notificationdb.CreateNotificationParams{
		ID:         notificationID,
		UserID:     recipientID,
		Title:      title,
		Message:    message,
		Type:       string(t),
		TargetType: string(t.Target()),
		TargetID:   targetID,
	}); err != nil {
		return fmt.Errorf("通知レコードの作成に失敗: %w", err)
	}
	notificationsCreated.WithLabelValues(string(t)).Inc()

	// 以降はベストエフォートのリアルタイム配信。永続化済みのレコードが
	// 信頼できる記録であり、ここでの失敗は呼び出し元に伝播しない。
	created, err := d.queries.GetNotificationByID(ctx, notificationID)
	if err != nil {
		slog.Warn("作成済み通知の再取得に失敗。SSE配信をスキップ",
			"notification_id", notificationID, "error", err)
		return nil
	}
	d.registry.Send(recipientID, event.StreamEventName, toPayload(created))
	return nil
}

// toPayload はDB行をSSE配信用のペイロードに変換する。
func toPayload(n notificationdb.Notification) event.Payload {
	return event.Payload{
		ID:         n.ID,
		UserID:     n.UserID,
		Title:      n.Title,
		Message:    n.Message,
		Type:       event.Type(n.Type),
		TargetType: event.TargetType(n.TargetType),
		TargetID:   n.TargetID,
		IsRead:     n.IsRead != 0,
		CreatedAt:  n.CreatedAt,
	}
}
