package event

import (
	"fmt"
	"time"
)

// Type は通知イベントの種類を表す。
// 通知レコードのtypeカラムおよびSSEペイロードのtypeフィールドに使用する。
type Type string

const (
	// TypeSettlementRequest は精算リクエストが作成されたことを表す。
	TypeSettlementRequest Type = "SETTLEMENT_REQUEST"
	// TypeSettlementRemind は精算の催促が行われたことを表す。
	TypeSettlementRemind Type = "SETTLEMENT_REMIND"
	// TypeReviewArrived は後記（レビュー）が届いたことを表す。
	TypeReviewArrived Type = "REVIEW_ARRIVED"
	// TypeParticipationRequest はタクシー相乗りへの参加リクエストを表す。
	TypeParticipationRequest Type = "TAXI_PARTICIPATION_REQUEST"
	// TypeParticipationAccepted は参加リクエストが承認されたことを表す。
	TypeParticipationAccepted Type = "TAXI_PARTICIPATION_ACCEPTED"
)

// TargetType は通知をクリックした際のクライアント側遷移先の種類を表す。
type TargetType string

const (
	// TargetTypeSettlement は精算画面への遷移を表す。
	TargetTypeSettlement TargetType = "SETTLEMENT"
	// TargetTypeReview はレビュー画面への遷移を表す。
	TargetTypeReview TargetType = "REVIEW"
	// TargetTypeParty はタクシーパーティー画面への遷移を表す。
	TargetTypeParty TargetType = "PARTY"
)

// StreamEventName はSSEで配信する通知イベントのイベント名。
const StreamEventName = "notification"

// Target は通知種類に対応する遷移先の種類を返す。
func (t Type) Target() TargetType {
	switch t {
	case TypeSettlementRequest, TypeSettlementRemind:
		return TargetTypeSettlement
	case TypeReviewArrived:
		return TargetTypeReview
	default:
		return TargetTypeParty
	}
}

// Render は通知種類に対応するタイトルと本文を返す。
// nameには催促者・リクエスト者・ホストの表示名を渡す。名前を使わない
// テンプレートでは無視される。文言は韓国向けプロダクトの確定コピー。
func (t Type) Render(name string) (title, message string) {
	switch t {
	case TypeSettlementRequest:
		return "정산요청이 들어왔어요.", "빠른 시일 내에 정산해 주세요."
	case TypeSettlementRemind:
		return fmt.Sprintf("%s님이 정산을 재촉했어요.", name),
			"프로필에 미정산 이력이 남아요. 정산을 서둘러 주세요."
	case TypeReviewArrived:
		return "후기가 도착했어요.", "어떤 후기가 도착했는지 확인해 보세요."
	case TypeParticipationRequest:
		return "택시팟 참여 요청이 왔어요.",
			fmt.Sprintf("%s님이 같이 타기를 요청했어요.", name)
	case TypeParticipationAccepted:
		return fmt.Sprintf("%s님이 택시팟 참여를 수락했어요.", name),
			"어서 채팅방으로 들어가 소통해 보세요."
	default:
		return "", ""
	}
}

// Payload はSSEで配信する通知イベントのペイロード。
// 永続化済みの通知レコードと同じ形で配信する。
type Payload struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// UserID は通知先のユーザーID。
	UserID string `json:"user_id"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Message は通知メッセージ。
	Message string `json:"message"`
	// Type は通知イベントの種類。
	Type Type `json:"type"`
	// TargetType はクリック時の遷移先の種類。
	TargetType TargetType `json:"target_type"`
	// TargetID は遷移先エンティティの識別子。
	TargetID string `json:"target_id"`
	// IsRead は通知の既読状態。配信時点では常にfalse。
	IsRead bool `json:"is_read"`
	// CreatedAt は通知の作成日時。
	CreatedAt time.Time `json:"created_at"`
}
