package settlement

import "fmt"

// uniformAmount は全参加者の金額が同一の場合にその金額とtrueを返す。
// 金額が複数種類ある場合、またはリストが空の場合はfalseを返す。
func uniformAmount(amounts []int64) (int64, bool) {
	if len(amounts) == 0 {
		return 0, false
	}
	first := amounts[0]
	for _, a := range amounts[1:] {
		if a != first {
			return 0, false
		}
	}
	return first, true
}

// creationMessage は精算作成時にチャットルームへ投稿するシステムメッセージを返す。
// 全員同額の場合は金額を明記し、そうでない場合はアプリ内の表示額を案内する。
// 文言は韓国向けプロダクトの確定コピー。
func creationMessage(bankName, accountNumber string, amounts []int64) string {
	if amount, ok := uniformAmount(amounts); ok {
		return fmt.Sprintf("%s %s으로 %d원씩 입금 부탁드립니다!", bankName, accountNumber, amount)
	}
	return fmt.Sprintf("%s %s으로 각자 앱에 표시된 정산 금액 입금 부탁드립니다!", bankName, accountNumber)
}

// reminderMessage は催促時にチャットルームへ投稿するシステムメッセージを返す。
func reminderMessage(bankName, accountNumber string, amounts []int64) string {
	if amount, ok := uniformAmount(amounts); ok {
		return fmt.Sprintf("아직 정산하지 않으신 슈니는 %s %s으로 %d원씩 입금 부탁드립니다!", bankName, accountNumber, amount)
	}
	return fmt.Sprintf("아직 정산하지 않으신 슈니는 %s %s으로 앱에 표시된 금액 입금 부탁드립니다!", bankName, accountNumber)
}
