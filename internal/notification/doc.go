// Package notification は通知の永続化・配信・照会を提供する。
//
// ドメインイベント（精算リクエスト、催促、参加リクエスト等）ごとに
// 通知レコードを作成し、接続中のユーザーにはSSEでベストエフォート配信する。
// 永続化されたレコードが唯一の信頼できる記録であり、リアルタイム配信の
// 失敗は呼び出し元の処理結果に影響しない。
package notification
