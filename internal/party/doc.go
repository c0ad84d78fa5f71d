// Package party はタクシー相乗りパーティーの管理を提供する。
//
// パーティーの作成・取得に加えて、参加リクエストとホストによる承認の
// フローを扱う。参加リクエスト・承認の際には通知Dispatcherを通じて
// ホスト・参加者へ通知が配信される。
package party
