// Package event は通知イベントの種類とSSE配信用ペイロードを定義する。
//
// 通知の種類ごとにタイトル・本文のテンプレートと、クリック時の
// クライアント側遷移先（ターゲット種類）を対応付ける。
package event
