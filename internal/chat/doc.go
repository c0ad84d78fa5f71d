// Package chat はパーティーごとのチャットルームとメッセージを管理する。
//
// 精算の作成・催促時に投稿されるシステムメッセージの追記と、ルームの
// 「最終メッセージ」サマリー更新を担当する。チャット本体のリアルタイム
// 配信（WebSocket）はこのリポジトリの範囲外であり、ここではルームの
// ディレクトリとメッセージの永続化のみを提供する。
package chat
