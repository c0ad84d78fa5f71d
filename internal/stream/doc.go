// Package stream はユーザーごとのSSE配信チャネルを管理するレジストリを提供する。
//
// 1ユーザーにつき高々1本のチャネルを保持し、再接続時は既存チャネルを
// クローズして置き換える。配信はベストエフォートであり、オフラインの
// ユーザーへの送信は何もせず、書き込みに失敗したチャネルは破棄される。
// レジストリは単一プロセス内のインメモリ構造であり、複数プロセスへの
// スケールアウトは想定しない。
package stream
