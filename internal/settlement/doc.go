// Package settlement は相乗り運賃の精算ライフサイクルを管理する。
//
// 精算はパーティーごとに1件だけ作成でき、ホストが立て替えた運賃を
// 参加者が支払う。全参加者の支払いが完了した時点で精算は自動的に
// COMPLETED状態へ遷移し、以後は戻らない。精算の作成・催促の際には
// 参加者への通知とチャットルームへのシステムメッセージが付随するが、
// いずれもベストエフォートであり、失敗しても精算操作自体は成功する。
package settlement
