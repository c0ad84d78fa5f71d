// Package user はユーザーアカウントの管理と認証を提供する。
//
// 会員登録・ログインのHTTP APIに加えて、他パッケージが受信者解決や
// 表示名の取得に使うユーザーディレクトリ（Store）を公開する。
package user
