// Package app はタクシーポットサーバー全体を組み立てる。
// 単一のSQLiteデータベースと単一のGinエンジンの上に、各サービスの
// ルーティングとSSE接続レジストリを配線する。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	"github.com/taxipot/server/internal/chat"
	"github.com/taxipot/server/internal/config"
	"github.com/taxipot/server/internal/notification"
	"github.com/taxipot/server/internal/party"
	"github.com/taxipot/server/internal/settlement"
	"github.com/taxipot/server/internal/stream"
	"github.com/taxipot/server/internal/user"
	"github.com/taxipot/server/pkg/middleware"
)

// shutdownTimeout はグレースフルシャットダウンの猶予時間。
const shutdownTimeout = 10 * time.Second

// App はHTTPサーバーと依存リソースを束ねるアプリケーション本体。
type App struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はアプリケーション設定。
	cfg *config.Config
	// db はSQLiteデータベース接続。
	db *sql.DB
	// registry はSSE接続のレジストリ。
	registry *stream.Registry
}

// New は新しいAppを生成する。
// SQLiteデータベースの初期化、全サービスのスキーマ作成、
// ルーティングの配線を行う。
func New(cfg *config.Config) (*App, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("データベースディレクトリの作成に失敗: %w", err)
		}
	}

	dsn := cfg.DBPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	for _, init := range []func(*sql.DB) error{
		user.InitSchema,
		party.InitSchema,
		chat.InitSchema,
		notification.InitSchema,
		settlement.InitSchema,
	} {
		if err := init(sqlDB); err != nil {
			return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
		}
	}

	registry := stream.NewRegistry()

	users := user.NewStore(sqlDB)
	parties := party.NewStore(sqlDB)
	chatStore := chat.NewStore(sqlDB)
	notifier := notification.NewDispatcher(sqlDB, users, registry)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	// 認証不要の公開ルート
	public := router.Group("/api/v1")
	user.NewServer(sqlDB, cfg.JWTSecret).RegisterRoutes(public)

	// JWT認証が必要なルート
	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		party.NewServer(sqlDB, chatStore, notifier).RegisterRoutes(api)
		chat.NewServer(chatStore, parties).RegisterRoutes(api)
		notification.NewServer(sqlDB, registry).RegisterRoutes(api)
		settlement.NewServer(sqlDB, users, parties, chatStore, notifier).RegisterRoutes(api)
	}

	// ヘルスチェック
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "taxipot"})
	})

	// Prometheusメトリクス
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &App{
		router:   router,
		cfg:      cfg,
		db:       sqlDB,
		registry: registry,
	}, nil
}

// Run はHTTPサーバーを起動し、SIGINT/SIGTERMを受けるまでブロックする。
// シグナル受信後はSSE接続を閉じ、処理中のリクエストの完了を待ってから
// 停止する。
func (a *App) Run() error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", a.cfg.Port),
		Handler: a.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case sig := <-quit:
		slog.Info("シャットダウンを開始します", "signal", sig.String())
	}

	// SSE接続を先に閉じる。ハンドラ側のストリームループが終了し、
	// 以降のShutdownが長時間の接続に引きずられない
	a.registry.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}

	if err := a.db.Close(); err != nil {
		slog.Warn("データベースのクローズに失敗", "error", err)
	}

	slog.Info("シャットダウンが完了しました")
	return nil
}
