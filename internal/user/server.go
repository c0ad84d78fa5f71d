package user

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	userdb "github.com/taxipot/server/internal/user/db"
	"github.com/taxipot/server/pkg/middleware"
)

// minPasswordLength はパスワードの最低文字数。
const minPasswordLength = 8

// Server はユーザーサービスのHTTPハンドラ群。
type Server struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *userdb.Queries
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string
}

// NewServer は新しいユーザーサーバーを生成する。
func NewServer(sqlDB *sql.DB, jwtSecret string) *Server {
	return &Server{
		queries:   userdb.New(sqlDB),
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes は認証不要のAPIルーティングを設定する。
func (s *Server) RegisterRoutes(public *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		// 会員登録
		auth.POST("/register", s.handleRegister())
		// ログイン
		auth.POST("/login", s.handleLogin())
	}
}

// registerRequest は会員登録リクエストのJSON構造。
type registerRequest struct {
	// Email はログイン用メールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Nickname はアプリ内の表示名。
	Nickname string `json:"nickname" binding:"required"`
	// Password は平文パスワード。
	Password string `json:"password" binding:"required"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Email はログイン用メールアドレス。
	Email string `json:"email" binding:"required"`
	// Password は平文パスワード。
	Password string `json:"password" binding:"required"`
}

// userResponse はユーザーのJSONレスポンス構造。パスワードは含めない。
type userResponse struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Nickname は表示名。
	Nickname string `json:"nickname"`
}

// handleRegister は会員登録を処理するハンドラを返す。
// パスワードをbcryptでハッシュ化して保存し、JWTトークンを発行する。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if len(req.Password) < minPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "パスワードは8文字以上必要です"})
			return
		}

		// メールアドレスの重複チェック
		if _, err := s.queries.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email)); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは登録済みです"})
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パスワードの処理に失敗しました"})
			slog.Error("パスワードハッシュ化エラー", "error", err)
			return
		}

		userID := uuid.New().String()
		if err := s.queries.CreateUser(c.Request.Context(), userdb.CreateUserParams{
			ID:           userID,
			Email:        strings.ToLower(req.Email),
			Nickname:     req.Nickname,
			PasswordHash: string(hashed),
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの作成に失敗しました"})
			slog.Error("ユーザー作成エラー", "error", err)
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, userID, req.Nickname)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			slog.Error("JWT発行エラー", "error", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user": userResponse{
				ID:       userID,
				Email:    strings.ToLower(req.Email),
				Nickname: req.Nickname,
			},
		})
	}
}

// handleLogin はログインを処理するハンドラを返す。
// 認証に成功した場合、JWTトークンを発行する。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		u, err := s.queries.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
		if err != nil {
			// 存在有無を悟らせないため、パスワード不一致と同じ応答にする
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが違います"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが違います"})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, u.ID, u.Nickname)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			slog.Error("JWT発行エラー", "error", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": userResponse{
				ID:       u.ID,
				Email:    u.Email,
				Nickname: u.Nickname,
			},
		})
	}
}
