package user

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key"

// setupTestServer はテスト用のユーザーサーバーをインメモリSQLiteで構築する。
func setupTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := InitSchema(sqlDB); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}

	s := NewServer(sqlDB, testJWTSecret)

	router := gin.New()
	public := router.Group("/api/v1")
	s.RegisterRoutes(public)

	return s, router
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	jsonBytes, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(jsonBytes))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseJSON はレスポンスボディをmapにデコードするヘルパー関数。
func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSONのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// TestHandleRegister は会員登録ハンドラのテスト。
func TestHandleRegister(t *testing.T) {
	t.Parallel()

	t.Run("登録に成功するとトークンとユーザー情報が返る", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email":    "Suni@Example.com",
			"nickname": "수니",
			"password": "password123",
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}
		result := parseJSON(t, w)
		if result["token"] == nil || result["token"] == "" {
			t.Error("トークンが返されていません")
		}
		u, ok := result["user"].(map[string]any)
		if !ok {
			t.Fatalf("user: got %v", result["user"])
		}
		// メールアドレスは小文字に正規化される
		if u["email"] != "suni@example.com" {
			t.Errorf("email: got %v, want suni@example.com", u["email"])
		}
		if u["nickname"] != "수니" {
			t.Errorf("nickname: got %v, want 수니", u["nickname"])
		}
	})

	t.Run("パスワードが短い場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email":    "suni@example.com",
			"nickname": "수니",
			"password": "short",
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("メールアドレスの形式が不正な場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email":    "not-an-email",
			"nickname": "수니",
			"password": "password123",
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("登録済みメールアドレスはConflict", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		doRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email":    "suni@example.com",
			"nickname": "수니",
			"password": "password123",
		})

		// 大文字小文字の違いも同一メールアドレスとして扱う
		w := doRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email":    "SUNI@example.com",
			"nickname": "別の수니",
			"password": "password456",
		})

		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusConflict)
		}
	})
}

// TestHandleLogin はログインハンドラのテスト。
func TestHandleLogin(t *testing.T) {
	t.Parallel()

	t.Run("正しい資格情報でログインできる", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		doRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email":    "suni@example.com",
			"nickname": "수니",
			"password": "password123",
		})

		w := doRequest(router, http.MethodPost, "/api/v1/auth/login", map[string]any{
			"email":    "suni@example.com",
			"password": "password123",
		})

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		result := parseJSON(t, w)
		if result["token"] == nil || result["token"] == "" {
			t.Error("トークンが返されていません")
		}
	})

	t.Run("パスワードが違う場合はUnauthorized", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		doRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email":    "suni@example.com",
			"nickname": "수니",
			"password": "password123",
		})

		w := doRequest(router, http.MethodPost, "/api/v1/auth/login", map[string]any{
			"email":    "suni@example.com",
			"password": "wrong-password",
		})

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("未登録メールアドレスもUnauthorized", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doRequest(router, http.MethodPost, "/api/v1/auth/login", map[string]any{
			"email":    "unknown@example.com",
			"password": "password123",
		})

		// 存在有無を悟らせないため404ではなく401を返す
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}
