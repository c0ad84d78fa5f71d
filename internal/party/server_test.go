package party

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/taxipot/server/internal/chat"
	"github.com/taxipot/server/internal/notification"
	notificationdb "github.com/taxipot/server/internal/notification/db"
	partydb "github.com/taxipot/server/internal/party/db"
	"github.com/taxipot/server/internal/stream"
	"github.com/taxipot/server/internal/user"
	userdb "github.com/taxipot/server/internal/user/db"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv はパーティーテストに必要なサーバーと依存リソースを束ねる。
type testEnv struct {
	server        *Server
	router        *gin.Engine
	db            *sql.DB
	chatStore     *chat.Store
	notifications *notificationdb.Queries
}

// setupTestServer はテスト用のパーティーサーバーをインメモリSQLiteで構築する。
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	for _, initFn := range []func(*sql.DB) error{
		user.InitSchema,
		InitSchema,
		chat.InitSchema,
		notification.InitSchema,
	} {
		if err := initFn(sqlDB); err != nil {
			t.Fatalf("スキーマ初期化に失敗: %v", err)
		}
	}

	registry := stream.NewRegistry()
	t.Cleanup(registry.Shutdown)

	users := user.NewStore(sqlDB)
	chatStore := chat.NewStore(sqlDB)
	notifier := notification.NewDispatcher(sqlDB, users, registry)

	s := NewServer(sqlDB, chatStore, notifier)

	router := gin.New()
	// JWTミドルウェアの代わりにテスト用のユーザーID設定ミドルウェアを使用する
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		if nickname := c.GetHeader("X-Nickname"); nickname != "" {
			c.Set("nickname", nickname)
		}
		c.Next()
	})
	s.RegisterRoutes(api)

	return &testEnv{
		server:        s,
		router:        router,
		db:            sqlDB,
		chatStore:     chatStore,
		notifications: notificationdb.New(sqlDB),
	}
}

// createTestUser はテスト用ユーザーをDBに直接挿入するヘルパー関数。
func createTestUser(t *testing.T, env *testEnv, id, nickname string) {
	t.Helper()
	err := userdb.New(env.db).CreateUser(context.Background(), userdb.CreateUserParams{
		ID:           id,
		Email:        id + "@example.com",
		Nickname:     nickname,
		PasswordHash: "hashed",
	})
	if err != nil {
		t.Fatalf("テスト用ユーザーの作成に失敗: %v", err)
	}
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
func doRequest(router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-Nickname", userID+"-名")
	}

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

// createTestPartyVia はAPIを通じてパーティーを作成し、IDを返すヘルパー関数。
func createTestPartyVia(t *testing.T, env *testEnv, hostID string, maxMembers int) string {
	t.Helper()
	w := doRequest(env.router, http.MethodPost, "/api/v1/parties", hostID, map[string]any{
		"origin":       "기숙사",
		"destination":  "서울역",
		"departure_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"max_members":  maxMembers,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("パーティーの作成に失敗: status=%d, body=%s", w.Code, w.Body.String())
	}
	result := parseJSON(t, w)
	id, ok := result["id"].(string)
	if !ok || id == "" {
		t.Fatalf("パーティーIDが返されていません: %v", result)
	}
	return id
}

// countNotifications はユーザーの通知レコード数を返すヘルパー関数。
func countNotifications(t *testing.T, env *testEnv, userID string) int {
	t.Helper()
	notifications, err := env.notifications.ListNotificationsByUserID(context.Background(), notificationdb.ListNotificationsByUserIDParams{
		UserID: userID,
		Limit:  100,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("通知一覧の取得に失敗: %v", err)
	}
	return len(notifications)
}

// TestHandleCreateParty はパーティー作成ハンドラのテスト。
func TestHandleCreateParty(t *testing.T) {
	t.Parallel()

	t.Run("パーティーとホストメンバーとチャットルームが作成される", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")

		partyID := createTestPartyVia(t, env, "host-1", 4)

		member, err := env.server.queries.GetPartyMember(context.Background(), partydb.GetPartyMemberParams{
			PartyID: partyID,
			UserID:  "host-1",
		})
		if err != nil {
			t.Fatalf("ホストメンバーの取得に失敗: %v", err)
		}
		if member.Status != MemberStatusAccepted {
			t.Errorf("ホストのstatus: got %v, want %v", member.Status, MemberStatusAccepted)
		}

		if _, err := env.chatStore.RoomByPartyID(context.Background(), partyID); err != nil {
			t.Errorf("チャットルームが作成されていません: %v", err)
		}
	})

	t.Run("最大人数未指定の場合は4人になる", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")

		partyID := createTestPartyVia(t, env, "host-1", 0)

		p, err := env.server.queries.GetPartyByID(context.Background(), partyID)
		if err != nil {
			t.Fatalf("パーティーの取得に失敗: %v", err)
		}
		if p.MaxMembers != 4 {
			t.Errorf("max_members: got %d, want 4", p.MaxMembers)
		}
	})

	t.Run("必須フィールド欠落はBadRequest", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")

		w := doRequest(env.router, http.MethodPost, "/api/v1/parties", "host-1", map[string]any{
			"origin": "기숙사",
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleGetParty はパーティー詳細取得ハンドラのテスト。
func TestHandleGetParty(t *testing.T) {
	t.Parallel()

	t.Run("パーティーとメンバー一覧を取得できる", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		w := doRequest(env.router, http.MethodGet, "/api/v1/parties/"+partyID, "host-1", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		result := parseJSON(t, w)
		party, ok := result["party"].(map[string]any)
		if !ok {
			t.Fatalf("party: got %v", result["party"])
		}
		if party["host_id"] != "host-1" {
			t.Errorf("host_id: got %v, want host-1", party["host_id"])
		}
		members, ok := result["members"].([]any)
		if !ok || len(members) != 1 {
			t.Errorf("members: got %v, want 1件", result["members"])
		}
	})

	t.Run("存在しないパーティーはNotFound", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")

		w := doRequest(env.router, http.MethodGet, "/api/v1/parties/no-such-id", "host-1", nil)

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleJoin は参加リクエストハンドラのテスト。
func TestHandleJoin(t *testing.T) {
	t.Parallel()

	t.Run("参加リクエストが承認待ちで作成されホストに通知が届く", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		createTestUser(t, env, "user-1", "メンバー1")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)

		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}

		member, err := env.server.queries.GetPartyMember(context.Background(), partydb.GetPartyMemberParams{
			PartyID: partyID,
			UserID:  "user-1",
		})
		if err != nil {
			t.Fatalf("メンバーの取得に失敗: %v", err)
		}
		if member.Status != MemberStatusPending {
			t.Errorf("status: got %v, want %v", member.Status, MemberStatusPending)
		}

		if got := countNotifications(t, env, "host-1"); got != 1 {
			t.Errorf("ホストの通知数: got %d, want 1", got)
		}
	})

	t.Run("ホストの自己参加はBadRequest", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "host-1", nil)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("二重の参加リクエストはConflict", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		createTestUser(t, env, "user-1", "メンバー1")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)
		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)

		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("満員のパーティーへの参加リクエストはConflict", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		createTestUser(t, env, "user-1", "メンバー1")
		// ホストのみで満員
		partyID := createTestPartyVia(t, env, "host-1", 1)

		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)

		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("存在しないパーティーはNotFound", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "user-1", "メンバー1")

		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/no-such-id/join", "user-1", nil)

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleAccept は参加承認ハンドラのテスト。
func TestHandleAccept(t *testing.T) {
	t.Parallel()

	t.Run("ホストが参加リクエストを承認できる", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		createTestUser(t, env, "user-1", "メンバー1")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)
		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/accept", "host-1", map[string]any{
			"user_id": "user-1",
		})

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		member, err := env.server.queries.GetPartyMember(context.Background(), partydb.GetPartyMemberParams{
			PartyID: partyID,
			UserID:  "user-1",
		})
		if err != nil {
			t.Fatalf("メンバーの取得に失敗: %v", err)
		}
		if member.Status != MemberStatusAccepted {
			t.Errorf("status: got %v, want %v", member.Status, MemberStatusAccepted)
		}

		// 承認されたユーザーに通知が届く
		if got := countNotifications(t, env, "user-1"); got != 1 {
			t.Errorf("user-1の通知数: got %d, want 1", got)
		}
	})

	t.Run("ホスト以外は承認できない", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		createTestUser(t, env, "user-1", "メンバー1")
		createTestUser(t, env, "user-2", "メンバー2")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)
		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/accept", "user-2", map[string]any{
			"user_id": "user-1",
		})

		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("参加リクエストが存在しない場合はNotFound", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/accept", "host-1", map[string]any{
			"user_id": "stranger",
		})

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("承認済みメンバーへの再承認は何もしない", func(t *testing.T) {
		t.Parallel()
		env := setupTestServer(t)
		createTestUser(t, env, "host-1", "ホスト")
		createTestUser(t, env, "user-1", "メンバー1")
		partyID := createTestPartyVia(t, env, "host-1", 4)

		doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)
		doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/accept", "host-1", map[string]any{
			"user_id": "user-1",
		})
		before := countNotifications(t, env, "user-1")

		w := doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/accept", "host-1", map[string]any{
			"user_id": "user-1",
		})

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		// 通知は増えない
		if got := countNotifications(t, env, "user-1"); got != before {
			t.Errorf("user-1の通知数: got %d, want %d", got, before)
		}
	})
}

// TestStoreIsMember はパーティーメンバーシップ判定のテスト。
func TestStoreIsMember(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	store := NewStore(env.db)
	createTestUser(t, env, "host-1", "ホスト")
	createTestUser(t, env, "user-1", "メンバー1")
	createTestUser(t, env, "user-2", "メンバー2")
	createTestUser(t, env, "user-3", "部外者")
	partyID := createTestPartyVia(t, env, "host-1", 4)

	// user-1は承認済み、user-2は承認待ちのまま
	doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-1", nil)
	doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/join", "user-2", nil)
	doRequest(env.router, http.MethodPost, "/api/v1/parties/"+partyID+"/accept", "host-1", map[string]any{"user_id": "user-1"})

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"ホストはメンバー", "host-1", true},
		{"承認済みメンバー", "user-1", true},
		{"承認待ちはメンバーでない", "user-2", false},
		{"参加していないユーザー", "user-3", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.IsMember(context.Background(), partyID, tt.userID)
			if err != nil {
				t.Fatalf("メンバーシップ判定に失敗: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsMember(%q): got %v, want %v", tt.userID, got, tt.want)
			}
		})
	}

	t.Run("パーティーが存在しない場合はfalse", func(t *testing.T) {
		got, err := store.IsMember(context.Background(), "no-such-party", "host-1")
		if err != nil {
			t.Fatalf("メンバーシップ判定に失敗: %v", err)
		}
		if got {
			t.Error("存在しないパーティーでtrueが返りました")
		}
	})
}
