package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"
)

// staticMembers はテスト用の固定メンバーシップ。
type staticMembers map[string]bool

func (m staticMembers) IsMember(_ context.Context, _, userID string) (bool, error) {
	return m[userID], nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestStore はテスト用のチャットストアをインメモリSQLiteで構築する。
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := InitSchema(sqlDB); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}

	return NewStore(sqlDB)
}

// TestStoreCreateRoom はチャットルーム作成のテスト。
func TestStoreCreateRoom(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)

	roomID, err := store.CreateRoom(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("チャットルームの作成に失敗: %v", err)
	}

	room, err := store.RoomByPartyID(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("チャットルームの取得に失敗: %v", err)
	}
	if room.ID != roomID {
		t.Errorf("ルームID: got %v, want %v", room.ID, roomID)
	}
	if room.IsClosed != 0 {
		t.Error("作成直後のルームが閉鎖済みになっています")
	}
}

// TestStorePostSystemMessage はシステムメッセージ投稿のテスト。
func TestStorePostSystemMessage(t *testing.T) {
	t.Parallel()

	t.Run("メッセージが追記されサマリーが更新される", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)
		roomID, err := store.CreateRoom(context.Background(), "party-1")
		if err != nil {
			t.Fatalf("チャットルームの作成に失敗: %v", err)
		}

		if err := store.PostSystemMessage(context.Background(), "party-1", "정산이 시작되었습니다."); err != nil {
			t.Fatalf("システムメッセージの投稿に失敗: %v", err)
		}

		messages, err := store.MessagesByRoomID(context.Background(), roomID)
		if err != nil {
			t.Fatalf("メッセージ一覧の取得に失敗: %v", err)
		}
		if len(messages) != 1 {
			t.Fatalf("メッセージ数: got %d, want 1", len(messages))
		}
		if messages[0].Type != MessageTypeSystem {
			t.Errorf("type: got %v, want %v", messages[0].Type, MessageTypeSystem)
		}
		if messages[0].SenderID != "" {
			t.Errorf("sender_id: got %q, want 空文字列", messages[0].SenderID)
		}
		if messages[0].Content != "정산이 시작되었습니다." {
			t.Errorf("content: got %q", messages[0].Content)
		}

		room, err := store.RoomByPartyID(context.Background(), "party-1")
		if err != nil {
			t.Fatalf("チャットルームの取得に失敗: %v", err)
		}
		if !room.LastMessage.Valid || room.LastMessage.String != "정산이 시작되었습니다." {
			t.Errorf("last_message: got %v", room.LastMessage)
		}
		if !room.LastMessageAt.Valid {
			t.Error("last_message_atが更新されていません")
		}
	})

	t.Run("ルームが存在しない場合は何もせず成功する", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)

		if err := store.PostSystemMessage(context.Background(), "no-such-party", "메시지"); err != nil {
			t.Errorf("ルーム不在時の投稿がエラーになりました: %v", err)
		}
	})

	t.Run("閉鎖済みルームには投稿されない", func(t *testing.T) {
		t.Parallel()
		store := setupTestStore(t)
		roomID, err := store.CreateRoom(context.Background(), "party-1")
		if err != nil {
			t.Fatalf("チャットルームの作成に失敗: %v", err)
		}
		if err := store.CloseRoom(context.Background(), roomID); err != nil {
			t.Fatalf("チャットルームの閉鎖に失敗: %v", err)
		}

		if err := store.PostSystemMessage(context.Background(), "party-1", "메시지"); err != nil {
			t.Errorf("閉鎖済みルームへの投稿がエラーになりました: %v", err)
		}

		messages, err := store.MessagesByRoomID(context.Background(), roomID)
		if err != nil {
			t.Fatalf("メッセージ一覧の取得に失敗: %v", err)
		}
		if len(messages) != 0 {
			t.Errorf("メッセージ数: got %d, want 0", len(messages))
		}
	})
}

// TestHandleListMessages はチャットメッセージ一覧取得ハンドラのテスト。
func TestHandleListMessages(t *testing.T) {
	t.Parallel()

	setupRouter := func(t *testing.T) (*Store, *gin.Engine) {
		t.Helper()
		store := setupTestStore(t)
		router := gin.New()
		api := router.Group("/api/v1")
		api.Use(func(c *gin.Context) {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set("user_id", userID)
			}
			c.Next()
		})
		NewServer(store, staticMembers{"user-1": true}).RegisterRoutes(api)
		return store, router
	}

	doRequest := func(router *gin.Engine, path, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if userID != "" {
			req.Header.Set("X-User-ID", userID)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("メッセージを投稿順に取得できる", func(t *testing.T) {
		t.Parallel()
		store, router := setupRouter(t)
		if _, err := store.CreateRoom(context.Background(), "party-1"); err != nil {
			t.Fatalf("チャットルームの作成に失敗: %v", err)
		}
		if err := store.PostSystemMessage(context.Background(), "party-1", "첫 번째"); err != nil {
			t.Fatalf("投稿に失敗: %v", err)
		}
		if err := store.PostSystemMessage(context.Background(), "party-1", "두 번째"); err != nil {
			t.Fatalf("投稿に失敗: %v", err)
		}

		w := doRequest(router, "/api/v1/parties/party-1/messages", "user-1")

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		var result []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("JSONのデコードに失敗: %v", err)
		}
		if len(result) != 2 {
			t.Fatalf("メッセージ数: got %d, want 2", len(result))
		}
		if result[0]["content"] != "첫 번째" {
			t.Errorf("先頭のcontent: got %v, want 첫 번째", result[0]["content"])
		}
		if result[0]["type"] != MessageTypeSystem {
			t.Errorf("type: got %v, want %v", result[0]["type"], MessageTypeSystem)
		}
	})

	t.Run("ルームが存在しない場合はNotFound", func(t *testing.T) {
		t.Parallel()
		_, router := setupRouter(t)

		w := doRequest(router, "/api/v1/parties/no-such-party/messages", "user-1")

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("パーティーメンバーでない場合はForbidden", func(t *testing.T) {
		t.Parallel()
		store, router := setupRouter(t)
		if _, err := store.CreateRoom(context.Background(), "party-1"); err != nil {
			t.Fatalf("チャットルームの作成に失敗: %v", err)
		}

		w := doRequest(router, "/api/v1/parties/party-1/messages", "stranger-1")

		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("ユーザーIDが未設定の場合はUnauthorized", func(t *testing.T) {
		t.Parallel()
		_, router := setupRouter(t)

		w := doRequest(router, "/api/v1/parties/party-1/messages", "")

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}
