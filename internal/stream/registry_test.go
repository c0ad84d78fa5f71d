package stream

import (
	"testing"
	"time"
)

// TestRegistryCreate はチャネル登録のテスト。
func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	t.Run("登録したチャネルにイベントが届く", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		client := r.Create("user-1")
		r.Send("user-1", "notification", "payload-1")

		select {
		case ev := <-client.Events():
			if ev.Event != "notification" {
				t.Errorf("イベント名: got %v, want notification", ev.Event)
			}
			if ev.Data != "payload-1" {
				t.Errorf("ペイロード: got %v, want payload-1", ev.Data)
			}
		default:
			t.Fatal("イベントが届いていません")
		}
	})

	t.Run("同一ユーザーの再登録で既存チャネルが置き換えられる", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		first := r.Create("user-1")
		second := r.Create("user-1")

		if r.Len() != 1 {
			t.Errorf("登録数: got %d, want 1", r.Len())
		}

		// 旧チャネルは終了が通知される
		select {
		case <-first.Done():
		case <-time.After(time.Second):
			t.Fatal("旧チャネルが終了していません")
		}

		// 新チャネルにのみイベントが届く
		r.Send("user-1", "notification", "payload-1")
		select {
		case <-second.Events():
		default:
			t.Fatal("新チャネルにイベントが届いていません")
		}
		select {
		case <-first.Events():
			t.Fatal("旧チャネルにイベントが届いています")
		default:
		}
	})

	t.Run("別ユーザーのチャネルは独立している", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		client1 := r.Create("user-1")
		client2 := r.Create("user-2")

		r.Send("user-1", "notification", "for-user-1")

		select {
		case <-client1.Events():
		default:
			t.Fatal("user-1にイベントが届いていません")
		}
		select {
		case <-client2.Events():
			t.Fatal("user-2にイベントが届いています")
		default:
		}
	})
}

// TestRegistrySend はイベント送信のテスト。
func TestRegistrySend(t *testing.T) {
	t.Parallel()

	t.Run("未登録ユーザーへの送信は何もしない", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		// パニックやエラーにならないことを確認する
		r.Send("unknown-user", "notification", "payload")

		if r.Len() != 0 {
			t.Errorf("登録数: got %d, want 0", r.Len())
		}
	})

	t.Run("バッファ溢れでチャネルが破棄される", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		client := r.Create("user-1")
		for i := 0; i < clientBufferSize; i++ {
			r.Send("user-1", "notification", i)
		}

		// バッファ満杯の状態での送信は書き込み失敗になる
		r.Send("user-1", "notification", "overflow")

		if r.Len() != 0 {
			t.Errorf("登録数: got %d, want 0", r.Len())
		}
		select {
		case <-client.Done():
		case <-time.After(time.Second):
			t.Fatal("チャネルが終了していません")
		}
	})

	t.Run("削除後の送信は何もしない", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		client := r.Create("user-1")
		r.Remove("user-1")
		r.Send("user-1", "notification", "payload")

		select {
		case <-client.Events():
			t.Fatal("削除後のチャネルにイベントが届いています")
		default:
		}
	})
}

// TestRegistryRemoveClient は世代を考慮したチャネル削除のテスト。
func TestRegistryRemoveClient(t *testing.T) {
	t.Parallel()

	t.Run("自分のチャネルを削除できる", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		client := r.Create("user-1")
		r.RemoveClient("user-1", client)

		if r.Len() != 0 {
			t.Errorf("登録数: got %d, want 0", r.Len())
		}
	})

	t.Run("置き換え後の旧ハンドラは新チャネルを削除できない", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		old := r.Create("user-1")
		replacement := r.Create("user-1")

		// 旧ハンドラの後始末。新チャネルはそのまま残る
		r.RemoveClient("user-1", old)

		if r.Len() != 1 {
			t.Errorf("登録数: got %d, want 1", r.Len())
		}

		r.Send("user-1", "notification", "payload")
		select {
		case <-replacement.Events():
		default:
			t.Fatal("新チャネルにイベントが届いていません")
		}
	})
}

// TestRegistryShutdown は全チャネル一括クローズのテスト。
func TestRegistryShutdown(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	client1 := r.Create("user-1")
	client2 := r.Create("user-2")

	r.Shutdown()

	if r.Len() != 0 {
		t.Errorf("登録数: got %d, want 0", r.Len())
	}
	for _, client := range []*Client{client1, client2} {
		select {
		case <-client.Done():
		case <-time.After(time.Second):
			t.Fatal("チャネルが終了していません")
		}
	}
}
