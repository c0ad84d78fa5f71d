package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// defaultIdleTimeout はチャネルのアイドルタイムアウト。
	// この時間イベントが届かないチャネルは自動的に切断される。
	defaultIdleTimeout = 30 * time.Minute
	// clientBufferSize は1クライアントあたりのイベントバッファ数。
	// バッファが溢れた場合は書き込み失敗としてチャネルを破棄する。
	clientBufferSize = 16
)

var (
	// activeConnections は現在接続中のSSEチャネル数。
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taxipot_sse_connections",
		Help: "Number of live SSE push channels.",
	})
	// eventsDelivered はチャネルへの書き込みに成功したイベント数。
	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxipot_sse_events_delivered_total",
		Help: "Number of push events written to a live channel.",
	})
	// eventsDropped は書き込みに失敗して破棄されたイベント数。
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxipot_sse_events_dropped_total",
		Help: "Number of push events dropped due to a dead or full channel.",
	})
)

// Client は1ユーザー分のSSE配信チャネルを表す。
// Registryが生成し、SSEハンドラがEvents/Doneを監視する。
type Client struct {
	// userID はこのチャネルの所有ユーザーID。
	userID string
	// events は配信待ちイベントのバッファ付きチャネル。
	events chan sse.Event
	// done はチャネルの終了（置き換え・明示削除・シャットダウン）を通知する。
	done chan struct{}
	// closeOnce はdoneの二重クローズを防ぐ。
	closeOnce sync.Once
}

// Events は配信イベントの受信チャネルを返す。
func (c *Client) Events() <-chan sse.Event {
	return c.events
}

// Done はチャネル終了の通知チャネルを返す。
// クローズされた後のクライアントにイベントが届くことはない。
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// close はチャネルを終了状態にする。複数回呼んでも安全。
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Registry はユーザーIDとSSE配信チャネルの対応を管理する。
// 1ユーザーにつき高々1チャネルという不変条件をミューテックスで保証する。
// プロセス起動時に1つ生成し、全コンポーネントで共有する。
type Registry struct {
	// mu はclientsへの並行アクセスを保護するミューテックス。
	mu sync.Mutex
	// clients はユーザーIDからチャネルへのマップ。
	clients map[string]*Client
	// idleTimeout はチャネルのアイドルタイムアウト。
	idleTimeout time.Duration
}

// NewRegistry は新しいRegistryを生成する。
func NewRegistry() *Registry {
	return &Registry{
		clients:     make(map[string]*Client),
		idleTimeout: defaultIdleTimeout,
	}
}

// IdleTimeout はチャネルのアイドルタイムアウトを返す。
// SSEハンドラがタイマー設定に使用する。
func (r *Registry) IdleTimeout() time.Duration {
	return r.idleTimeout
}

// Create はユーザーの新しい配信チャネルを登録して返す。
// 同一ユーザーの既存チャネルが存在する場合は先にクローズして置き換える。
func (r *Registry) Create(userID string) *Client {
	client := &Client{
		userID: userID,
		events: make(chan sse.Event, clientBufferSize),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	old, replaced := r.clients[userID]
	r.clients[userID] = client
	r.mu.Unlock()

	if replaced {
		old.close()
		slog.Info("既存のSSEチャネルを置き換えました", "user_id", userID)
	} else {
		activeConnections.Inc()
	}
	return client
}

// Send は指定ユーザーのチャネルにイベントを書き込む。
// チャネルが未登録の場合は何もしない（受信者はオフラインであり、
// 次回のポーリングで通知レコードを取得できる）。書き込みに失敗した
// 場合はチャネルを破棄する。いずれの場合も呼び出し元にエラーは返さない。
func (r *Registry) Send(userID, name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[userID]
	if !ok {
		slog.Debug("SSEチャネル未登録のため配信をスキップ", "user_id", userID)
		return
	}

	select {
	case client.events <- sse.Event{Event: name, Data: payload}:
		eventsDelivered.Inc()
	case <-client.done:
		// ハンドラ側で終了済み。エントリが残っていれば回収する。
		r.evictLocked(userID, client)
		eventsDropped.Inc()
		slog.Warn("終了済みSSEチャネルへの配信を破棄", "user_id", userID)
	default:
		// バッファ溢れは書き込み失敗として扱い、チャネルを破棄する。
		client.close()
		r.evictLocked(userID, client)
		eventsDropped.Inc()
		slog.Warn("SSEチャネルのバッファ溢れによりチャネルを破棄", "user_id", userID)
	}
}

// Remove は指定ユーザーのチャネルを削除してクローズする。
// チャネルが存在しない場合は何もしない。
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	client, ok := r.clients[userID]
	if ok {
		delete(r.clients, userID)
		activeConnections.Dec()
	}
	r.mu.Unlock()

	if ok {
		client.close()
	}
}

// RemoveClient は指定のクライアントが現在登録されている場合に限り削除する。
// 置き換え後に旧ハンドラが後始末で呼んでも、新しいチャネルを巻き込まない。
func (r *Registry) RemoveClient(userID string, client *Client) {
	r.mu.Lock()
	r.evictLocked(userID, client)
	r.mu.Unlock()

	client.close()
}

// evictLocked はエントリが引数のクライアントを指している場合のみ削除する。
// 呼び出し側でmuを保持していること。
func (r *Registry) evictLocked(userID string, client *Client) {
	if current, ok := r.clients[userID]; ok && current == client {
		delete(r.clients, userID)
		activeConnections.Dec()
	}
}

// Len は登録中のチャネル数を返す。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Shutdown は全チャネルをクローズして登録を空にする。
// サーバー終了時に呼び出す。
func (r *Registry) Shutdown() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	for _, client := range clients {
		client.close()
		activeConnections.Dec()
	}
	if len(clients) > 0 {
		slog.Info("全SSEチャネルをクローズしました", "count", len(clients))
	}
}
