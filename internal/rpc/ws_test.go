package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsServer is a tiny JSON-RPC websocket peer driven by a per-test handler.
type wsServer struct {
	srv   *httptest.Server
	mu    sync.Mutex
	conns []*websocket.Conn
}

func newWSServer(t *testing.T, handle func(conn *websocket.Conn, req Request)) *wsServer {
	t.Helper()
	ws := &wsServer{}
	upgrader := websocket.Upgrader{}
	ws.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.mu.Lock()
		ws.conns = append(ws.conns, conn)
		ws.mu.Unlock()
		var writeMu sync.Mutex
		for {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			go func(req Request) {
				writeMu.Lock()
				defer writeMu.Unlock()
				handle(conn, req)
			}(req)
		}
	}))
	t.Cleanup(ws.srv.Close)
	return ws
}

func (ws *wsServer) url() string {
	return "ws" + strings.TrimPrefix(ws.srv.URL, "http")
}

func (ws *wsServer) dropAll() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, c := range ws.conns {
		c.Close()
	}
}

func reply(conn *websocket.Conn, id uint64, result interface{}) {
	conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": result})
}

func notification(conn *websocket.Conn, sub string, result interface{}) {
	conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "eth_subscription",
		"params":  map[string]interface{}{"subscription": sub, "result": result},
	})
}

func TestWSTransportOutOfOrderResponses(t *testing.T) {
	var mu sync.Mutex
	var held []Request
	ws := newWSServer(t, func(conn *websocket.Conn, req Request) {
		mu.Lock()
		defer mu.Unlock()
		held = append(held, req)
		if len(held) < 2 {
			return
		}
		// answer in reverse order of arrival
		for i := len(held) - 1; i >= 0; i-- {
			reply(conn, held[i].ID, held[i].Method)
		}
	})

	tr, err := DialWebsocket(context.Background(), ws.url(), time.Second)
	require.NoError(t, err)
	defer tr.Close()

	var wg sync.WaitGroup
	results := make(map[string]string)
	var rmu sync.Mutex
	for _, method := range []string{"net_version", "eth_chainId"} {
		wg.Add(1)
		go func(method string) {
			defer wg.Done()
			raw, err := tr.Execute(context.Background(), method)
			assert.NoError(t, err)
			var got string
			assert.NoError(t, json.Unmarshal(raw, &got))
			rmu.Lock()
			results[method] = got
			rmu.Unlock()
		}(method)
	}
	wg.Wait()

	assert.Equal(t, "net_version", results["net_version"])
	assert.Equal(t, "eth_chainId", results["eth_chainId"])
}

func TestWSTransportRPCError(t *testing.T) {
	ws := newWSServer(t, func(conn *websocket.Conn, req Request) {
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32602, "message": "invalid params"},
		})
	})
	tr, err := DialWebsocket(context.Background(), ws.url(), time.Second)
	require.NoError(t, err)
	defer tr.Close()

	_, err = tr.Execute(context.Background(), "eth_getBalance")
	require.Error(t, err)
	assert.Equal(t, KindRPC, KindOf(err))
}

func TestWSTransportSubscription(t *testing.T) {
	ws := newWSServer(t, func(conn *websocket.Conn, req Request) {
		switch req.Method {
		case "eth_subscribe":
			// the first notification races ahead of the subscribe response
			notification(conn, "0xabc", 1)
			reply(conn, req.ID, "0xabc")
			notification(conn, "0xabc", 2)
			notification(conn, "0xabc", 3)
		case "eth_unsubscribe":
			reply(conn, req.ID, true)
		}
	})
	tr, err := DialWebsocket(context.Background(), ws.url(), time.Second)
	require.NoError(t, err)
	defer tr.Close()

	got := make(chan int, 8)
	id, err := tr.Subscribe(context.Background(), "eth", func(err error, result json.RawMessage) {
		assert.NoError(t, err)
		var n int
		assert.NoError(t, json.Unmarshal(result, &n))
		got <- n
	}, "newHeads")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", id)

	for want := 1; want <= 3; want++ {
		select {
		case n := <-got:
			assert.Equal(t, want, n)
		case <-time.After(2 * time.Second):
			t.Fatalf("notification %d not delivered", want)
		}
	}

	ok, err := tr.Unsubscribe(context.Background(), "eth", id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWSTransportEarlyNotificationsExpire(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tr := &WSTransport{
		subs:  make(map[string]*wsSubscription),
		early: make(map[string]*earlyBatch),
		now:   func() time.Time { return now },
	}

	tr.notify(subscriptionParams{Subscription: "0xstale", Result: json.RawMessage(`1`)})
	tr.notify(subscriptionParams{Subscription: "0xstale", Result: json.RawMessage(`2`)})
	require.Len(t, tr.early, 1)
	assert.Len(t, tr.early["0xstale"].results, 2)

	now = now.Add(earlyNotificationTTL + time.Second)
	tr.notify(subscriptionParams{Subscription: "0xfresh", Result: json.RawMessage(`3`)})
	assert.NotContains(t, tr.early, "0xstale")
	assert.Contains(t, tr.early, "0xfresh")
}

func TestWSTransportUnsubscribeDropsLateNotifications(t *testing.T) {
	ws := newWSServer(t, func(conn *websocket.Conn, req Request) {
		switch req.Method {
		case "eth_subscribe":
			reply(conn, req.ID, "0xabc")
		case "eth_unsubscribe":
			// still in flight on the server side
			notification(conn, "0xabc", 9)
			reply(conn, req.ID, true)
		}
	})
	tr, err := DialWebsocket(context.Background(), ws.url(), time.Second)
	require.NoError(t, err)
	defer tr.Close()

	id, err := tr.Subscribe(context.Background(), "eth", func(error, json.RawMessage) {}, "newHeads")
	require.NoError(t, err)
	ok, err := tr.Unsubscribe(context.Background(), "eth", id)
	require.NoError(t, err)
	assert.True(t, ok)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Empty(t, tr.early)
}

func TestWSTransportDropCancelsEverything(t *testing.T) {
	release := make(chan struct{})
	ws := newWSServer(t, func(conn *websocket.Conn, req Request) {
		switch req.Method {
		case "eth_subscribe":
			reply(conn, req.ID, "0x1")
		case "eth_blockNumber":
			<-release
		}
	})
	defer close(release)

	tr, err := DialWebsocket(context.Background(), ws.url(), time.Second)
	require.NoError(t, err)
	defer tr.Close()

	subErr := make(chan error, 1)
	_, err = tr.Subscribe(context.Background(), "eth", func(err error, _ json.RawMessage) {
		if err != nil {
			subErr <- err
		}
	}, "newHeads")
	require.NoError(t, err)

	callErr := make(chan error, 1)
	go func() {
		_, err := tr.Execute(context.Background(), "eth_blockNumber")
		callErr <- err
	}()
	time.Sleep(50 * time.Millisecond)
	ws.dropAll()

	select {
	case err := <-callErr:
		assert.Equal(t, KindTransport, KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight call not failed")
	}
	select {
	case err := <-subErr:
		assert.Equal(t, KindTransport, KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not cancelled")
	}

	_, err = tr.Execute(context.Background(), "eth_blockNumber")
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestDialSchemes(t *testing.T) {
	tr, err := Dial(context.Background(), "http://127.0.0.1:8545", time.Second)
	require.NoError(t, err)
	assert.IsType(t, &HTTPTransport{}, tr)

	_, err = Dial(context.Background(), "ipc:///tmp/node.ipc", time.Second)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestPoolReusesTransports(t *testing.T) {
	p := NewPool()
	a, err := p.GetOrDial(context.Background(), "local", "http://127.0.0.1:8545", time.Second)
	require.NoError(t, err)
	b, err := p.GetOrDial(context.Background(), "local", "http://127.0.0.1:9999", time.Second)
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, p.CloseAll())
	assert.Nil(t, p.Get("local"))
}
