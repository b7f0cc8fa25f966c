package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
)

const (
	wsReadBuffer       = 1024
	wsWriteBuffer      = 1024
	wsPingInterval     = 30 * time.Second
	wsPingWriteTimeout = 5 * time.Second
	wsReadLimit        = 32 * 1024 * 1024

	// notifications queued per subscription before it is dropped
	maxSubscriptionBuffer = 1024
	// notifications held for subscription ids whose subscribe call has not
	// returned yet
	maxEarlyNotifications = 128
	// how long unclaimed early notifications are kept
	earlyNotificationTTL = 10 * time.Second
)

var errConnectionClosed = errors.New("websocket connection closed")

// WSTransport multiplexes calls and subscriptions over one WebSocket.
// Responses are paired with calls by id, so concurrent calls may resolve in
// any order. When the connection drops every pending call fails and every
// subscription is cancelled; nothing is re-established automatically.
type WSTransport struct {
	conn    *websocket.Conn
	url     string
	timeout time.Duration
	nextID  atomic.Uint64

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *message
	subs    map[string]*wsSubscription
	early   map[string]*earlyBatch
	err     error
	now     func() time.Time

	closed    chan struct{}
	closeOnce sync.Once
}

// DialWebsocket opens the connection and starts the read loop. timeout
// bounds the handshake and each write.
func DialWebsocket(ctx context.Context, url string, timeout time.Duration) (*WSTransport, error) {
	dialer := websocket.Dialer{
		ReadBufferSize:   wsReadBuffer,
		WriteBufferSize:  wsWriteBuffer,
		HandshakeTimeout: timeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, &Error{Kind: KindHTTP, Code: resp.StatusCode, Message: "websocket handshake failed", Err: err}
		}
		return nil, classify(err, "websocket dial failed")
	}
	conn.SetReadLimit(wsReadLimit)

	t := &WSTransport{
		conn:    conn,
		url:     url,
		timeout: timeout,
		pending: make(map[uint64]chan *message),
		subs:    make(map[string]*wsSubscription),
		early:   make(map[string]*earlyBatch),
		now:     time.Now,
		closed:  make(chan struct{}),
	}
	go t.readLoop()
	go t.pingLoop()
	return t, nil
}

func (t *WSTransport) URL() string { return t.url }

// Execute sends one request and waits for the response with the same id.
func (t *WSTransport) Execute(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	id := t.nextID.Add(1)
	ch := make(chan *message, 1)

	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return nil, Wrap(KindTransport, err, "call "+method)
	}
	t.pending[id] = ch
	t.mu.Unlock()

	if err := t.write(newRequest(id, method, params)); err != nil {
		t.forget(id)
		return nil, classify(err, "write "+method)
	}
	log.Trace("RPC call", "transport", "ws", "method", method, "id", id)

	select {
	case msg := <-ch:
		if msg.Error != nil {
			return nil, msg.Error.toError()
		}
		return msg.Result, nil
	case <-t.closed:
		return nil, Wrap(KindTransport, t.closeErr(), "call "+method)
	case <-ctx.Done():
		t.forget(id)
		return nil, classify(ctx.Err(), "call "+method)
	}
}

// Subscribe opens a server push channel, see Subscriber.
func (t *WSTransport) Subscribe(ctx context.Context, namespace string, cb SubscriptionCallback, event string, params ...interface{}) (string, error) {
	if cb == nil {
		return "", Errorf(KindValidation, "subscription callback is required")
	}
	args := append([]interface{}{event}, params...)
	raw, err := t.Execute(ctx, namespace+"_subscribe", args...)
	if err != nil {
		return "", err
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", Wrap(KindParse, err, "decode subscription id")
	}

	sub := newWSSubscription(namespace, id, cb)
	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return "", Wrap(KindTransport, err, "subscribe")
	}
	t.subs[id] = sub
	if batch, ok := t.early[id]; ok {
		for _, result := range batch.results {
			sub.enqueue(result)
		}
		delete(t.early, id)
	}
	t.mu.Unlock()

	go sub.run()
	log.Debug("Subscription opened", "namespace", namespace, "event", event, "id", id)
	return id, nil
}

// Unsubscribe cancels the given subscriptions.
func (t *WSTransport) Unsubscribe(ctx context.Context, namespace string, ids ...string) (bool, error) {
	all := true
	for _, id := range ids {
		t.mu.Lock()
		sub, ok := t.subs[id]
		delete(t.subs, id)
		delete(t.early, id)
		t.mu.Unlock()
		if ok {
			sub.stop(nil)
		}

		raw, err := t.Execute(ctx, namespace+"_unsubscribe", id)
		// drop whatever arrived for id while the unsubscribe was in flight
		t.mu.Lock()
		delete(t.early, id)
		t.mu.Unlock()
		if err != nil {
			return false, err
		}
		var done bool
		if err := json.Unmarshal(raw, &done); err != nil {
			return false, Wrap(KindParse, err, "decode unsubscribe result")
		}
		all = all && done
	}
	return all, nil
}

// Close shuts the connection down, failing whatever is still in flight.
func (t *WSTransport) Close() error {
	t.shutdown(errConnectionClosed)
	return nil
}

func (t *WSTransport) write(v interface{}) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.timeout > 0 {
		t.conn.SetWriteDeadline(time.Now().Add(t.timeout))
	}
	return t.conn.WriteJSON(v)
}

func (t *WSTransport) forget(id uint64) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *WSTransport) closeErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		return errConnectionClosed
	}
	return t.err
}

func (t *WSTransport) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.shutdown(err)
			return
		}
		var batch []*message
		if len(data) > 0 && data[0] == '[' {
			if err := json.Unmarshal(data, &batch); err != nil {
				log.Debug("Dropping malformed websocket message", "err", err)
				continue
			}
		} else {
			msg := new(message)
			if err := json.Unmarshal(data, msg); err != nil {
				log.Debug("Dropping malformed websocket message", "err", err)
				continue
			}
			batch = []*message{msg}
		}
		for _, msg := range batch {
			t.dispatch(msg)
		}
	}
}

func (t *WSTransport) dispatch(msg *message) {
	if msg.isNotification() {
		var params subscriptionParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			log.Debug("Dropping malformed notification", "method", msg.Method, "err", err)
			return
		}
		t.notify(params)
		return
	}
	if msg.ID == nil {
		log.Debug("Dropping message without id", "method", msg.Method)
		return
	}
	t.mu.Lock()
	ch, ok := t.pending[*msg.ID]
	delete(t.pending, *msg.ID)
	t.mu.Unlock()
	if !ok {
		log.Debug("Dropping response for unknown request", "id", *msg.ID)
		return
	}
	ch <- msg
}

func (t *WSTransport) notify(params subscriptionParams) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, ok := t.subs[params.Subscription]
	if !ok {
		// The subscribe response may still be on its way to the caller.
		t.bufferEarly(params.Subscription, params.Result)
		return
	}
	if params.Error != nil {
		delete(t.subs, params.Subscription)
		go sub.stop(params.Error.toError())
		return
	}
	if !sub.enqueue(params.Result) {
		delete(t.subs, params.Subscription)
		go sub.stop(Errorf(KindBusy, "subscription %s queue overflow", params.Subscription))
	}
}

// earlyBatch holds notifications that arrived before their subscription
// was registered.
type earlyBatch struct {
	first   time.Time
	results []json.RawMessage
}

// bufferEarly queues result for id. Callers hold t.mu. Batches nobody
// claimed within earlyNotificationTTL are discarded first.
func (t *WSTransport) bufferEarly(id string, result json.RawMessage) {
	now := t.now()
	for key, batch := range t.early {
		if now.Sub(batch.first) > earlyNotificationTTL {
			log.Debug("Dropping unclaimed notifications", "subscription", key, "count", len(batch.results))
			delete(t.early, key)
		}
	}
	batch, ok := t.early[id]
	if !ok {
		if len(t.early) >= maxEarlyNotifications {
			return
		}
		batch = &earlyBatch{first: now}
		t.early[id] = batch
	}
	if len(batch.results) < maxEarlyNotifications {
		batch.results = append(batch.results, result)
	}
}

func (t *WSTransport) shutdown(cause error) {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.err = cause
		subs := t.subs
		t.subs = make(map[string]*wsSubscription)
		t.pending = make(map[uint64]chan *message)
		t.early = make(map[string]*earlyBatch)
		t.mu.Unlock()

		close(t.closed)
		t.conn.Close()

		dropErr := Wrap(KindTransport, cause, "subscription cancelled, connection lost")
		for _, sub := range subs {
			sub.stop(dropErr)
		}
		if !errors.Is(cause, errConnectionClosed) {
			log.Warn("WebSocket connection lost", "url", t.url, "err", cause, "subscriptions", len(subs))
		}
	})
}

func (t *WSTransport) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.closed:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			t.conn.SetWriteDeadline(time.Now().Add(wsPingWriteTimeout))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.conn.SetWriteDeadline(time.Time{})
			t.writeMu.Unlock()
			if err != nil {
				t.shutdown(err)
				return
			}
		}
	}
}

// wsSubscription delivers notifications of one subscription in server order
// on its own goroutine, so a slow callback never blocks the read loop.
type wsSubscription struct {
	namespace string
	id        string
	cb        SubscriptionCallback
	queue     chan json.RawMessage

	once sync.Once
	err  error
	done chan struct{}
}

func newWSSubscription(namespace, id string, cb SubscriptionCallback) *wsSubscription {
	return &wsSubscription{
		namespace: namespace,
		id:        id,
		cb:        cb,
		queue:     make(chan json.RawMessage, maxSubscriptionBuffer),
		done:      make(chan struct{}),
	}
}

func (s *wsSubscription) enqueue(result json.RawMessage) bool {
	select {
	case s.queue <- result:
		return true
	default:
		return false
	}
}

// stop ends delivery. A non-nil err is handed to the callback once, after
// everything already queued.
func (s *wsSubscription) stop(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *wsSubscription) run() {
	for {
		select {
		case result := <-s.queue:
			s.cb(nil, result)
		case <-s.done:
			for {
				select {
				case result := <-s.queue:
					if s.err != nil {
						s.cb(nil, result)
					}
				default:
					if s.err != nil {
						s.cb(s.err, nil)
					}
					return
				}
			}
		}
	}
}
