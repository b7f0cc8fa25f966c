package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONServer(t *testing.T, status int, reply func(req Request) interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req Request
		require.NoError(t, json.Unmarshal(body, &req))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(reply(req))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPTransportExecute(t *testing.T) {
	srv := newJSONServer(t, http.StatusOK, func(req Request) interface{} {
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "eth_getBalance", req.Method)
		assert.Equal(t, []interface{}{"0xab", "latest"}, req.Params)
		return map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0x1234"}
	})

	tr := NewHTTPTransport(srv.URL, time.Second)
	raw, err := tr.Execute(context.Background(), "eth_getBalance", "0xab", "latest")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x1234"`, string(raw))
}

func TestHTTPTransportEmptyParams(t *testing.T) {
	srv := newJSONServer(t, http.StatusOK, func(req Request) interface{} {
		assert.NotNil(t, req.Params)
		assert.Len(t, req.Params, 0)
		return map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0x1"}
	})

	_, err := NewHTTPTransport(srv.URL, time.Second).Execute(context.Background(), "eth_blockNumber")
	require.NoError(t, err)
}

func TestHTTPTransportErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		reply    interface{}
		wantKind ErrorKind
		wantCode int
	}{
		{
			name:     "rpc error",
			status:   http.StatusOK,
			reply:    map[string]interface{}{"jsonrpc": "2.0", "id": 1, "error": map[string]interface{}{"code": -32601, "message": "method not found"}},
			wantKind: KindRPC,
			wantCode: -32601,
		},
		{
			name:     "http status",
			status:   http.StatusServiceUnavailable,
			reply:    "down for maintenance",
			wantKind: KindHTTP,
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "rpc error with http status",
			status:   http.StatusBadRequest,
			reply:    map[string]interface{}{"jsonrpc": "2.0", "id": 1, "error": map[string]interface{}{"code": -32600, "message": "invalid request"}},
			wantKind: KindRPC,
			wantCode: -32600,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			reply:    []int{1, 2, 3},
			wantKind: KindParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newJSONServer(t, tt.status, func(Request) interface{} { return tt.reply })
			_, err := NewHTTPTransport(srv.URL, time.Second).Execute(context.Background(), "eth_foo")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			if tt.wantCode != 0 {
				var rerr *Error
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, tt.wantCode, rerr.Code)
			}
		})
	}
}

func TestHTTPTransportResponseIDMismatch(t *testing.T) {
	srv := newJSONServer(t, http.StatusOK, func(req Request) interface{} {
		return map[string]interface{}{"jsonrpc": "2.0", "id": req.ID + 7, "result": "0x1"}
	})

	_, err := NewHTTPTransport(srv.URL, time.Second).Execute(context.Background(), "eth_blockNumber")
	require.Error(t, err)
	assert.Equal(t, KindProtocol, KindOf(err))
	assert.Equal(t, "protocol", KindProtocol.String())
}

func TestHTTPTransportConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(url, time.Second).Execute(context.Background(), "eth_blockNumber")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestHTTPTransportTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewHTTPTransport(srv.URL, 5*time.Second).Execute(ctx, "eth_blockNumber")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestHTTPTransportHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":true}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, time.Second)
	tr.SetHeader("Authorization", "Bearer token")
	_, err := tr.Execute(context.Background(), "net_listening")
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", got)
}

func TestCallDecodes(t *testing.T) {
	m := NewMockTransport().Respond("net_peerCount", "0x19")
	var out string
	require.NoError(t, Call(context.Background(), m, &out, "net_peerCount"))
	assert.Equal(t, "0x19", out)

	m.Respond("eth_getTransactionReceipt", nil)
	var receipt map[string]interface{}
	require.NoError(t, Call(context.Background(), m, &receipt, "eth_getTransactionReceipt", "0x01"))
	assert.Nil(t, receipt)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"kinded", Errorf(KindInvalidPassword, "invalid password"), KindInvalidPassword},
		{"wrapped", Wrap(KindTransport, io.EOF, "read"), KindTransport},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"plain", io.EOF, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "RPC error -32000: nonce too low", (&Error{Kind: KindRPC, Code: -32000, Message: "nonce too low"}).Error())
	assert.Equal(t, "HTTP 502: bad gateway", (&Error{Kind: KindHTTP, Code: 502, Message: "bad gateway"}).Error())
	assert.Equal(t, "read: EOF", Wrap(KindTransport, io.EOF, "read").Error())
	assert.Equal(t, "no matching event", Errorf(KindNoMatchingEvent, "no matching event").Error())
}
