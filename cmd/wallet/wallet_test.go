package main

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

func TestTxFlagsRequest(t *testing.T) {
	tf := txFlags{
		from:  "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		to:    "0x00000000000000000000000000000000000000bb",
		value: "1000",
		gas:   "0x5208",
		data:  "0xabcd",
	}
	req, err := tf.request()
	require.NoError(t, err)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", req.From.Hex())
	assert.Equal(t, big.NewInt(1000), req.Value)
	assert.Equal(t, big.NewInt(21000), req.Gas)
	assert.Nil(t, req.GasPrice)
	assert.Equal(t, []byte{0xab, 0xcd}, req.Data)

	tests := []struct {
		name string
		tf   txFlags
	}{
		{"bad address", txFlags{to: "0x123"}},
		{"bad value", txFlags{value: "ten"}},
		{"bad data", txFlags{data: "0xzz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tf.request()
			assert.Error(t, err)
		})
	}
}

func TestResolvePassword(t *testing.T) {
	t.Setenv(passwordEnv, "")
	_, err := resolvePassword("")
	assert.Error(t, err)

	t.Setenv(passwordEnv, "from-env")
	pw, err := resolvePassword("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)

	pw, err = resolvePassword("flag")
	require.NoError(t, err)
	assert.Equal(t, "flag", pw)
}

func TestReadHexArg(t *testing.T) {
	b, err := readHexArg("0x6001")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x01}, b)

	path := filepath.Join(t.TempDir(), "code.hex")
	require.NoError(t, os.WriteFile(path, []byte("6002\n"), 0o600))
	b, err = readHexArg("@" + path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x02}, b)

	_, err = readHexArg("@" + filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDescribeParamsSorted(t *testing.T) {
	got := describeParams(map[string]interface{}{"value": big.NewInt(5), "from": "a"})
	assert.Equal(t, "from=a value=5", got)
}

// rpcServer answers JSON-RPC calls from a method -> result table.
func rpcServer(t *testing.T, results map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if res, ok := results[req.Method]; ok {
			resp["result"] = res
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestAwaitEnd(t *testing.T) {
	t.Run("cancellation reported by the poller", func(t *testing.T) {
		fail := make(chan error, 1)
		fail <- rpc.Wrap(rpc.KindTransport, context.Canceled, "poll filter changes")
		assert.NoError(t, awaitEnd(context.Background(), fail))
	})

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, awaitEnd(ctx, make(chan error)))
	})

	t.Run("real failure", func(t *testing.T) {
		fail := make(chan error, 1)
		fail <- rpc.Errorf(rpc.KindTransport, "websocket connection closed")
		err := awaitEnd(context.Background(), fail)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "subscription ended")
		assert.Equal(t, rpc.KindTransport, rpc.KindOf(err))
	})
}

func TestFetchBalancesOverHTTP(t *testing.T) {
	srv := rpcServer(t, map[string]interface{}{"eth_getBalance": "0x3e8"})
	flags := &globalFlags{configPath: writeConfig(t, "node:\n  url: "+srv.URL+"\n"), format: "json"}

	a, err := newApp(context.Background(), flags)
	require.NoError(t, err)
	defer a.Close()

	addr := "0x00000000000000000000000000000000000000aa"
	balances, err := fetchBalances(context.Background(), a.API, []string{addr}, format.Latest)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), balances[format.OutAddress(addr)])
}

func TestLocalAccountsWiring(t *testing.T) {
	srv := rpcServer(t, map[string]interface{}{})
	flags := &globalFlags{configPath: writeConfig(t, "node:\n  url: "+srv.URL+"\n"), local: true, stats: true}

	a, err := newApp(context.Background(), flags)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.middleware)

	accounts, err := a.API.Eth.Accounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)

	address, err := a.API.Parity.PhraseToAddress(context.Background(), "this is sparta")
	require.NoError(t, err)
	assert.Len(t, address, 42)
	assert.Equal(t, "0x00", address[:4])
	assert.Empty(t, a.collector.Sorted(), "intercepted calls never reach the node")
}
