package api

import (
	"context"
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

func modules(a *API) map[string]interface{} {
	return map[string]interface{}{
		"eth":      a.Eth,
		"net":      a.Net,
		"web3":     a.Web3,
		"personal": a.Personal,
		"parity":   a.Parity,
		"signer":   a.Signer,
		"trace":    a.Trace,
		"db":       a.DB,
		"shh":      a.Shh,
		"ethcore":  a.Ethcore,
	}
}

func TestSchemaMatchesMethods(t *testing.T) {
	a := New(rpc.NewMockTransport())
	ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()
	errType := reflect.TypeOf((*error)(nil)).Elem()

	for group, module := range modules(a) {
		methods, ok := Schema[group]
		require.True(t, ok, "group %s has no schema", group)

		v := reflect.ValueOf(module)
		for name, desc := range methods {
			goName := GoMethodName(name)
			m := v.MethodByName(goName)
			if !assert.True(t, m.IsValid(), "%s_%s: no Go method %s", group, name, goName) {
				continue
			}
			mt := m.Type()
			assert.Equal(t, len(desc.Params)+1, mt.NumIn(), "%s_%s: parameter count", group, name)
			assert.Equal(t, ctxType, mt.In(0), "%s_%s: first parameter must be a context", group, name)
			require.Equal(t, 2, mt.NumOut(), "%s_%s: results", group, name)
			assert.Equal(t, errType, mt.Out(1))
			assert.NotEmpty(t, desc.Desc, "%s_%s: description", group, name)
			assert.NotEmpty(t, desc.Returns.Type, "%s_%s: return type", group, name)
		}

		vt := v.Type()
		for i := 0; i < vt.NumMethod(); i++ {
			goName := vt.Method(i).Name
			found := false
			for name := range methods {
				if GoMethodName(name) == goName {
					found = true
					break
				}
			}
			assert.True(t, found, "%s.%s has no schema entry", group, goName)
		}
	}
	assert.Len(t, Schema, len(modules(a)))
}

func TestGoMethodName(t *testing.T) {
	tests := map[string]string{
		"chainId":                    "ChainID",
		"getBalance":                 "GetBalance",
		"sha3":                       "Sha3",
		"generateAuthorizationToken": "GenerateAuthorizationToken",
	}
	for in, want := range tests {
		assert.Equal(t, want, GoMethodName(in))
	}
}

func TestWireParams(t *testing.T) {
	const addr = "0x63Cf90D3f0410092FC0fca41846f596223979195"
	const lower = "0x63cf90d3f0410092fc0fca41846f596223979195"
	const hash = "0xABCDEF0000000000000000000000000000000000000000000000000000000001"
	ctx := context.Background()

	tests := []struct {
		name   string
		method string
		call   func(a *API) error
		want   []interface{}
	}{
		{
			name:   "getBalance",
			method: "eth_getBalance",
			call: func(a *API) error {
				_, err := a.Eth.GetBalance(ctx, addr, format.BlockAt(16))
				return err
			},
			want: []interface{}{lower, "0x10"},
		},
		{
			name:   "getBalance_default_block",
			method: "eth_getBalance",
			call: func(a *API) error {
				_, err := a.Eth.GetBalance(ctx, addr, format.BlockNumber{})
				return err
			},
			want: []interface{}{lower, "latest"},
		},
		{
			name:   "getBlockByNumber",
			method: "eth_getBlockByNumber",
			call: func(a *API) error {
				_, err := a.Eth.GetBlockByNumber(ctx, format.Pending, true)
				return err
			},
			want: []interface{}{"pending", true},
		},
		{
			name:   "getTransactionReceipt",
			method: "eth_getTransactionReceipt",
			call: func(a *API) error {
				_, err := a.Eth.GetTransactionReceipt(ctx, hash)
				return err
			},
			want: []interface{}{"0xabcdef0000000000000000000000000000000000000000000000000000000001"},
		},
		{
			name:   "unlockAccount",
			method: "personal_unlockAccount",
			call: func(a *API) error {
				_, err := a.Personal.UnlockAccount(ctx, addr, "pw", 60)
				return err
			},
			want: []interface{}{lower, "pw", uint64(60)},
		},
		{
			name:   "setAccountMeta",
			method: "parity_setAccountMeta",
			call: func(a *API) error {
				_, err := a.Parity.SetAccountMeta(ctx, addr, map[string]interface{}{"tags": []string{"x"}})
				return err
			},
			want: []interface{}{lower, `{"tags":["x"]}`},
		},
		{
			name:   "checkRequest",
			method: "parity_checkRequest",
			call: func(a *API) error {
				_, err := a.Parity.CheckRequest(ctx, big.NewInt(255))
				return err
			},
			want: []interface{}{"0xff"},
		},
		{
			name:   "confirmRequest",
			method: "signer_confirmRequest",
			call: func(a *API) error {
				_, err := a.Signer.ConfirmRequest(ctx, big.NewInt(1), format.CallRequest{Gas: big.NewInt(21000)}, "pw")
				return err
			},
			want: []interface{}{"0x1", map[string]interface{}{"gas": "0x5208"}, "pw"},
		},
		{
			name:   "traceCall_default_kinds",
			method: "trace_call",
			call: func(a *API) error {
				_, err := a.Trace.Call(ctx, format.CallRequest{}, nil, format.Latest)
				return err
			},
			want: []interface{}{map[string]interface{}{}, []string{"trace"}, "latest"},
		},
		{
			name:   "traceGet",
			method: "trace_get",
			call: func(a *API) error {
				_, err := a.Trace.Get(ctx, hash, []uint64{0, 10})
				return err
			},
			want: []interface{}{"0xabcdef0000000000000000000000000000000000000000000000000000000001", []string{"0x0", "0xa"}},
		},
		{
			name:   "ethcore_alias",
			method: "ethcore_netChain",
			call: func(a *API) error {
				_, err := a.Ethcore.NetChain(ctx)
				return err
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := rpc.NewMockTransport().Respond(tt.method, nil)
			require.NoError(t, tt.call(New(m)))
			calls := m.CallsTo(tt.method)
			require.Len(t, calls, 1)
			assert.Equal(t, tt.want, calls[0].Params)
		})
	}
}

func TestOutputCoercion(t *testing.T) {
	m := rpc.NewMockTransport().
		Respond("eth_accounts", []string{"0x63cf90d3f0410092fc0fca41846f596223979195"}).
		Respond("eth_getBalance", "0xde0b6b3a7640000").
		Respond("eth_syncing", false).
		Respond("eth_call", "0x000000000000000000000000000000000000000000000000000000000001e240").
		Respond("parity_checkRequest", nil).
		Respond("parity_getVaultMeta", "{broken").
		Respond("net_listening", true)
	a := New(m)
	ctx := context.Background()

	accounts, err := a.Eth.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x63Cf90D3f0410092FC0fca41846f596223979195"}, accounts)

	balance, err := a.Eth.GetBalance(ctx, accounts[0], format.Latest)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance.String())

	syncing, err := a.Eth.Syncing(ctx)
	require.NoError(t, err)
	assert.Nil(t, syncing)

	data, err := a.Eth.Call(ctx, format.CallRequest{}, format.Latest)
	require.NoError(t, err)
	assert.Len(t, data, 32)
	assert.Equal(t, int64(123456), new(big.Int).SetBytes(data).Int64())

	hash, err := a.Parity.CheckRequest(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.Empty(t, hash)

	meta, err := a.Parity.GetVaultMeta(ctx, "v")
	require.NoError(t, err)
	assert.Empty(t, meta)

	listening, err := a.Net.Listening(ctx)
	require.NoError(t, err)
	assert.True(t, listening)
}

func TestErrorsPropagate(t *testing.T) {
	m := rpc.NewMockTransport().Fail("eth_blockNumber", &rpc.Error{Kind: rpc.KindRPC, Code: -32000, Message: "boom"})
	a := New(m)

	_, err := a.Eth.BlockNumber(context.Background())
	require.Error(t, err)
	assert.Equal(t, rpc.KindRPC, rpc.KindOf(err))
	assert.Len(t, m.CallsTo("eth_blockNumber"), 1, "no retries")

	_, err = a.Eth.GasPrice(context.Background())
	assert.Equal(t, rpc.KindRPC, rpc.KindOf(err), "unscripted methods are method-not-found")

	m.Respond("eth_getBlockByNumber", map[string]interface{}{"number": []int{1}})
	_, err = a.Eth.GetBlockByNumber(context.Background(), format.Latest, false)
	assert.Equal(t, rpc.KindParse, rpc.KindOf(err))
}

// fakeSubscriber records Subscribe calls and hands back the callback.
type fakeSubscriber struct {
	*rpc.MockTransport
	namespace string
	event     string
	params    []interface{}
	cb        rpc.SubscriptionCallback
}

func (f *fakeSubscriber) Subscribe(_ context.Context, namespace string, cb rpc.SubscriptionCallback, event string, params ...interface{}) (string, error) {
	f.namespace, f.event, f.params, f.cb = namespace, event, params, cb
	return "0x1", nil
}

func (f *fakeSubscriber) Unsubscribe(context.Context, string, ...string) (bool, error) {
	return true, nil
}

func TestPubsub(t *testing.T) {
	assert.Nil(t, New(rpc.NewMockTransport()).Pubsub)

	sub := &fakeSubscriber{MockTransport: rpc.NewMockTransport()}
	a := New(sub)
	require.NotNil(t, a.Pubsub)

	var got *format.Block
	id, err := a.Pubsub.NewHeads(context.Background(), func(err error, b *format.Block) {
		require.NoError(t, err)
		got = b
	})
	require.NoError(t, err)
	assert.Equal(t, "0x1", id)
	assert.Equal(t, "eth", sub.namespace)
	assert.Equal(t, "newHeads", sub.event)

	sub.cb(nil, json.RawMessage(`{"number":"0x2a","miner":"0x63cf90d3f0410092fc0fca41846f596223979195"}`))
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.Number.Int64())

	addr := common.HexToAddress("0xaa")
	_, err = a.Pubsub.Logs(context.Background(), format.Filter{Address: []common.Address{addr}}, func(error, *format.Log) {})
	require.NoError(t, err)
	assert.Equal(t, "logs", sub.event)
	assert.Equal(t, []interface{}{map[string]interface{}{"address": "0x00000000000000000000000000000000000000aa"}}, sub.params)

	_, err = a.Pubsub.Parity(context.Background(), "eth_blockNumber", nil, func(error, json.RawMessage) {})
	require.NoError(t, err)
	assert.Equal(t, "parity", sub.namespace)
	assert.Equal(t, []interface{}{[]interface{}{}}, sub.params)
}
