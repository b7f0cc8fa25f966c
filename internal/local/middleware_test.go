package local

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-wallet-rpc/internal/api"
	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

var recipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func txRequest() format.CallRequest {
	return format.CallRequest{To: &recipient, Value: big.NewInt(1000)}
}

// signingNode scripts the node methods confirmation needs and decodes the
// submitted raw transaction.
func signingNode(t *testing.T, sent *[]*types.Transaction) *rpc.MockTransport {
	return rpc.NewMockTransport().
		Respond("parity_nextNonce", "0x5").
		Respond("eth_chainId", "0x1").
		Respond("eth_estimateGas", "0x5208").
		Respond("eth_gasPrice", "0x3b9aca00").
		Respond("eth_blockNumber", "0x10").
		Handle("eth_sendRawTransaction", func(params []interface{}) (interface{}, error) {
			tx := new(types.Transaction)
			if err := tx.UnmarshalBinary(hexutil.MustDecode(params[0].(string))); err != nil {
				t.Errorf("decode raw transaction: %v", err)
				return nil, err
			}
			*sent = append(*sent, tx)
			return tx.Hash().Hex(), nil
		})
}

func newTestMiddleware(t *testing.T, inner rpc.Transport, opts ...MiddlewareOption) (*Middleware, *api.API) {
	t.Helper()
	w := NewWorkerPool(2, 8)
	t.Cleanup(w.Close)
	accounts, err := NewAccounts(NewMemoryStorage(), w,
		WithScrypt(4096, 6), WithPersistDelay(0))
	require.NoError(t, err)
	m := NewMiddleware(inner, accounts, opts...)
	return m, api.New(m)
}

func TestPostConfirmCheck(t *testing.T) {
	var sent []*types.Transaction
	node := signingNode(t, &sent)
	m, client := newTestMiddleware(t, node)
	ctx := context.Background()

	addr, err := client.Parity.NewAccountFromSecret(ctx, testSecret, "pw")
	require.NoError(t, err)
	assert.Equal(t, testAddress, addr)
	_, ok := m.Accounts().Get(testAddress)
	require.True(t, ok)

	id, err := client.Parity.PostTransaction(ctx, txRequest())
	require.NoError(t, err)
	req, err := m.Requests().Get(id.Uint64())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), *req.Tx.From, "from defaults to the last address")

	hash, err := client.Parity.CheckRequest(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, hash, "pending requests have no hash")

	pending, err := client.Signer.RequestsToConfirm(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	require.NotNil(t, pending[0].SendTransaction)
	assert.Equal(t, big.NewInt(1000), pending[0].SendTransaction.Value)

	confirmed, err := client.Signer.ConfirmRequest(ctx, id, format.CallRequest{}, "pw")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	tx := sent[0]
	assert.Equal(t, tx.Hash().Hex(), confirmed)
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, big.NewInt(1_000_000_000), tx.GasPrice())
	assert.Equal(t, recipient, *tx.To())
	assert.Equal(t, big.NewInt(1), tx.ChainId())
	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(1)), tx)
	require.NoError(t, err)
	assert.Equal(t, testAddress, sender.Hex())

	hash, err = client.Parity.CheckRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, confirmed, hash)

	nonceCall := node.CallsTo("parity_nextNonce")[0]
	assert.Equal(t, strings.ToLower(testAddress), nonceCall.Params[0])
}

func TestConfirmWithModifyAndChainID(t *testing.T) {
	var sent []*types.Transaction
	node := signingNode(t, &sent)
	_, client := newTestMiddleware(t, node, WithChainID(big.NewInt(10)))
	ctx := context.Background()

	_, err := client.Parity.NewAccountFromSecret(ctx, testSecret, "pw")
	require.NoError(t, err)
	id, err := client.Parity.PostTransaction(ctx, txRequest())
	require.NoError(t, err)

	_, err = client.Signer.ConfirmRequest(ctx, id,
		format.CallRequest{Gas: big.NewInt(30000), GasPrice: big.NewInt(7)}, "pw")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, uint64(30000), sent[0].Gas())
	assert.Equal(t, big.NewInt(7), sent[0].GasPrice())
	assert.Equal(t, big.NewInt(10), sent[0].ChainId())
	assert.Empty(t, node.CallsTo("eth_chainId"))
	assert.Empty(t, node.CallsTo("eth_estimateGas"))
}

func TestConfirmWrongPasswordUnlocks(t *testing.T) {
	var sent []*types.Transaction
	_, client := newTestMiddleware(t, signingNode(t, &sent))
	ctx := context.Background()

	_, err := client.Parity.NewAccountFromSecret(ctx, testSecret, "pw")
	require.NoError(t, err)
	id, err := client.Parity.PostTransaction(ctx, txRequest())
	require.NoError(t, err)

	_, err = client.Signer.ConfirmRequest(ctx, id, format.CallRequest{}, "wrong")
	assert.Equal(t, rpc.KindInvalidPassword, rpc.KindOf(err))
	assert.Empty(t, sent)

	pending, err := client.Signer.RequestsToConfirm(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "a failed confirmation returns the request to the queue")

	ok, err := client.Signer.RejectRequest(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = client.Parity.CheckRequest(ctx, id)
	assert.Equal(t, rpc.KindRequestRejected, rpc.KindOf(err))
}

func TestAccountMethods(t *testing.T) {
	_, client := newTestMiddleware(t, rpc.NewMockTransport())
	ctx := context.Background()

	_, err := client.Parity.NewAccountFromSecret(ctx, "0x1234", "pw")
	assert.Equal(t, rpc.KindInvalidSecret, rpc.KindOf(err))

	addr, err := client.Parity.NewAccountFromSecret(ctx, testSecret, "pw")
	require.NoError(t, err)

	ok, err := client.Parity.SetAccountName(ctx, addr, "main")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = client.Parity.SetAccountMeta(ctx, addr, map[string]interface{}{"description": "cold"})
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := client.Parity.AllAccountsInfo(ctx)
	require.NoError(t, err)
	require.Contains(t, info, testAddress)
	assert.Equal(t, "main", info[testAddress].Name)
	assert.Equal(t, "cold", info[testAddress].Meta["description"])
	assert.NotEmpty(t, info[testAddress].UUID)

	accounts, err := client.Eth.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{testAddress}, accounts)
	coinbase, err := client.Eth.Coinbase(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAddress, coinbase)

	ok, err = client.Parity.TestPassword(ctx, addr, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = client.Parity.ChangePassword(ctx, addr, "pw", "new")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Parity.KillAccount(ctx, addr, "pw")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = client.Parity.KillAccount(ctx, addr, "new")
	require.NoError(t, err)
	assert.True(t, ok)

	def, err := client.Parity.DefaultAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}.Hex(), def)

	vaults, err := client.Parity.ListVaults(ctx)
	require.NoError(t, err)
	assert.Empty(t, vaults)
}

func TestPhraseMethods(t *testing.T) {
	_, client := newTestMiddleware(t, rpc.NewMockTransport())
	ctx := context.Background()

	phrase, err := client.Parity.GenerateSecretPhrase(ctx)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 12)

	want, err := client.Parity.PhraseToAddress(ctx, phrase)
	require.NoError(t, err)
	addr, err := client.Parity.NewAccountFromPhrase(ctx, phrase, "pw")
	require.NoError(t, err)
	assert.Equal(t, want, addr)
	assert.Equal(t, PhraseToAddress(phrase).Hex(), addr)
}

func TestForwardsOtherMethods(t *testing.T) {
	var sent []*types.Transaction
	node := signingNode(t, &sent)
	m, client := newTestMiddleware(t, node)

	n, err := client.Eth.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(16), n.Int64())
	assert.Len(t, node.CallsTo("eth_blockNumber"), 1)

	assert.True(t, m.Intercepts("signer_confirmRequest"))
	assert.False(t, m.Intercepts("eth_blockNumber"))
}
