package local

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/eth-wallet-rpc/internal/api"
	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

type handler func(ctx context.Context, params []interface{}) (interface{}, error)

// Middleware is a Transport that answers account and signer methods from
// local accounts and forwards everything else to the inner transport.
// Transactions posted through it are signed client side on confirmation
// and submitted with eth_sendRawTransaction.
type Middleware struct {
	inner    rpc.Transport
	node     *api.API
	accounts *Accounts
	requests *Requests
	chainID  *big.Int
	handlers map[string]handler
	methods  mapset.Set[string]
}

type MiddlewareOption func(*Middleware)

// WithChainID fixes the EIP-155 chain id instead of asking eth_chainId.
func WithChainID(id *big.Int) MiddlewareOption {
	return func(m *Middleware) { m.chainID = id }
}

func NewMiddleware(inner rpc.Transport, accounts *Accounts, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		inner:    inner,
		node:     api.New(inner),
		accounts: accounts,
		requests: NewRequests(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.handlers = map[string]handler{
		"eth_accounts":                m.listAccounts,
		"eth_coinbase":                m.defaultAccount,
		"parity_accountsInfo":         m.accountsInfo,
		"parity_allAccountsInfo":      m.allAccountsInfo,
		"parity_changePassword":       m.changePassword,
		"parity_checkRequest":         m.checkRequest,
		"parity_defaultAccount":       m.defaultAccount,
		"parity_generateSecretPhrase": m.generateSecretPhrase,
		"parity_getNewDappsAddresses": empty,
		"parity_hardwareAccountsInfo": func(context.Context, []interface{}) (interface{}, error) { return map[string]interface{}{}, nil },
		"parity_killAccount":          m.killAccount,
		"parity_listGethAccounts":     empty,
		"parity_listOpenedVaults":     empty,
		"parity_listVaults":           empty,
		"parity_newAccountFromPhrase": m.newAccountFromPhrase,
		"parity_newAccountFromSecret": m.newAccountFromSecret,
		"parity_phraseToAddress":      m.phraseToAddress,
		"parity_postTransaction":      m.postTransaction,
		"parity_setAccountMeta":       m.setAccountMeta,
		"parity_setAccountName":       m.setAccountName,
		"parity_testPassword":         m.testPassword,
		"parity_useLocalAccounts":     func(context.Context, []interface{}) (interface{}, error) { return true, nil },
		"personal_listAccounts":       m.listAccounts,
		"signer_confirmRequest":       m.confirmRequest,
		"signer_rejectRequest":        m.rejectRequest,
		"signer_requestsToConfirm":    m.requestsToConfirm,
	}
	m.methods = mapset.NewThreadUnsafeSet[string]()
	for name := range m.handlers {
		m.methods.Add(name)
	}
	return m
}

// Intercepts reports whether method is answered locally.
func (m *Middleware) Intercepts(method string) bool {
	return m.methods.Contains(method)
}

// Accounts returns the registry behind the middleware.
func (m *Middleware) Accounts() *Accounts { return m.accounts }

// Requests returns the local transaction queue.
func (m *Middleware) Requests() *Requests { return m.requests }

func (m *Middleware) Execute(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	h, ok := m.handlers[method]
	if !ok {
		return m.inner.Execute(ctx, method, params...)
	}
	log.Trace("Local account call", "method", method)
	result, err := h(ctx, params)
	if err != nil {
		log.Debug("Local account call failed", "method", method, "err", err)
		return nil, err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, rpc.Wrap(rpc.KindParse, err, "encode "+method+" result")
	}
	return raw, nil
}

// Close flushes the accounts and closes the inner transport.
func (m *Middleware) Close() error {
	if err := m.accounts.Close(); err != nil {
		log.Warn("Failed to flush local accounts", "err", err)
	}
	return m.inner.Close()
}

func empty(context.Context, []interface{}) (interface{}, error) {
	return []string{}, nil
}

func lower(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// param decodes positional parameter i into T through its JSON form.
func param[T any](params []interface{}, i int) (T, error) {
	var v T
	if i >= len(params) || params[i] == nil {
		return v, rpc.Errorf(rpc.KindValidation, "missing parameter %d", i)
	}
	raw, err := json.Marshal(params[i])
	if err != nil {
		return v, rpc.Wrap(rpc.KindValidation, err, fmt.Sprintf("parameter %d", i))
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, rpc.Wrap(rpc.KindValidation, err, fmt.Sprintf("parameter %d", i))
	}
	return v, nil
}

func twoStrings(params []interface{}) (string, string, error) {
	a, err := param[string](params, 0)
	if err != nil {
		return "", "", err
	}
	b, err := param[string](params, 1)
	return a, b, err
}

func requestID(params []interface{}) (uint64, error) {
	if len(params) == 0 {
		return 0, rpc.Errorf(rpc.KindValidation, "missing request id")
	}
	n, err := format.ToBig(params[0])
	if err != nil {
		return 0, rpc.Wrap(rpc.KindValidation, err, "request id")
	}
	if !n.IsUint64() {
		return 0, rpc.Errorf(rpc.KindUnknownRequest, "unknown request %s", n)
	}
	return n.Uint64(), nil
}

func (m *Middleware) listAccounts(context.Context, []interface{}) (interface{}, error) {
	addrs := m.accounts.Addresses()
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = lower(a)
	}
	return out, nil
}

func (m *Middleware) defaultAccount(context.Context, []interface{}) (interface{}, error) {
	return lower(m.accounts.Last()), nil
}

func (m *Middleware) accountsInfo(context.Context, []interface{}) (interface{}, error) {
	out := make(map[string]interface{})
	for _, acc := range m.accounts.List() {
		out[lower(acc.Address)] = map[string]interface{}{"name": acc.Name}
	}
	return out, nil
}

func (m *Middleware) allAccountsInfo(context.Context, []interface{}) (interface{}, error) {
	out := make(map[string]interface{})
	for _, acc := range m.accounts.List() {
		out[lower(acc.Address)] = map[string]interface{}{
			"name": acc.Name,
			"meta": acc.Meta,
			"uuid": acc.UUID(),
		}
	}
	return out, nil
}

func (m *Middleware) changePassword(ctx context.Context, params []interface{}) (interface{}, error) {
	address, password, err := twoStrings(params)
	if err != nil {
		return nil, err
	}
	newPassword, err := param[string](params, 2)
	if err != nil {
		return nil, err
	}
	return m.accounts.ChangePassword(ctx, address, password, newPassword)
}

func (m *Middleware) checkRequest(_ context.Context, params []interface{}) (interface{}, error) {
	id, err := requestID(params)
	if err != nil {
		return nil, err
	}
	hash, err := m.requests.Hash(id)
	if err != nil || hash == "" {
		return nil, err
	}
	return hash, nil
}

func (m *Middleware) generateSecretPhrase(context.Context, []interface{}) (interface{}, error) {
	return GeneratePhrase()
}

func (m *Middleware) killAccount(ctx context.Context, params []interface{}) (interface{}, error) {
	address, password, err := twoStrings(params)
	if err != nil {
		return nil, err
	}
	return m.accounts.Remove(ctx, address, password)
}

func (m *Middleware) newAccountFromPhrase(ctx context.Context, params []interface{}) (interface{}, error) {
	phrase, password, err := twoStrings(params)
	if err != nil {
		return nil, err
	}
	key, err := Run(ctx, m.accounts.workers, func() (*ecdsa.PrivateKey, error) {
		return PhraseToKey(phrase), nil
	})
	if err != nil {
		return nil, err
	}
	addr, err := m.accounts.Create(ctx, key, password)
	if err != nil {
		return nil, err
	}
	return lower(addr), nil
}

func (m *Middleware) newAccountFromSecret(ctx context.Context, params []interface{}) (interface{}, error) {
	secret, password, err := twoStrings(params)
	if err != nil {
		return nil, err
	}
	key, err := SecretToKey(secret)
	if err != nil {
		return nil, err
	}
	addr, err := m.accounts.Create(ctx, key, password)
	if err != nil {
		return nil, err
	}
	return lower(addr), nil
}

func (m *Middleware) phraseToAddress(ctx context.Context, params []interface{}) (interface{}, error) {
	phrase, err := param[string](params, 0)
	if err != nil {
		return nil, err
	}
	addr, err := Run(ctx, m.accounts.workers, func() (common.Address, error) {
		return PhraseToAddress(phrase), nil
	})
	if err != nil {
		return nil, err
	}
	return lower(addr), nil
}

func (m *Middleware) postTransaction(_ context.Context, params []interface{}) (interface{}, error) {
	tx, err := param[format.CallRequest](params, 0)
	if err != nil {
		return nil, err
	}
	if tx.From == nil {
		last := m.accounts.Last()
		tx.From = &last
	}
	tx.Nonce = nil
	tx.Condition = nil
	delete(tx.Extra, "nonce")
	delete(tx.Extra, "condition")

	id := m.requests.Add(tx)
	log.Debug("Queued local transaction", "id", id, "from", tx.From.Hex())
	return format.InNumber16(new(big.Int).SetUint64(id)), nil
}

func (m *Middleware) setAccountMeta(_ context.Context, params []interface{}) (interface{}, error) {
	address, meta, err := twoStrings(params)
	if err != nil {
		return nil, err
	}
	if err := m.accounts.SetMeta(address, meta); err != nil {
		return nil, err
	}
	return true, nil
}

func (m *Middleware) setAccountName(_ context.Context, params []interface{}) (interface{}, error) {
	address, name, err := twoStrings(params)
	if err != nil {
		return nil, err
	}
	if err := m.accounts.SetName(address, name); err != nil {
		return nil, err
	}
	return true, nil
}

func (m *Middleware) testPassword(ctx context.Context, params []interface{}) (interface{}, error) {
	address, password, err := twoStrings(params)
	if err != nil {
		return nil, err
	}
	return m.accounts.TestPassword(ctx, address, password)
}

func (m *Middleware) rejectRequest(_ context.Context, params []interface{}) (interface{}, error) {
	id, err := requestID(params)
	if err != nil {
		return nil, err
	}
	return m.requests.Reject(id)
}

func (m *Middleware) requestsToConfirm(context.Context, []interface{}) (interface{}, error) {
	queued := m.requests.Queued()
	out := make([]map[string]interface{}, len(queued))
	for i, r := range queued {
		out[i] = r.wire()
	}
	return out, nil
}

func (m *Middleware) confirmRequest(ctx context.Context, params []interface{}) (interface{}, error) {
	id, err := requestID(params)
	if err != nil {
		return nil, err
	}
	var modify format.CallRequest
	if len(params) > 1 && params[1] != nil {
		if modify, err = param[format.CallRequest](params, 1); err != nil {
			return nil, err
		}
	}
	password, err := param[string](params, 2)
	if err != nil {
		return nil, err
	}

	req, err := m.requests.Lock(id)
	if err != nil {
		return nil, err
	}
	hash, err := m.signAndSend(ctx, req.Tx, modify, password)
	if err != nil {
		m.requests.Unlock(id)
		return nil, err
	}
	m.requests.Confirm(id, hash)
	log.Info("Confirmed local transaction", "id", id, "hash", hash)
	return hash, nil
}

// signAndSend fetches the nonce and decrypts the sender key concurrently,
// fills gas, gas price and chain id from the node when absent, then signs
// an EIP-155 transaction and submits it.
func (m *Middleware) signAndSend(ctx context.Context, tx, modify format.CallRequest, password string) (string, error) {
	if modify.Gas != nil {
		tx.Gas = modify.Gas
	}
	if modify.GasPrice != nil {
		tx.GasPrice = modify.GasPrice
	}
	if tx.From == nil || *tx.From == (common.Address{}) {
		return "", rpc.Errorf(rpc.KindValidation, "transaction has no sender")
	}
	from := tx.From.Hex()

	var (
		nonce *big.Int
		key   *ecdsa.PrivateKey
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		nonce, err = m.node.Parity.NextNonce(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		key, err = m.accounts.Decrypt(gctx, from, password)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	chainID := m.chainID
	if chainID == nil {
		id, err := m.node.Eth.ChainID(ctx)
		if err != nil {
			return "", err
		}
		chainID = id
	}
	if tx.Gas == nil {
		gas, err := m.node.Eth.EstimateGas(ctx, tx)
		if err != nil {
			return "", err
		}
		tx.Gas = gas
	}
	if tx.GasPrice == nil {
		price, err := m.node.Eth.GasPrice(ctx)
		if err != nil {
			return "", err
		}
		tx.GasPrice = price
	}
	if !tx.Gas.IsUint64() || !nonce.IsUint64() {
		return "", rpc.Errorf(rpc.KindValidation, "gas or nonce out of range")
	}
	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}

	signed, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    nonce.Uint64(),
		GasPrice: tx.GasPrice,
		Gas:      tx.Gas.Uint64(),
		To:       tx.To,
		Value:    value,
		Data:     tx.Data,
	}), types.NewEIP155Signer(chainID), key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}
	return m.node.Eth.SendRawTransaction(ctx, hexutil.Encode(raw))
}
