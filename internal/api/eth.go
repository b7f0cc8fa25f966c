package api

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Eth is the eth_* namespace.
type Eth struct {
	t rpc.Transport
}

func (e *Eth) Accounts(ctx context.Context) ([]string, error) {
	return asAddresses(e.t.Execute(ctx, "eth_accounts"))
}

func (e *Eth) BlockNumber(ctx context.Context) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_blockNumber"))
}

// Call executes a message call without creating a transaction and returns
// the raw return data.
func (e *Eth) Call(ctx context.Context, req format.CallRequest, block format.BlockNumber) (hexutil.Bytes, error) {
	s, err := asString(e.t.Execute(ctx, "eth_call", format.InOptions(req), format.InBlockNumber(block)))
	if err != nil {
		return nil, err
	}
	if s == "" {
		return hexutil.Bytes{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, parseErr("call result", err)
	}
	return b, nil
}

func (e *Eth) ChainID(ctx context.Context) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_chainId"))
}

func (e *Eth) Coinbase(ctx context.Context) (string, error) {
	return asAddress(e.t.Execute(ctx, "eth_coinbase"))
}

func (e *Eth) EstimateGas(ctx context.Context, req format.CallRequest) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_estimateGas", format.InOptions(req)))
}

func (e *Eth) GasPrice(ctx context.Context) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_gasPrice"))
}

func (e *Eth) GetBalance(ctx context.Context, address string, block format.BlockNumber) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_getBalance", format.InAddress(address), format.InBlockNumber(block)))
}

func (e *Eth) GetBlockByHash(ctx context.Context, hash string, full bool) (*format.Block, error) {
	return out(format.OutBlock)(e.t.Execute(ctx, "eth_getBlockByHash", format.InHash(hash), full))
}

func (e *Eth) GetBlockByNumber(ctx context.Context, block format.BlockNumber, full bool) (*format.Block, error) {
	return out(format.OutBlock)(e.t.Execute(ctx, "eth_getBlockByNumber", format.InBlockNumber(block), full))
}

func (e *Eth) GetBlockTransactionCountByHash(ctx context.Context, hash string) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_getBlockTransactionCountByHash", format.InHash(hash)))
}

func (e *Eth) GetBlockTransactionCountByNumber(ctx context.Context, block format.BlockNumber) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_getBlockTransactionCountByNumber", format.InBlockNumber(block)))
}

// GetCode returns the deployed bytecode as hex; "0x" means no code.
func (e *Eth) GetCode(ctx context.Context, address string, block format.BlockNumber) (string, error) {
	return asString(e.t.Execute(ctx, "eth_getCode", format.InAddress(address), format.InBlockNumber(block)))
}

// GetFilterChanges returns new entries since the last poll. Log filters
// yield log objects, block and pending filters yield hashes, so entries are
// left undecoded.
func (e *Eth) GetFilterChanges(ctx context.Context, filterID string) ([]json.RawMessage, error) {
	return asRawList(e.t.Execute(ctx, "eth_getFilterChanges", format.InHex(filterID)))
}

func (e *Eth) GetFilterLogs(ctx context.Context, filterID string) ([]*format.Log, error) {
	return out(format.OutLogs)(e.t.Execute(ctx, "eth_getFilterLogs", format.InHex(filterID)))
}

func (e *Eth) GetLogs(ctx context.Context, filter format.Filter) ([]*format.Log, error) {
	return out(format.OutLogs)(e.t.Execute(ctx, "eth_getLogs", format.InFilter(filter)))
}

func (e *Eth) GetStorageAt(ctx context.Context, address string, index *big.Int, block format.BlockNumber) (string, error) {
	return asString(e.t.Execute(ctx, "eth_getStorageAt",
		format.InAddress(address), format.InNumber16(index), format.InBlockNumber(block)))
}

func (e *Eth) GetTransactionByBlockHashAndIndex(ctx context.Context, hash string, index *big.Int) (*format.Transaction, error) {
	return out(format.OutTransaction)(e.t.Execute(ctx, "eth_getTransactionByBlockHashAndIndex",
		format.InHash(hash), format.InNumber16(index)))
}

func (e *Eth) GetTransactionByBlockNumberAndIndex(ctx context.Context, block format.BlockNumber, index *big.Int) (*format.Transaction, error) {
	return out(format.OutTransaction)(e.t.Execute(ctx, "eth_getTransactionByBlockNumberAndIndex",
		format.InBlockNumber(block), format.InNumber16(index)))
}

func (e *Eth) GetTransactionByHash(ctx context.Context, hash string) (*format.Transaction, error) {
	return out(format.OutTransaction)(e.t.Execute(ctx, "eth_getTransactionByHash", format.InHash(hash)))
}

func (e *Eth) GetTransactionCount(ctx context.Context, address string, block format.BlockNumber) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_getTransactionCount", format.InAddress(address), format.InBlockNumber(block)))
}

// GetTransactionReceipt returns nil while the transaction is not mined.
func (e *Eth) GetTransactionReceipt(ctx context.Context, hash string) (*format.Receipt, error) {
	return out(format.OutReceipt)(e.t.Execute(ctx, "eth_getTransactionReceipt", format.InHash(hash)))
}

func (e *Eth) GetUncleByBlockHashAndIndex(ctx context.Context, hash string, index *big.Int) (*format.Block, error) {
	return out(format.OutBlock)(e.t.Execute(ctx, "eth_getUncleByBlockHashAndIndex",
		format.InHash(hash), format.InNumber16(index)))
}

func (e *Eth) GetUncleByBlockNumberAndIndex(ctx context.Context, block format.BlockNumber, index *big.Int) (*format.Block, error) {
	return out(format.OutBlock)(e.t.Execute(ctx, "eth_getUncleByBlockNumberAndIndex",
		format.InBlockNumber(block), format.InNumber16(index)))
}

func (e *Eth) GetUncleCountByBlockHash(ctx context.Context, hash string) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_getUncleCountByBlockHash", format.InHash(hash)))
}

func (e *Eth) GetUncleCountByBlockNumber(ctx context.Context, block format.BlockNumber) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_getUncleCountByBlockNumber", format.InBlockNumber(block)))
}

func (e *Eth) Hashrate(ctx context.Context) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "eth_hashrate"))
}

func (e *Eth) Mining(ctx context.Context) (bool, error) {
	return asBool(e.t.Execute(ctx, "eth_mining"))
}

// NewBlockFilter returns the filter id.
func (e *Eth) NewBlockFilter(ctx context.Context) (string, error) {
	return asString(e.t.Execute(ctx, "eth_newBlockFilter"))
}

func (e *Eth) NewFilter(ctx context.Context, filter format.Filter) (string, error) {
	return asString(e.t.Execute(ctx, "eth_newFilter", format.InFilter(filter)))
}

func (e *Eth) NewPendingTransactionFilter(ctx context.Context) (string, error) {
	return asString(e.t.Execute(ctx, "eth_newPendingTransactionFilter"))
}

func (e *Eth) ProtocolVersion(ctx context.Context) (string, error) {
	return asString(e.t.Execute(ctx, "eth_protocolVersion"))
}

// SendRawTransaction submits a signed RLP transaction and returns its hash.
func (e *Eth) SendRawTransaction(ctx context.Context, data string) (string, error) {
	return asString(e.t.Execute(ctx, "eth_sendRawTransaction", format.InData(data)))
}

func (e *Eth) SendTransaction(ctx context.Context, req format.CallRequest) (string, error) {
	return asString(e.t.Execute(ctx, "eth_sendTransaction", format.InOptions(req)))
}

func (e *Eth) Sign(ctx context.Context, address, data string) (string, error) {
	return asString(e.t.Execute(ctx, "eth_sign", format.InAddress(address), format.InHex(data)))
}

// Syncing returns nil when the node is not syncing.
func (e *Eth) Syncing(ctx context.Context) (*format.SyncStatus, error) {
	return out(format.OutSyncing)(e.t.Execute(ctx, "eth_syncing"))
}

func (e *Eth) UninstallFilter(ctx context.Context, filterID string) (bool, error) {
	return asBool(e.t.Execute(ctx, "eth_uninstallFilter", format.InHex(filterID)))
}
