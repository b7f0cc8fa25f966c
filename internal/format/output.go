package format

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
)

// OutAddress renders an address in EIP-55 checksum form. An empty input
// stays empty; any casing is accepted.
func OutAddress(address string) string {
	if strings.TrimSpace(address) == "" {
		return ""
	}
	return common.HexToAddress(address).Hex()
}

// OutAddresses applies OutAddress to each element.
func OutAddresses(addresses []string) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = OutAddress(a)
	}
	return out
}

// OutNumber parses a wire quantity. Absent values are zero.
func OutNumber(s string) (*big.Int, error) {
	return parseNumber(s)
}

// OutDate treats s as Unix seconds and returns the UTC time.
func OutDate(s string) (time.Time, error) {
	n, err := parseNumber(s)
	if err != nil {
		return time.Time{}, err
	}
	if !n.IsInt64() {
		return time.Time{}, fmt.Errorf("timestamp %s out of range", n)
	}
	return time.Unix(n.Int64(), 0).UTC(), nil
}

// decode unmarshals raw into v, reporting whether the payload was null.
func decode(raw json.RawMessage, v interface{}) (bool, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------
// Blocks and transactions
// -----------------------------------------------------------------------------

// Block is a decoded eth_getBlockBy* result. Number and Hash are nil for
// the pending block. Exactly one of TxHashes and Transactions is filled,
// depending on whether full transactions were requested.
type Block struct {
	Number           *big.Int
	Hash             *common.Hash
	ParentHash       common.Hash
	Nonce            hexutil.Bytes
	Sha3Uncles       common.Hash
	LogsBloom        hexutil.Bytes
	TransactionsRoot common.Hash
	StateRoot        common.Hash
	ReceiptsRoot     common.Hash
	Miner            common.Address
	Author           common.Address
	Difficulty       *big.Int
	TotalDifficulty  *big.Int
	ExtraData        hexutil.Bytes
	Size             uint64
	GasLimit         *big.Int
	GasUsed          *big.Int
	BaseFeePerGas    *big.Int
	Timestamp        time.Time
	TxHashes         []common.Hash
	Transactions     []*Transaction
	Uncles           []common.Hash
	SealFields       []hexutil.Bytes
}

type wireBlock struct {
	Number           *Quantity         `json:"number"`
	Hash             *common.Hash      `json:"hash"`
	ParentHash       common.Hash       `json:"parentHash"`
	Nonce            hexutil.Bytes     `json:"nonce"`
	Sha3Uncles       common.Hash       `json:"sha3Uncles"`
	LogsBloom        hexutil.Bytes     `json:"logsBloom"`
	TransactionsRoot common.Hash       `json:"transactionsRoot"`
	StateRoot        common.Hash       `json:"stateRoot"`
	ReceiptsRoot     common.Hash       `json:"receiptsRoot"`
	Miner            common.Address    `json:"miner"`
	Author           *common.Address   `json:"author"`
	Difficulty       *Quantity         `json:"difficulty"`
	TotalDifficulty  *Quantity         `json:"totalDifficulty"`
	ExtraData        hexutil.Bytes     `json:"extraData"`
	Size             *Quantity         `json:"size"`
	GasLimit         *Quantity         `json:"gasLimit"`
	GasUsed          *Quantity         `json:"gasUsed"`
	BaseFeePerGas    *Quantity         `json:"baseFeePerGas"`
	Timestamp        *Quantity         `json:"timestamp"`
	Transactions     []json.RawMessage `json:"transactions"`
	Uncles           []common.Hash     `json:"uncles"`
	SealFields       []hexutil.Bytes   `json:"sealFields"`
}

// OutBlock decodes a block. A null result returns (nil, nil).
func OutBlock(raw json.RawMessage) (*Block, error) {
	var w wireBlock
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("block", err)
	}
	b := &Block{
		Number:           w.Number.bigOrNil(),
		Hash:             w.Hash,
		ParentHash:       w.ParentHash,
		Nonce:            w.Nonce,
		Sha3Uncles:       w.Sha3Uncles,
		LogsBloom:        w.LogsBloom,
		TransactionsRoot: w.TransactionsRoot,
		StateRoot:        w.StateRoot,
		ReceiptsRoot:     w.ReceiptsRoot,
		Miner:            w.Miner,
		Author:           w.Miner,
		Difficulty:       w.Difficulty.bigOrNil(),
		TotalDifficulty:  w.TotalDifficulty.bigOrNil(),
		ExtraData:        w.ExtraData,
		Size:             w.Size.uint64(),
		GasLimit:         w.GasLimit.Big(),
		GasUsed:          w.GasUsed.Big(),
		BaseFeePerGas:    w.BaseFeePerGas.bigOrNil(),
		Timestamp:        time.Unix(int64(w.Timestamp.uint64()), 0).UTC(),
		Uncles:           w.Uncles,
		SealFields:       w.SealFields,
	}
	if w.Author != nil {
		b.Author = *w.Author
		if b.Miner == (common.Address{}) {
			b.Miner = *w.Author
		}
	}
	for i, tx := range w.Transactions {
		if strings.HasPrefix(strings.TrimSpace(string(tx)), `"`) {
			var h common.Hash
			if err := json.Unmarshal(tx, &h); err != nil {
				return nil, wrapOut(fmt.Sprintf("block transaction %d", i), err)
			}
			b.TxHashes = append(b.TxHashes, h)
			continue
		}
		full, err := OutTransaction(tx)
		if err != nil {
			return nil, err
		}
		b.Transactions = append(b.Transactions, full)
	}
	return b, nil
}

// TxCount returns the number of transactions regardless of block shape.
func (b *Block) TxCount() int {
	return len(b.TxHashes) + len(b.Transactions)
}

// Transaction is a decoded transaction object as returned by
// eth_getTransactionBy*, parity_pendingTransactions and the signer.
type Transaction struct {
	Hash             common.Hash
	BlockHash        *common.Hash
	BlockNumber      *big.Int
	TransactionIndex *uint64
	From             common.Address
	To               *common.Address
	Creates          *common.Address
	Gas              *big.Int
	GasPrice         *big.Int
	Value            *big.Int
	Nonce            uint64
	Input            hexutil.Bytes
	ChainID          *big.Int
	Raw              hexutil.Bytes
	PublicKey        hexutil.Bytes
	Condition        *Condition
	V, R, S          *big.Int
}

type wireTransaction struct {
	Hash             common.Hash     `json:"hash"`
	BlockHash        *common.Hash    `json:"blockHash"`
	BlockNumber      *Quantity       `json:"blockNumber"`
	TransactionIndex *Quantity       `json:"transactionIndex"`
	From             common.Address  `json:"from"`
	To               *common.Address `json:"to"`
	Creates          *common.Address `json:"creates"`
	Gas              *Quantity       `json:"gas"`
	GasPrice         *Quantity       `json:"gasPrice"`
	Value            *Quantity       `json:"value"`
	Nonce            *Quantity       `json:"nonce"`
	Input            hexutil.Bytes   `json:"input"`
	Data             hexutil.Bytes   `json:"data"`
	ChainID          *Quantity       `json:"chainId"`
	Raw              hexutil.Bytes   `json:"raw"`
	PublicKey        hexutil.Bytes   `json:"publicKey"`
	Condition        *wireCondition  `json:"condition"`
	V                *Quantity       `json:"v"`
	R                *Quantity       `json:"r"`
	S                *Quantity       `json:"s"`
}

// OutTransaction decodes a transaction. A null result returns (nil, nil).
func OutTransaction(raw json.RawMessage) (*Transaction, error) {
	var w wireTransaction
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("transaction", err)
	}
	tx := &Transaction{
		Hash:        w.Hash,
		BlockHash:   w.BlockHash,
		BlockNumber: w.BlockNumber.bigOrNil(),
		From:        w.From,
		To:          w.To,
		Creates:     w.Creates,
		Gas:         w.Gas.Big(),
		GasPrice:    w.GasPrice.Big(),
		Value:       w.Value.Big(),
		Nonce:       w.Nonce.uint64(),
		Input:       w.Input,
		ChainID:     w.ChainID.bigOrNil(),
		Raw:         w.Raw,
		PublicKey:   w.PublicKey,
		V:           w.V.bigOrNil(),
		R:           w.R.bigOrNil(),
		S:           w.S.bigOrNil(),
	}
	if tx.Input == nil {
		tx.Input = w.Data
	}
	if w.TransactionIndex != nil {
		idx := w.TransactionIndex.uint64()
		tx.TransactionIndex = &idx
	}
	if w.Condition != nil {
		tx.Condition = w.Condition.condition()
	}
	return tx, nil
}

// OutTransactions decodes a list of transactions.
func OutTransactions(raw json.RawMessage) ([]*Transaction, error) {
	var items []json.RawMessage
	if ok, err := decode(raw, &items); !ok || err != nil {
		return nil, wrapOut("transactions", err)
	}
	out := make([]*Transaction, 0, len(items))
	for _, item := range items {
		tx, err := OutTransaction(item)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// Receipt is a decoded eth_getTransactionReceipt result.
type Receipt struct {
	TransactionHash   common.Hash
	TransactionIndex  uint64
	BlockHash         common.Hash
	BlockNumber       *big.Int
	From              common.Address
	To                *common.Address
	ContractAddress   *common.Address
	CumulativeGasUsed *big.Int
	GasUsed           *big.Int
	EffectiveGasPrice *big.Int
	Status            *uint64
	Logs              []*Log
}

type wireReceipt struct {
	TransactionHash   common.Hash       `json:"transactionHash"`
	TransactionIndex  *Quantity         `json:"transactionIndex"`
	BlockHash         common.Hash       `json:"blockHash"`
	BlockNumber       *Quantity         `json:"blockNumber"`
	From              common.Address    `json:"from"`
	To                *common.Address   `json:"to"`
	ContractAddress   *common.Address   `json:"contractAddress"`
	CumulativeGasUsed *Quantity         `json:"cumulativeGasUsed"`
	GasUsed           *Quantity         `json:"gasUsed"`
	EffectiveGasPrice *Quantity         `json:"effectiveGasPrice"`
	Status            *Quantity         `json:"status"`
	Logs              []json.RawMessage `json:"logs"`
}

// OutReceipt decodes a receipt. A null result (not yet mined) returns
// (nil, nil).
func OutReceipt(raw json.RawMessage) (*Receipt, error) {
	var w wireReceipt
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("receipt", err)
	}
	r := &Receipt{
		TransactionHash:   w.TransactionHash,
		TransactionIndex:  w.TransactionIndex.uint64(),
		BlockHash:         w.BlockHash,
		BlockNumber:       w.BlockNumber.bigOrNil(),
		From:              w.From,
		To:                w.To,
		ContractAddress:   w.ContractAddress,
		CumulativeGasUsed: w.CumulativeGasUsed.Big(),
		GasUsed:           w.GasUsed.Big(),
		EffectiveGasPrice: w.EffectiveGasPrice.bigOrNil(),
	}
	if w.Status != nil {
		status := w.Status.uint64()
		r.Status = &status
	}
	for _, l := range w.Logs {
		decoded, err := OutLog(l)
		if err != nil {
			return nil, err
		}
		r.Logs = append(r.Logs, decoded)
	}
	return r, nil
}

// Log is one decoded event log.
type Log struct {
	Address          common.Address
	Topics           []common.Hash
	Data             hexutil.Bytes
	BlockNumber      *big.Int
	BlockHash        *common.Hash
	TransactionHash  *common.Hash
	TransactionIndex *big.Int
	LogIndex         *big.Int
	Removed          bool
	Type             string
}

type wireLog struct {
	Address          common.Address `json:"address"`
	Topics           []common.Hash  `json:"topics"`
	Data             hexutil.Bytes  `json:"data"`
	BlockNumber      *Quantity      `json:"blockNumber"`
	BlockHash        *common.Hash   `json:"blockHash"`
	TransactionHash  *common.Hash   `json:"transactionHash"`
	TransactionIndex *Quantity      `json:"transactionIndex"`
	LogIndex         *Quantity      `json:"logIndex"`
	Removed          bool           `json:"removed"`
	Type             string         `json:"type"`
}

// OutLog decodes one log entry.
func OutLog(raw json.RawMessage) (*Log, error) {
	var w wireLog
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("log", err)
	}
	return &Log{
		Address:          w.Address,
		Topics:           w.Topics,
		Data:             w.Data,
		BlockNumber:      w.BlockNumber.bigOrNil(),
		BlockHash:        w.BlockHash,
		TransactionHash:  w.TransactionHash,
		TransactionIndex: w.TransactionIndex.bigOrNil(),
		LogIndex:         w.LogIndex.bigOrNil(),
		Removed:          w.Removed,
		Type:             w.Type,
	}, nil
}

// OutLogs decodes eth_getLogs / eth_getFilterLogs results.
func OutLogs(raw json.RawMessage) ([]*Log, error) {
	var items []json.RawMessage
	if ok, err := decode(raw, &items); !ok || err != nil {
		return nil, wrapOut("logs", err)
	}
	out := make([]*Log, 0, len(items))
	for _, item := range items {
		l, err := OutLog(item)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Node status
// -----------------------------------------------------------------------------

// SyncStatus is the eth_syncing object. OutSyncing returns nil when the node
// reports false.
type SyncStatus struct {
	StartingBlock       *big.Int
	CurrentBlock        *big.Int
	HighestBlock        *big.Int
	WarpChunksAmount    *big.Int
	WarpChunksProcessed *big.Int
	BlockGap            []*big.Int
}

func OutSyncing(raw json.RawMessage) (*SyncStatus, error) {
	if strings.TrimSpace(string(raw)) == "false" {
		return nil, nil
	}
	var w struct {
		StartingBlock       *Quantity   `json:"startingBlock"`
		CurrentBlock        *Quantity   `json:"currentBlock"`
		HighestBlock        *Quantity   `json:"highestBlock"`
		WarpChunksAmount    *Quantity   `json:"warpChunksAmount"`
		WarpChunksProcessed *Quantity   `json:"warpChunksProcessed"`
		BlockGap            []*Quantity `json:"blockGap"`
	}
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("sync status", err)
	}
	return &SyncStatus{
		StartingBlock:       w.StartingBlock.Big(),
		CurrentBlock:        w.CurrentBlock.Big(),
		HighestBlock:        w.HighestBlock.Big(),
		WarpChunksAmount:    w.WarpChunksAmount.bigOrNil(),
		WarpChunksProcessed: w.WarpChunksProcessed.bigOrNil(),
		BlockGap:            bigList(w.BlockGap),
	}, nil
}

// ChainStatus is the parity_chainStatus object. BlockGap is nil when the
// node has no gap in its ancient block import.
type ChainStatus struct {
	BlockGap []*big.Int
}

func OutChainStatus(raw json.RawMessage) (*ChainStatus, error) {
	var w struct {
		BlockGap []*Quantity `json:"blockGap"`
	}
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("chain status", err)
	}
	return &ChainStatus{BlockGap: bigList(w.BlockGap)}, nil
}

// Peers is the parity_netPeers object.
type Peers struct {
	Active    uint64
	Connected uint64
	Max       uint64
	Peers     []Peer
}

type Peer struct {
	ID        string                     `json:"id"`
	Name      string                     `json:"name"`
	Caps      []string                   `json:"caps"`
	Network   PeerNetwork                `json:"network"`
	Protocols map[string]json.RawMessage `json:"protocols"`
}

type PeerNetwork struct {
	LocalAddress  string `json:"localAddress"`
	RemoteAddress string `json:"remoteAddress"`
}

func OutPeers(raw json.RawMessage) (*Peers, error) {
	var w struct {
		Active    *Quantity `json:"active"`
		Connected *Quantity `json:"connected"`
		Max       *Quantity `json:"max"`
		Peers     []Peer    `json:"peers"`
	}
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("peers", err)
	}
	return &Peers{
		Active:    w.Active.uint64(),
		Connected: w.Connected.uint64(),
		Max:       w.Max.uint64(),
		Peers:     w.Peers,
	}, nil
}

// -----------------------------------------------------------------------------
// Accounts and vaults
// -----------------------------------------------------------------------------

// AccountInfo is one entry of parity_accountsInfo / parity_allAccountsInfo.
type AccountInfo struct {
	Name string
	UUID string
	Meta map[string]interface{}
}

// OutAccountInfo re-keys the node's lower-case address map to checksummed
// addresses and parses the embedded meta JSON. Malformed meta is logged and
// replaced by an empty object, the same policy as OutVaultMeta.
func OutAccountInfo(raw json.RawMessage) (map[string]AccountInfo, error) {
	var w map[string]struct {
		Name string  `json:"name"`
		UUID string  `json:"uuid"`
		Meta *string `json:"meta"`
	}
	if _, err := decode(raw, &w); err != nil {
		return nil, wrapOut("account info", err)
	}
	out := make(map[string]AccountInfo, len(w))
	for addr, info := range w {
		entry := AccountInfo{Name: info.Name}
		if info.Meta != nil {
			entry.UUID = info.UUID
			entry.Meta = parseMeta(*info.Meta, "address", addr)
		}
		out[OutAddress(addr)] = entry
	}
	return out, nil
}

// HwAccountInfo is one entry of parity_hardwareAccountsInfo.
type HwAccountInfo struct {
	Manufacturer string `json:"manufacturer"`
	Name         string `json:"name"`
}

func OutHwAccountInfo(raw json.RawMessage) (map[string]HwAccountInfo, error) {
	var w map[string]HwAccountInfo
	if _, err := decode(raw, &w); err != nil {
		return nil, wrapOut("hardware account info", err)
	}
	out := make(map[string]HwAccountInfo, len(w))
	for addr, info := range w {
		out[OutAddress(addr)] = info
	}
	return out, nil
}

// OutVaultMeta parses the JSON string parity_getVaultMeta returns. A
// missing or malformed document yields an empty map.
func OutVaultMeta(raw json.RawMessage) map[string]interface{} {
	var s string
	if ok, err := decode(raw, &s); !ok || err != nil {
		if err != nil {
			log.Warn("Ignoring malformed vault meta", "err", err)
		}
		return map[string]interface{}{}
	}
	return parseMeta(s, "source", "vault")
}

func parseMeta(s string, ctx ...interface{}) map[string]interface{} {
	meta := map[string]interface{}{}
	if strings.TrimSpace(s) == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(s), &meta); err != nil || meta == nil {
		log.Warn("Ignoring malformed meta JSON", append(ctx, "err", err)...)
		return map[string]interface{}{}
	}
	return meta
}

// -----------------------------------------------------------------------------
// Signer and traces
// -----------------------------------------------------------------------------

// SignerRequest is one entry of signer_requestsToConfirm. Exactly one of
// the payload fields is set.
type SignerRequest struct {
	ID              *big.Int
	Origin          json.RawMessage
	SendTransaction *Transaction
	SignTransaction *Transaction
	Sign            *SignPayload
	Decrypt         *SignPayload
}

type SignPayload struct {
	Address common.Address `json:"address"`
	Data    hexutil.Bytes  `json:"data"`
}

func OutSignerRequest(raw json.RawMessage) (*SignerRequest, error) {
	var w struct {
		ID      *Quantity       `json:"id"`
		Origin  json.RawMessage `json:"origin"`
		Payload struct {
			SendTransaction json.RawMessage `json:"sendTransaction"`
			SignTransaction json.RawMessage `json:"signTransaction"`
			Sign            *SignPayload    `json:"sign"`
			Decrypt         *struct {
				Address common.Address `json:"address"`
				Msg     hexutil.Bytes  `json:"msg"`
			} `json:"decrypt"`
		} `json:"payload"`
	}
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("signer request", err)
	}
	req := &SignerRequest{ID: w.ID.Big(), Origin: w.Origin, Sign: w.Payload.Sign}
	var err error
	if req.SendTransaction, err = OutTransaction(w.Payload.SendTransaction); err != nil {
		return nil, err
	}
	if req.SignTransaction, err = OutTransaction(w.Payload.SignTransaction); err != nil {
		return nil, err
	}
	if w.Payload.Decrypt != nil {
		req.Decrypt = &SignPayload{Address: w.Payload.Decrypt.Address, Data: w.Payload.Decrypt.Msg}
	}
	return req, nil
}

// OutSignerRequests decodes the signer_requestsToConfirm list.
func OutSignerRequests(raw json.RawMessage) ([]*SignerRequest, error) {
	var items []json.RawMessage
	if ok, err := decode(raw, &items); !ok || err != nil {
		return nil, wrapOut("signer requests", err)
	}
	out := make([]*SignerRequest, 0, len(items))
	for _, item := range items {
		req, err := OutSignerRequest(item)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// Trace is one parity trace entry (trace_block, trace_filter, ...).
type Trace struct {
	Type                string
	Action              TraceAction
	Result              *TraceResult
	Error               string
	Subtraces           uint64
	TraceAddress        []uint64
	TransactionPosition *uint64
	TransactionHash     *common.Hash
	BlockNumber         *big.Int
	BlockHash           *common.Hash
}

type TraceAction struct {
	CallType      string
	From          *common.Address
	To            *common.Address
	Value         *big.Int
	Gas           *big.Int
	Input         hexutil.Bytes
	Init          hexutil.Bytes
	Address       *common.Address
	RefundAddress *common.Address
	Balance       *big.Int
	Author        *common.Address
	RewardType    string
}

type TraceResult struct {
	GasUsed *big.Int
	Output  hexutil.Bytes
	Address *common.Address
	Code    hexutil.Bytes
}

func OutTrace(raw json.RawMessage) (*Trace, error) {
	var w struct {
		Type   string `json:"type"`
		Action struct {
			CallType      string          `json:"callType"`
			From          *common.Address `json:"from"`
			To            *common.Address `json:"to"`
			Value         *Quantity       `json:"value"`
			Gas           *Quantity       `json:"gas"`
			Input         hexutil.Bytes   `json:"input"`
			Init          hexutil.Bytes   `json:"init"`
			Address       *common.Address `json:"address"`
			RefundAddress *common.Address `json:"refundAddress"`
			Balance       *Quantity       `json:"balance"`
			Author        *common.Address `json:"author"`
			RewardType    string          `json:"rewardType"`
		} `json:"action"`
		Result *struct {
			GasUsed *Quantity       `json:"gasUsed"`
			Output  hexutil.Bytes   `json:"output"`
			Address *common.Address `json:"address"`
			Code    hexutil.Bytes   `json:"code"`
		} `json:"result"`
		Error               string       `json:"error"`
		Subtraces           uint64       `json:"subtraces"`
		TraceAddress        []uint64     `json:"traceAddress"`
		TransactionPosition *uint64      `json:"transactionPosition"`
		TransactionHash     *common.Hash `json:"transactionHash"`
		BlockNumber         *Quantity    `json:"blockNumber"`
		BlockHash           *common.Hash `json:"blockHash"`
	}
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("trace", err)
	}
	t := &Trace{
		Type: w.Type,
		Action: TraceAction{
			CallType:      w.Action.CallType,
			From:          w.Action.From,
			To:            w.Action.To,
			Value:         w.Action.Value.bigOrNil(),
			Gas:           w.Action.Gas.bigOrNil(),
			Input:         w.Action.Input,
			Init:          w.Action.Init,
			Address:       w.Action.Address,
			RefundAddress: w.Action.RefundAddress,
			Balance:       w.Action.Balance.bigOrNil(),
			Author:        w.Action.Author,
			RewardType:    w.Action.RewardType,
		},
		Error:               w.Error,
		Subtraces:           w.Subtraces,
		TraceAddress:        w.TraceAddress,
		TransactionPosition: w.TransactionPosition,
		TransactionHash:     w.TransactionHash,
		BlockNumber:         w.BlockNumber.bigOrNil(),
		BlockHash:           w.BlockHash,
	}
	if w.Result != nil {
		t.Result = &TraceResult{
			GasUsed: w.Result.GasUsed.Big(),
			Output:  w.Result.Output,
			Address: w.Result.Address,
			Code:    w.Result.Code,
		}
	}
	return t, nil
}

// OutTraces decodes a list of traces.
func OutTraces(raw json.RawMessage) ([]*Trace, error) {
	var items []json.RawMessage
	if ok, err := decode(raw, &items); !ok || err != nil {
		return nil, wrapOut("traces", err)
	}
	out := make([]*Trace, 0, len(items))
	for _, item := range items {
		t, err := OutTrace(item)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TraceReplay is the result of trace_call / trace_rawTransaction /
// trace_replayTransaction. StateDiff and VmTrace stay raw.
type TraceReplay struct {
	Output    hexutil.Bytes
	Trace     []*Trace
	StateDiff json.RawMessage
	VMTrace   json.RawMessage
}

func OutTraceReplay(raw json.RawMessage) (*TraceReplay, error) {
	var w struct {
		Output    hexutil.Bytes     `json:"output"`
		Trace     []json.RawMessage `json:"trace"`
		StateDiff json.RawMessage   `json:"stateDiff"`
		VMTrace   json.RawMessage   `json:"vmTrace"`
	}
	if ok, err := decode(raw, &w); !ok || err != nil {
		return nil, wrapOut("trace replay", err)
	}
	r := &TraceReplay{Output: w.Output, StateDiff: w.StateDiff, VMTrace: w.VMTrace}
	for _, item := range w.Trace {
		t, err := OutTrace(item)
		if err != nil {
			return nil, err
		}
		r.Trace = append(r.Trace, t)
	}
	return r, nil
}

func bigList(qs []*Quantity) []*big.Int {
	if len(qs) == 0 {
		return nil
	}
	out := make([]*big.Int, len(qs))
	for i, q := range qs {
		out[i] = q.Big()
	}
	return out
}

func wrapOut(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("decode %s: %w", what, err)
}
