package api

import (
	"context"
	"math/big"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Trace is the trace_* namespace.
type Trace struct {
	t rpc.Transport
}

// Trace kinds accepted by Call, RawTransaction and ReplayTransaction.
const (
	TraceKindTrace     = "trace"
	TraceKindVMTrace   = "vmTrace"
	TraceKindStateDiff = "stateDiff"
)

func traceKinds(kinds []string) []string {
	if len(kinds) == 0 {
		return []string{TraceKindTrace}
	}
	return kinds
}

func (tr *Trace) Block(ctx context.Context, block format.BlockNumber) ([]*format.Trace, error) {
	return out(format.OutTraces)(tr.t.Execute(ctx, "trace_block", format.InBlockNumber(block)))
}

// Call traces a message call. kinds defaults to {"trace"}.
func (tr *Trace) Call(ctx context.Context, req format.CallRequest, kinds []string, block format.BlockNumber) (*format.TraceReplay, error) {
	return out(format.OutTraceReplay)(tr.t.Execute(ctx, "trace_call",
		format.InOptions(req), traceKinds(kinds), format.InBlockNumber(block)))
}

func (tr *Trace) Filter(ctx context.Context, filter format.TraceFilter) ([]*format.Trace, error) {
	return out(format.OutTraces)(tr.t.Execute(ctx, "trace_filter", format.InTraceFilter(filter)))
}

// Get returns the trace at position inside transaction txHash.
func (tr *Trace) Get(ctx context.Context, txHash string, position []uint64) (*format.Trace, error) {
	indices := make([]string, len(position))
	for i, p := range position {
		indices[i] = format.InNumber16(new(big.Int).SetUint64(p))
	}
	return out(format.OutTrace)(tr.t.Execute(ctx, "trace_get", format.InHash(txHash), indices))
}

func (tr *Trace) RawTransaction(ctx context.Context, data string, kinds []string) (*format.TraceReplay, error) {
	return out(format.OutTraceReplay)(tr.t.Execute(ctx, "trace_rawTransaction", format.InData(data), traceKinds(kinds)))
}

func (tr *Trace) ReplayTransaction(ctx context.Context, txHash string, kinds []string) (*format.TraceReplay, error) {
	return out(format.OutTraceReplay)(tr.t.Execute(ctx, "trace_replayTransaction", format.InHash(txHash), traceKinds(kinds)))
}

func (tr *Trace) Transaction(ctx context.Context, txHash string) ([]*format.Trace, error) {
	return out(format.OutTraces)(tr.t.Execute(ctx, "trace_transaction", format.InHash(txHash)))
}
