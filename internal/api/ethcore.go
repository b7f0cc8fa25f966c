package api

import (
	"context"
	"math/big"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Ethcore is the legacy ethcore_* namespace that older Parity releases
// served before the parity_* rename.
type Ethcore struct {
	t rpc.Transport
}

func (e *Ethcore) NetChain(ctx context.Context) (string, error) {
	return asString(e.t.Execute(ctx, "ethcore_netChain"))
}

func (e *Ethcore) NetPeers(ctx context.Context) (*format.Peers, error) {
	return out(format.OutPeers)(e.t.Execute(ctx, "ethcore_netPeers"))
}

func (e *Ethcore) NodeName(ctx context.Context) (string, error) {
	return asString(e.t.Execute(ctx, "ethcore_nodeName"))
}

func (e *Ethcore) ExtraData(ctx context.Context) (string, error) {
	return asString(e.t.Execute(ctx, "ethcore_extraData"))
}

func (e *Ethcore) GasFloorTarget(ctx context.Context) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "ethcore_gasFloorTarget"))
}

func (e *Ethcore) MinGasPrice(ctx context.Context) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "ethcore_minGasPrice"))
}

func (e *Ethcore) TransactionsLimit(ctx context.Context) (*big.Int, error) {
	return asNumber(e.t.Execute(ctx, "ethcore_transactionsLimit"))
}
