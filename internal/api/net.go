package api

import (
	"context"
	"math/big"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Net is the net_* namespace.
type Net struct {
	t rpc.Transport
}

func (n *Net) Listening(ctx context.Context) (bool, error) {
	return asBool(n.t.Execute(ctx, "net_listening"))
}

func (n *Net) PeerCount(ctx context.Context) (*big.Int, error) {
	return asNumber(n.t.Execute(ctx, "net_peerCount"))
}

// Version returns the network id as a decimal string.
func (n *Net) Version(ctx context.Context) (string, error) {
	return asString(n.t.Execute(ctx, "net_version"))
}

// Web3 is the web3_* namespace.
type Web3 struct {
	t rpc.Transport
}

func (w *Web3) ClientVersion(ctx context.Context) (string, error) {
	return asString(w.t.Execute(ctx, "web3_clientVersion"))
}

// Sha3 returns the node's keccak-256 of data.
func (w *Web3) Sha3(ctx context.Context, data string) (string, error) {
	return asString(w.t.Execute(ctx, "web3_sha3", format.InHex(data)))
}
