package api

import (
	"context"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Personal is the personal_* namespace.
type Personal struct {
	t rpc.Transport
}

func (p *Personal) ListAccounts(ctx context.Context) ([]string, error) {
	return asAddresses(p.t.Execute(ctx, "personal_listAccounts"))
}

func (p *Personal) NewAccount(ctx context.Context, password string) (string, error) {
	return asAddress(p.t.Execute(ctx, "personal_newAccount", password))
}

func (p *Personal) SendTransaction(ctx context.Context, req format.CallRequest, password string) (string, error) {
	return asString(p.t.Execute(ctx, "personal_sendTransaction", format.InOptions(req), password))
}

// SignAndSendTransaction signs with the node's keystore and returns the hash.
func (p *Personal) SignAndSendTransaction(ctx context.Context, req format.CallRequest, password string) (string, error) {
	return asString(p.t.Execute(ctx, "personal_signAndSendTransaction", format.InOptions(req), password))
}

// UnlockAccount unlocks address for duration seconds.
func (p *Personal) UnlockAccount(ctx context.Context, address, password string, duration uint64) (bool, error) {
	return asBool(p.t.Execute(ctx, "personal_unlockAccount", format.InAddress(address), password, duration))
}
