package api

import (
	"context"
	"math/big"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Signer is the signer_* namespace operating on the confirmation queue.
type Signer struct {
	t rpc.Transport
}

// ConfirmRequest signs and submits a queued request. modify may override
// gas and gasPrice. The result is the transaction hash.
func (s *Signer) ConfirmRequest(ctx context.Context, id *big.Int, modify format.CallRequest, password string) (string, error) {
	return asString(s.t.Execute(ctx, "signer_confirmRequest", format.InNumber16(id), format.InOptions(modify), password))
}

// ConfirmRequestRaw confirms a request with an externally produced signed
// payload.
func (s *Signer) ConfirmRequestRaw(ctx context.Context, id *big.Int, data string) (string, error) {
	return asString(s.t.Execute(ctx, "signer_confirmRequestRaw", format.InNumber16(id), format.InData(data)))
}

func (s *Signer) GenerateAuthorizationToken(ctx context.Context) (string, error) {
	return asString(s.t.Execute(ctx, "signer_generateAuthorizationToken"))
}

func (s *Signer) RejectRequest(ctx context.Context, id *big.Int) (bool, error) {
	return asBool(s.t.Execute(ctx, "signer_rejectRequest", format.InNumber16(id)))
}

func (s *Signer) RequestsToConfirm(ctx context.Context) ([]*format.SignerRequest, error) {
	return out(format.OutSignerRequests)(s.t.Execute(ctx, "signer_requestsToConfirm"))
}

func (s *Signer) SignerEnabled(ctx context.Context) (bool, error) {
	return asBool(s.t.Execute(ctx, "signer_signerEnabled"))
}
