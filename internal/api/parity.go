package api

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Parity is the parity_* namespace: account management, vaults, node
// information and the transaction queue.
type Parity struct {
	t rpc.Transport
}

// LocalTransaction is one entry of parity_localTransactions.
type LocalTransaction struct {
	Status      string
	Transaction *format.Transaction
	Hash        string
}

func (p *Parity) AccountsInfo(ctx context.Context) (map[string]format.AccountInfo, error) {
	return out(format.OutAccountInfo)(p.t.Execute(ctx, "parity_accountsInfo"))
}

func (p *Parity) AllAccountsInfo(ctx context.Context) (map[string]format.AccountInfo, error) {
	return out(format.OutAccountInfo)(p.t.Execute(ctx, "parity_allAccountsInfo"))
}

func (p *Parity) ChangePassword(ctx context.Context, address, password, newPassword string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_changePassword", format.InAddress(address), password, newPassword))
}

func (p *Parity) ChangeVault(ctx context.Context, address, vaultName string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_changeVault", format.InAddress(address), vaultName))
}

func (p *Parity) ChainStatus(ctx context.Context) (*format.ChainStatus, error) {
	return out(format.OutChainStatus)(p.t.Execute(ctx, "parity_chainStatus"))
}

// CheckRequest returns the transaction hash of a posted request, or "" while
// it is still waiting for confirmation.
func (p *Parity) CheckRequest(ctx context.Context, requestID *big.Int) (string, error) {
	return asString(p.t.Execute(ctx, "parity_checkRequest", format.InNumber16(requestID)))
}

func (p *Parity) CloseVault(ctx context.Context, vaultName string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_closeVault", vaultName))
}

func (p *Parity) DefaultAccount(ctx context.Context) (string, error) {
	return asAddress(p.t.Execute(ctx, "parity_defaultAccount"))
}

func (p *Parity) Enode(ctx context.Context) (string, error) {
	return asString(p.t.Execute(ctx, "parity_enode"))
}

func (p *Parity) ExtraData(ctx context.Context) (string, error) {
	return asString(p.t.Execute(ctx, "parity_extraData"))
}

func (p *Parity) GasFloorTarget(ctx context.Context) (*big.Int, error) {
	return asNumber(p.t.Execute(ctx, "parity_gasFloorTarget"))
}

func (p *Parity) GenerateSecretPhrase(ctx context.Context) (string, error) {
	return asString(p.t.Execute(ctx, "parity_generateSecretPhrase"))
}

func (p *Parity) GetVaultMeta(ctx context.Context, vaultName string) (map[string]interface{}, error) {
	raw, err := p.t.Execute(ctx, "parity_getVaultMeta", vaultName)
	if err != nil {
		return nil, err
	}
	return format.OutVaultMeta(raw), nil
}

func (p *Parity) HardwareAccountsInfo(ctx context.Context) (map[string]format.HwAccountInfo, error) {
	return out(format.OutHwAccountInfo)(p.t.Execute(ctx, "parity_hardwareAccountsInfo"))
}

func (p *Parity) KillAccount(ctx context.Context, address, password string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_killAccount", format.InAddress(address), password))
}

func (p *Parity) ListOpenedVaults(ctx context.Context) ([]string, error) {
	return asStrings(p.t.Execute(ctx, "parity_listOpenedVaults"))
}

func (p *Parity) ListVaults(ctx context.Context) ([]string, error) {
	return asStrings(p.t.Execute(ctx, "parity_listVaults"))
}

// LocalTransactions returns the node's locally submitted transactions keyed
// by hash.
func (p *Parity) LocalTransactions(ctx context.Context) (map[string]LocalTransaction, error) {
	raw, err := p.t.Execute(ctx, "parity_localTransactions")
	if err != nil {
		return nil, err
	}
	var wire map[string]struct {
		Status      string          `json:"status"`
		Transaction json.RawMessage `json:"transaction"`
		Hash        string          `json:"hash"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil && !rpc.IsNull(raw) {
		return nil, parseErr("local transactions", err)
	}
	result := make(map[string]LocalTransaction, len(wire))
	for hash, entry := range wire {
		tx, err := format.OutTransaction(entry.Transaction)
		if err != nil {
			return nil, parseErr("local transaction", err)
		}
		result[hash] = LocalTransaction{Status: entry.Status, Transaction: tx, Hash: entry.Hash}
	}
	return result, nil
}

func (p *Parity) MinGasPrice(ctx context.Context) (*big.Int, error) {
	return asNumber(p.t.Execute(ctx, "parity_minGasPrice"))
}

func (p *Parity) Mode(ctx context.Context) (string, error) {
	return asString(p.t.Execute(ctx, "parity_mode"))
}

func (p *Parity) NetChain(ctx context.Context) (string, error) {
	return asString(p.t.Execute(ctx, "parity_netChain"))
}

func (p *Parity) NetPeers(ctx context.Context) (*format.Peers, error) {
	return out(format.OutPeers)(p.t.Execute(ctx, "parity_netPeers"))
}

func (p *Parity) NewAccountFromPhrase(ctx context.Context, phrase, password string) (string, error) {
	return asAddress(p.t.Execute(ctx, "parity_newAccountFromPhrase", phrase, password))
}

func (p *Parity) NewAccountFromSecret(ctx context.Context, secret, password string) (string, error) {
	return asAddress(p.t.Execute(ctx, "parity_newAccountFromSecret", format.InHex(secret), password))
}

// NewAccountFromWallet imports a JSON wallet (presale or secret-storage).
func (p *Parity) NewAccountFromWallet(ctx context.Context, wallet, password string) (string, error) {
	return asAddress(p.t.Execute(ctx, "parity_newAccountFromWallet", wallet, password))
}

func (p *Parity) NewVault(ctx context.Context, vaultName, password string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_newVault", vaultName, password))
}

func (p *Parity) NextNonce(ctx context.Context, address string) (*big.Int, error) {
	return asNumber(p.t.Execute(ctx, "parity_nextNonce", format.InAddress(address)))
}

func (p *Parity) NodeName(ctx context.Context) (string, error) {
	return asString(p.t.Execute(ctx, "parity_nodeName"))
}

func (p *Parity) OpenVault(ctx context.Context, vaultName, password string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_openVault", vaultName, password))
}

func (p *Parity) PendingTransactions(ctx context.Context) ([]*format.Transaction, error) {
	return out(format.OutTransactions)(p.t.Execute(ctx, "parity_pendingTransactions"))
}

func (p *Parity) PhraseToAddress(ctx context.Context, phrase string) (string, error) {
	return asAddress(p.t.Execute(ctx, "parity_phraseToAddress", phrase))
}

// PostTransaction queues a transaction for the signer and returns the
// request id to poll with CheckRequest.
func (p *Parity) PostTransaction(ctx context.Context, req format.CallRequest) (*big.Int, error) {
	return asNumber(p.t.Execute(ctx, "parity_postTransaction", format.InOptions(req)))
}

func (p *Parity) SetAccountMeta(ctx context.Context, address string, meta map[string]interface{}) (bool, error) {
	m, err := metaString(meta)
	if err != nil {
		return false, err
	}
	return asBool(p.t.Execute(ctx, "parity_setAccountMeta", format.InAddress(address), m))
}

func (p *Parity) SetAccountName(ctx context.Context, address, name string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_setAccountName", format.InAddress(address), name))
}

// SetMode switches the node between "active", "passive", "dark" and "offline".
func (p *Parity) SetMode(ctx context.Context, mode string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_setMode", mode))
}

func (p *Parity) SetVaultMeta(ctx context.Context, vaultName string, meta map[string]interface{}) (bool, error) {
	m, err := metaString(meta)
	if err != nil {
		return false, err
	}
	return asBool(p.t.Execute(ctx, "parity_setVaultMeta", vaultName, m))
}

func (p *Parity) TestPassword(ctx context.Context, address, password string) (bool, error) {
	return asBool(p.t.Execute(ctx, "parity_testPassword", format.InAddress(address), password))
}
