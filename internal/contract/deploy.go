package contract

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// DeployStage reports progress through Deploy.
type DeployStage string

const (
	StageEstimateGas     DeployStage = "estimateGas"
	StagePostTransaction DeployStage = "postTransaction"
	StageCheckRequest    DeployStage = "checkRequest"
	StageGetReceipt      DeployStage = "getTransactionReceipt"
	StageHasReceipt      DeployStage = "hasReceipt"
	StageGetCode         DeployStage = "getCode"
	StageCompleted       DeployStage = "completed"
)

// DeployOptions carries the optional knobs of Deploy.
type DeployOptions struct {
	// Password signs through personal_signAndSendTransaction. When empty
	// the transaction is posted to the signer queue instead and Deploy
	// waits for it to be confirmed.
	Password string
	// SkipGasEstimate leaves Gas as given instead of estimating it.
	SkipGasEstimate bool
	// OnStage, when set, is called as Deploy moves through its stages.
	OnStage func(stage DeployStage)
}

// gasPadding is applied to estimates, in percent.
const gasPadding = 120

// Deploy sends code with the ABI-encoded constructor args appended, waits
// for the receipt, verifies that code now lives at the created address and
// binds the contract to it. The returned address is checksummed.
func (c *Contract) Deploy(ctx context.Context, opts format.CallRequest, code []byte, args []interface{}, dopts DeployOptions) (string, error) {
	stage := func(s DeployStage) {
		log.Debug("Contract deploy", "stage", s)
		if dopts.OnStage != nil {
			dopts.OnStage(s)
		}
	}

	encoded, err := c.constructor.Encode(args...)
	if err != nil {
		return "", err
	}
	req := opts.Copy()
	req.To = nil
	req.Data = append(append(append([]byte{}, req.Data...), code...), encoded...)

	if req.Gas == nil && !dopts.SkipGasEstimate {
		stage(StageEstimateGas)
		gas, err := c.api.Eth.EstimateGas(ctx, req)
		if err != nil {
			return "", err
		}
		req.Gas = new(big.Int).Div(new(big.Int).Mul(gas, big.NewInt(gasPadding)), big.NewInt(100))
	}

	var hash string
	stage(StagePostTransaction)
	if dopts.Password != "" {
		hash, err = c.api.Personal.SignAndSendTransaction(ctx, req, dopts.Password)
		if err != nil {
			return "", err
		}
	} else {
		id, err := c.api.Parity.PostTransaction(ctx, req)
		if err != nil {
			return "", err
		}
		stage(StageCheckRequest)
		if hash, err = c.PollCheckRequest(ctx, id); err != nil {
			return "", err
		}
	}

	stage(StageGetReceipt)
	receipt, err := c.PollTransactionReceipt(ctx, hash)
	if err != nil {
		return "", err
	}
	stage(StageHasReceipt)
	if req.Gas != nil && receipt.GasUsed != nil && receipt.GasUsed.Cmp(req.Gas) == 0 {
		return "", rpc.Errorf(rpc.KindNotDeployed, "contract not deployed, gasUsed == gas (%s)", req.Gas)
	}
	if receipt.ContractAddress == nil || *receipt.ContractAddress == (common.Address{}) {
		return "", rpc.Errorf(rpc.KindNotDeployed, "contract not deployed, receipt of %s has no contract address", hash)
	}

	stage(StageGetCode)
	address := receipt.ContractAddress.Hex()
	deployed, err := c.api.Eth.GetCode(ctx, address, format.Latest)
	if err != nil {
		return "", err
	}
	if deployed == "" || deployed == "0x" {
		return "", rpc.Errorf(rpc.KindNotDeployed, "contract not deployed, getCode returned 0x")
	}

	c.At(address)
	stage(StageCompleted)
	log.Info("Contract deployed", "address", address, "tx", hash)
	return address, nil
}

// PollTransactionReceipt asks for the receipt of hash every poll interval
// until one exists. Any failed attempt ends polling with that error. The
// loop is bounded by the poll timeout (KindTimeout) and by ctx.
func (c *Contract) PollTransactionReceipt(ctx context.Context, hash string) (*format.Receipt, error) {
	return poll(ctx, c.pollInterval, c.pollTimeout, "transaction receipt "+hash,
		func(ctx context.Context) (*format.Receipt, bool, error) {
			receipt, err := c.api.Eth.GetTransactionReceipt(ctx, hash)
			return receipt, receipt != nil, err
		})
}

// PollCheckRequest waits for a signer request to be confirmed and returns
// its transaction hash.
func (c *Contract) PollCheckRequest(ctx context.Context, id *big.Int) (string, error) {
	return poll(ctx, c.pollInterval, c.pollTimeout, "signer request "+format.InNumber16(id),
		func(ctx context.Context) (string, bool, error) {
			hash, err := c.api.Parity.CheckRequest(ctx, id)
			return hash, hash != "", err
		})
}

// poll runs attempt immediately and then every interval until it reports
// done or fails.
func poll[T any](ctx context.Context, interval, timeout time.Duration, what string,
	attempt func(context.Context) (T, bool, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempts := 1; ; attempts++ {
		v, done, err := attempt(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return zero, rpc.Wrap(rpc.KindTimeout, err, "polling "+what)
			}
			return zero, err
		}
		if done {
			return v, nil
		}
		log.Trace("Polling", "what", what, "attempt", attempts)

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return zero, rpc.Errorf(rpc.KindTimeout, "%s not available after %d attempts", what, attempts)
			}
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}
