package txsubmit

import (
	"context"
	"fmt"
	"math"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

// FeePolicy turns simulated gas usage into a gas limit and a fee.
type FeePolicy struct {
	GasPrice      sdk.DecCoin
	GasAdjustment float64
	MaxGas        uint64
	Granter       string
}

func NewFeePolicy(cfg config.ChainConfig) (FeePolicy, error) {
	gasPrice, err := sdk.ParseDecCoin(cfg.GasPrice)
	if err != nil {
		return FeePolicy{}, fmt.Errorf("invalid gas price %q: %w", cfg.GasPrice, err)
	}

	return FeePolicy{
		GasPrice:      gasPrice,
		GasAdjustment: cfg.GasAdjustment,
		MaxGas:        cfg.MaxGas,
		Granter:       cfg.FeeGranter,
	}, nil
}

// GasLimit applies the adjustment to the simulated gas usage.
func (p FeePolicy) GasLimit(gasUsed uint64) (uint64, error) {
	adjustment := p.GasAdjustment
	if adjustment < 1 {
		adjustment = 1
	}

	gas := uint64(math.Ceil(float64(gasUsed) * adjustment))
	if p.MaxGas > 0 && gas > p.MaxGas {
		return 0, fmt.Errorf("estimated gas %d exceeds max gas %d", gas, p.MaxGas)
	}

	return gas, nil
}

// Fee is ceil(gas price * gas limit) in the gas price denom.
func (p FeePolicy) Fee(gasLimit uint64) sdk.Coins {
	amount := p.GasPrice.Amount.MulInt64(int64(gasLimit)).Ceil().TruncateInt()
	return sdk.NewCoins(sdk.NewCoin(p.GasPrice.Denom, amount))
}

// EstimateFee simulates the unsigned message set and derives the gas limit
// and fee from the result. No fallback fee is ever substituted.
func (c *Client) EstimateFee(ctx context.Context, cred Credential, account AccountState, policy FeePolicy, memo Memo, msgs []*codectypes.Any) (uint64, sdk.Coins, error) {
	simTx, err := c.buildTx(cred, account, memo, msgs, txFee{granter: policy.Granter}, false)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build simulation tx: %w", ErrFeeEstimationFailed, err)
	}

	res, err := c.txs.Simulate(ctx, &txtypes.SimulateRequest{TxBytes: simTx})
	if err != nil {
		if isTransportError(err) {
			// the node never ran the simulation, the same sequence can be simulated again
			return 0, nil, &NetworkError{Op: "simulate", Address: cred.Address(),
				Err: fmt.Errorf("%w: %w", ErrFeeEstimationFailed, err)}
		}
		return 0, nil, fmt.Errorf("%w: simulate: %w", ErrFeeEstimationFailed, err)
	}
	if res.GasInfo == nil {
		return 0, nil, fmt.Errorf("%w: simulate returned no gas info", ErrFeeEstimationFailed)
	}

	gas, err := policy.GasLimit(res.GasInfo.GasUsed)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrFeeEstimationFailed, err)
	}

	fee := policy.Fee(gas)
	c.logger.Debugf("estimated fee for %d msgs, gas used: %d, gas limit: %d, fee: %s",
		len(msgs), res.GasInfo.GasUsed, gas, fee)

	return gas, fee, nil
}

func isTransportError(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
