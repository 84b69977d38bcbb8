package txsubmit

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	tmtypes "github.com/cometbft/cometbft/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

func TestAssembleSignsWithEstimatedFee(t *testing.T) {
	cred := newTestCredential()
	txs := &fakeTxService{gasUsed: 100_000}
	c := newTestClient(t, nil, txs, nil)

	account := AccountState{Address: cred.Address(), AccountNumber: 3, Sequence: 9}
	msgs := testMsgs(t, cred, 2)

	tx, err := c.Assemble(context.Background(), cred, account, testPolicy(t), "hello", msgs)
	require.NoError(t, err)
	require.Equal(t, uint64(150_000), tx.GasLimit)
	require.Equal(t, sdk.NewCoins(sdk.NewCoin("uatom", sdkmath.NewInt(3750))), tx.Fee)
	require.Equal(t, uint64(9), tx.Sequence)
	require.Equal(t, 2, tx.MessageCount)
	require.Equal(t, []byte(tmtypes.Tx(tx.Bytes).Hash()), []byte(tx.Hash))
	require.Equal(t, strings.ToUpper(tx.HashHex()), tx.HashHex())

	var raw txtypes.TxRaw
	require.NoError(t, raw.Unmarshal(tx.Bytes))
	require.Len(t, raw.Signatures, 1)

	var body txtypes.TxBody
	require.NoError(t, body.Unmarshal(raw.BodyBytes))
	require.Equal(t, "hello", body.Memo)
	require.Len(t, body.Messages, 2)
	require.Equal(t, msgs[1].Value, body.Messages[1].Value)

	var authInfo txtypes.AuthInfo
	require.NoError(t, authInfo.Unmarshal(raw.AuthInfoBytes))
	require.Equal(t, uint64(9), authInfo.SignerInfos[0].Sequence)
	require.Equal(t, uint64(150_000), authInfo.Fee.GasLimit)

	signDoc := txtypes.SignDoc{
		BodyBytes:     raw.BodyBytes,
		AuthInfoBytes: raw.AuthInfoBytes,
		ChainId:       "test-1",
		AccountNumber: 3,
	}
	signBytes, err := signDoc.Marshal()
	require.NoError(t, err)
	require.True(t, cred.PubKey().VerifySignature(signBytes, raw.Signatures[0]))
}

func TestAssembleSimulatesUnsigned(t *testing.T) {
	cred := newTestCredential()
	txs := &fakeTxService{gasUsed: 80_000}
	c := newTestClient(t, nil, txs, nil)

	_, err := c.Assemble(context.Background(), cred, AccountState{Address: cred.Address()}, testPolicy(t), "", testMsgs(t, cred, 1))
	require.NoError(t, err)
	require.Len(t, txs.simulated, 1)

	var raw txtypes.TxRaw
	require.NoError(t, raw.Unmarshal(txs.simulated[0]))
	require.Len(t, raw.Signatures, 1)
	require.Empty(t, raw.Signatures[0])
}

func TestAssembleRejectsEmptyAndLongMemo(t *testing.T) {
	cred := newTestCredential()
	txs := &fakeTxService{gasUsed: 1}
	c := newTestClient(t, nil, txs, nil)

	_, err := c.Assemble(context.Background(), cred, AccountState{}, testPolicy(t), "", nil)
	require.ErrorIs(t, err, ErrNoMessages)

	_, err = c.Assemble(context.Background(), cred, AccountState{}, testPolicy(t), Memo(strings.Repeat("m", 257)), testMsgs(t, cred, 1))
	require.ErrorIs(t, err, ErrMemoTooLong)
	require.Empty(t, txs.simulated)
}

func TestAssembleFeeEstimationFailure(t *testing.T) {
	cred := newTestCredential()

	txs := &fakeTxService{simulateErr: errors.New("out of gas in location: ReadFlat")}
	c := newTestClient(t, nil, txs, nil)
	_, err := c.Assemble(context.Background(), cred, AccountState{}, testPolicy(t), "", testMsgs(t, cred, 1))
	require.ErrorIs(t, err, ErrFeeEstimationFailed)
	require.Contains(t, err.Error(), "out of gas")
	require.False(t, IsRetryable(err))

	txs = &fakeTxService{gasUsed: 3_000_000}
	c = newTestClient(t, nil, txs, nil)
	_, err = c.Assemble(context.Background(), cred, AccountState{}, testPolicy(t), "", testMsgs(t, cred, 1))
	require.ErrorIs(t, err, ErrFeeEstimationFailed)
	require.Empty(t, txs.broadcasted)
}

func TestEstimateFeeSimulationErrorKinds(t *testing.T) {
	cred := newTestCredential()

	txs := &fakeTxService{simulateErr: status.Error(codes.Unavailable, "connection refused")}
	c := newTestClient(t, nil, txs, nil)
	_, _, err := c.EstimateFee(context.Background(), cred, AccountState{}, testPolicy(t), "", testMsgs(t, cred, 1))
	require.ErrorIs(t, err, ErrFeeEstimationFailed)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.True(t, IsRetryable(err))
	require.False(t, IsSequenceMismatch(err))

	txs = &fakeTxService{simulateErr: status.Error(codes.Unknown,
		"account sequence mismatch, expected 5, got 6: incorrect account sequence")}
	c = newTestClient(t, nil, txs, nil)
	_, _, err = c.EstimateFee(context.Background(), cred, AccountState{Sequence: 6}, testPolicy(t), "", testMsgs(t, cred, 1))
	require.ErrorIs(t, err, ErrFeeEstimationFailed)
	require.True(t, IsSequenceMismatch(err))
	require.False(t, IsRetryable(err))
}

func TestAssembleSigningFailure(t *testing.T) {
	cred := failingCredential{newTestCredential()}
	c := newTestClient(t, nil, nil, nil)

	_, err := c.Assemble(context.Background(), cred, AccountState{}, testPolicy(t), "", testMsgs(t, cred, 1))
	require.ErrorIs(t, err, ErrSigningFailed)
	require.Contains(t, err.Error(), "key locked")
}

func TestFeePolicy(t *testing.T) {
	policy := testPolicy(t)

	gas, err := policy.GasLimit(100_001)
	require.NoError(t, err)
	require.Equal(t, uint64(150_002), gas)

	// 0.025 * 150002 = 3750.05 rounds up
	require.Equal(t, sdkmath.NewInt(3751), policy.Fee(gas).AmountOf("uatom"))

	policy.GasAdjustment = 0.5
	gas, err = policy.GasLimit(1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), gas)

	_, err = NewFeePolicy(testChainConfigWithGasPrice("uatom"))
	require.Error(t, err)
}

func testChainConfigWithGasPrice(price string) config.ChainConfig {
	cfg := testChainConfig()
	cfg.GasPrice = price
	return cfg
}
