package txsubmit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

type testCredential struct {
	key *secp256k1.PrivKey
}

func newTestCredential() *testCredential {
	return &testCredential{key: secp256k1.GenPrivKey()}
}

func (c *testCredential) Address() string {
	return sdk.AccAddress(c.key.PubKey().Address()).String()
}

func (c *testCredential) PubKey() cryptotypes.PubKey {
	return c.key.PubKey()
}

func (c *testCredential) Sign(msg []byte) ([]byte, error) {
	return c.key.Sign(msg)
}

type failingCredential struct {
	*testCredential
}

func (failingCredential) Sign([]byte) ([]byte, error) {
	return nil, errors.New("key locked")
}

type fakeAccounts struct {
	res   *authtypes.QueryAccountResponse
	err   error
	calls int
}

func (f *fakeAccounts) Account(_ context.Context, _ *authtypes.QueryAccountRequest, _ ...grpc.CallOption) (*authtypes.QueryAccountResponse, error) {
	f.calls++
	return f.res, f.err
}

type fakeTxService struct {
	gasUsed      uint64
	simulateErr  error
	broadcastRes *sdk.TxResponse
	broadcastErr error

	simulated   [][]byte
	broadcasted [][]byte
}

func (f *fakeTxService) Simulate(_ context.Context, in *txtypes.SimulateRequest, _ ...grpc.CallOption) (*txtypes.SimulateResponse, error) {
	f.simulated = append(f.simulated, in.TxBytes)
	if f.simulateErr != nil {
		return nil, f.simulateErr
	}

	return &txtypes.SimulateResponse{GasInfo: &sdk.GasInfo{GasUsed: f.gasUsed}}, nil
}

func (f *fakeTxService) BroadcastTx(_ context.Context, in *txtypes.BroadcastTxRequest, _ ...grpc.CallOption) (*txtypes.BroadcastTxResponse, error) {
	f.broadcasted = append(f.broadcasted, in.TxBytes)
	if f.broadcastErr != nil {
		return nil, f.broadcastErr
	}

	res := f.broadcastRes
	if res == nil {
		res = &sdk.TxResponse{}
	}

	return &txtypes.BroadcastTxResponse{TxResponse: res}, nil
}

// fakeResults reports the tx as not found for the first pending polls.
type fakeResults struct {
	mu      sync.Mutex
	pending int
	res     *coretypes.ResultTx
	err     error
	calls   int
}

func (f *fakeResults) Tx(_ context.Context, hash []byte, _ bool) (*coretypes.ResultTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.pending || f.res == nil {
		if f.err != nil {
			return nil, f.err
		}
		return nil, fmt.Errorf("RPC error -32603 - Internal error: tx (%X) not found", hash)
	}

	return f.res, nil
}

func (f *fakeResults) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testChainConfig() config.ChainConfig {
	return config.ChainConfig{
		ID:            "test-1",
		GasPrice:      "0.025uatom",
		GasAdjustment: 1.5,
		MaxGas:        4_000_000,
		RPCTimeout:    time.Second,
		PollInterval:  5 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, accounts *fakeAccounts, txs *fakeTxService, results *fakeResults) *Client {
	t.Helper()

	if accounts == nil {
		accounts = &fakeAccounts{}
	}
	if txs == nil {
		txs = &fakeTxService{gasUsed: 100_000}
	}
	if results == nil {
		results = &fakeResults{}
	}

	c, err := NewClientWithServices(testChainConfig(), accounts, txs, results, zap.NewNop().Sugar())
	require.NoError(t, err)

	return c
}

func testPolicy(t *testing.T) FeePolicy {
	t.Helper()

	policy, err := NewFeePolicy(testChainConfig())
	require.NoError(t, err)

	return policy
}

func testMsgs(t *testing.T, cred Credential, n int) []*codectypes.Any {
	t.Helper()

	msgs := make([]*codectypes.Any, 0, n)
	for i := 0; i < n; i++ {
		msg, err := codectypes.NewAnyWithValue(&banktypes.MsgSend{
			FromAddress: cred.Address(),
			ToAddress:   cred.Address(),
			Amount:      sdk.NewCoins(sdk.NewInt64Coin("uatom", int64(i+1))),
		})
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}

	return msgs
}

func abciEvent(eventType string, msgIndex int, attrs ...string) abci.Event {
	ev := abci.Event{Type: eventType}
	for i := 0; i+1 < len(attrs); i += 2 {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: attrs[i], Value: attrs[i+1], Index: true})
	}
	if msgIndex >= 0 {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: AttributeKeyMsgIndex, Value: fmt.Sprint(msgIndex), Index: true})
	}

	return ev
}
