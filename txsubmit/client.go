package txsubmit

import (
	"context"
	"fmt"
	"time"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	vestingtypes "github.com/cosmos/cosmos-sdk/x/auth/vesting/types"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

const OutcomeCacheSize = 256

// AccountQueryClient is the part of the auth query service used here.
type AccountQueryClient interface {
	Account(ctx context.Context, in *authtypes.QueryAccountRequest, opts ...grpc.CallOption) (*authtypes.QueryAccountResponse, error)
}

// TxServiceClient is the part of the tx service used here.
type TxServiceClient interface {
	Simulate(ctx context.Context, in *txtypes.SimulateRequest, opts ...grpc.CallOption) (*txtypes.SimulateResponse, error)
	BroadcastTx(ctx context.Context, in *txtypes.BroadcastTxRequest, opts ...grpc.CallOption) (*txtypes.BroadcastTxResponse, error)
}

// TxResultClient looks up committed txs by hash on the CometBFT RPC.
type TxResultClient interface {
	Tx(ctx context.Context, hash []byte, prove bool) (*coretypes.ResultTx, error)
}

var (
	_ AccountQueryClient = authtypes.QueryClient(nil)
	_ TxServiceClient    = txtypes.ServiceClient(nil)
	_ TxResultClient     = (*rpchttp.HTTP)(nil)
)

// Client talks to a single node of the destination chain. It holds no
// account state: every call reflects the node at call time.
type Client struct {
	chainID      string
	pollInterval time.Duration
	timeout      time.Duration

	registry codectypes.InterfaceRegistry
	accounts AccountQueryClient
	txs      TxServiceClient
	results  TxResultClient
	outcomes *lru.Cache[string, *SubmissionOutcome]

	grpcConn *grpc.ClientConn
	logger   *zap.SugaredLogger
}

// NewClient dials the node's gRPC and CometBFT RPC endpoints and checks that
// the node serves the configured chain.
func NewClient(ctx context.Context, cfg config.ChainConfig, logger *zap.SugaredLogger) (*Client, error) {
	rpcClient, err := rpchttp.New(cfg.RPCAddr, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}

	grpcConn, err := grpc.Dial(
		cfg.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc connection: %w", err)
	}

	status, err := rpcClient.Status(ctx)
	if err != nil {
		_ = grpcConn.Close()
		return nil, fmt.Errorf("failed to get node status: %w", err)
	}
	if status.NodeInfo.Network != cfg.ID {
		_ = grpcConn.Close()
		return nil, fmt.Errorf("chain ID mismatch: node reports %s but we expected %s", status.NodeInfo.Network, cfg.ID)
	}

	c, err := NewClientWithServices(cfg, authtypes.NewQueryClient(grpcConn), txtypes.NewServiceClient(grpcConn), rpcClient, logger)
	if err != nil {
		_ = grpcConn.Close()
		return nil, err
	}
	c.grpcConn = grpcConn

	return c, nil
}

// NewClientWithServices builds a client on top of already constructed
// service clients.
func NewClientWithServices(cfg config.ChainConfig, accounts AccountQueryClient, txs TxServiceClient, results TxResultClient, logger *zap.SugaredLogger) (*Client, error) {
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}

	outcomes, err := lru.New[string, *SubmissionOutcome](OutcomeCacheSize)
	if err != nil {
		return nil, err
	}

	return &Client{
		chainID:      cfg.ID,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.RPCTimeout,
		registry:     newInterfaceRegistry(),
		accounts:     accounts,
		txs:          txs,
		results:      results,
		outcomes:     outcomes,
		logger:       logger.Named("txsubmit"),
	}, nil
}

func (c *Client) ChainID() string {
	return c.chainID
}

// Timeout is the default commit wait used by SendTx.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

func (c *Client) Close() error {
	if c.grpcConn == nil {
		return nil
	}

	return c.grpcConn.Close()
}

func newInterfaceRegistry() codectypes.InterfaceRegistry {
	registry := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(registry)
	authtypes.RegisterInterfaces(registry)
	vestingtypes.RegisterInterfaces(registry)
	return registry
}
