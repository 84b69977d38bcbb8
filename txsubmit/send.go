package txsubmit

import (
	"context"
	"time"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
)

// SubmitWithAccount assembles msgs against a known account state, broadcasts
// the tx and waits for it to commit. Callers that manage sequences
// themselves use this instead of SendTx.
func (c *Client) SubmitWithAccount(ctx context.Context, cred Credential, account AccountState, policy FeePolicy, memo Memo, msgs []*codectypes.Any, timeout time.Duration) (*SubmissionOutcome, error) {
	tx, err := c.Assemble(ctx, cred, account, policy, memo, msgs)
	if err != nil {
		return nil, err
	}

	return c.BroadcastAndConfirm(ctx, tx, len(msgs), timeout)
}

// SendTx is the whole pipeline: resolve the account, assemble, broadcast and
// wait for commit using the configured timeout. The outcome should still be
// passed to Classify.
func (c *Client) SendTx(ctx context.Context, cred Credential, policy FeePolicy, memo Memo, msgs []*codectypes.Any) (*SubmissionOutcome, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}

	account, err := c.ResolveAccount(ctx, cred.Address())
	if err != nil {
		return nil, err
	}

	return c.SubmitWithAccount(ctx, cred, account, policy, memo, msgs, c.timeout)
}
