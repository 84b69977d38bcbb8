package txsubmit

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
)

// Broadcast submits tx once in sync mode. A failed broadcast is never
// retried here: resending may double spend the sequence.
func (c *Client) Broadcast(ctx context.Context, tx *AssembledTransaction) (*sdk.TxResponse, error) {
	res, err := c.txs.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: tx.Bytes,
		Mode:    txtypes.BroadcastMode_BROADCAST_MODE_SYNC,
	})
	if err != nil {
		return nil, &BroadcastError{TxHash: tx.HashHex(), Err: err}
	}
	if res.TxResponse == nil {
		return nil, &BroadcastError{TxHash: tx.HashHex(), Err: errors.New("empty broadcast response")}
	}

	if res.TxResponse.Code != 0 {
		return res.TxResponse, &BroadcastError{
			TxHash:    tx.HashHex(),
			Code:      res.TxResponse.Code,
			Codespace: res.TxResponse.Codespace,
			Log:       res.TxResponse.RawLog,
		}
	}

	return res.TxResponse, nil
}

// BroadcastAndConfirm broadcasts tx and blocks until it is included in a
// block or timeout elapses. The returned outcome has messageCount event
// slots; inclusion says nothing about success, see Classify.
func (c *Client) BroadcastAndConfirm(ctx context.Context, tx *AssembledTransaction, messageCount int, timeout time.Duration) (*SubmissionOutcome, error) {
	res, err := c.Broadcast(ctx, tx)
	if err != nil {
		c.logger.Warnf("broadcast tx %s (sequence %d) failed: %v", tx.HashHex(), tx.Sequence, err)
		return nil, err
	}
	c.logger.Debugf("broadcast tx %s (sequence %d), waiting for commit", tx.HashHex(), tx.Sequence)

	outcome := newSubmissionOutcome(tx.HashHex(), res, messageCount)
	if err := c.waitForCommit(ctx, tx.Hash, outcome, timeout); err != nil {
		c.logger.Warnf("tx %s timed out: %v", tx.HashHex(), err)
		return nil, err
	}

	c.outcomes.Add(outcome.TxHash, outcome.Clone())
	c.logger.Infof("tx %s committed at height %d, code: %d, gas used: %d",
		outcome.TxHash, outcome.Height, outcome.Code, outcome.GasUsed)

	return outcome, nil
}

// waitForCommit polls for the tx result every poll interval until it is
// found or the deadline passes.
func (c *Client) waitForCommit(ctx context.Context, hash []byte, outcome *SubmissionOutcome, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			if lastErr == nil || isTxNotFound(lastErr) {
				lastErr = ctx.Err()
			}
			return &CommitTimeoutError{TxHash: outcome.TxHash, Timeout: timeout, LastErr: lastErr}
		case <-ticker.C:
			res, err := c.results.Tx(ctx, hash, false)
			if err != nil {
				if !isTxNotFound(err) {
					c.logger.Debugf("query tx %s failed, keep polling: %v", outcome.TxHash, err)
				}
				lastErr = err
				continue
			}

			fillEvents(outcome, res)
			return nil
		}
	}
}

// QueryOutcome looks a tx up once without waiting, e.g. to find out whether a
// tx that timed out has landed after all. ErrTxNotFound means not yet.
func (c *Client) QueryOutcome(ctx context.Context, txHash string, messageCount int) (*SubmissionOutcome, error) {
	txHash = strings.ToUpper(txHash)
	if outcome, ok := c.outcomes.Get(txHash); ok && len(outcome.Events) == messageCount {
		return outcome.Clone(), nil
	}

	hash, err := hex.DecodeString(txHash)
	if err != nil {
		return nil, fmt.Errorf("invalid tx hash %q: %w", txHash, err)
	}

	res, err := c.results.Tx(ctx, hash, false)
	if err != nil {
		if isTxNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txHash)
		}
		return nil, &NetworkError{Op: "query tx", Address: txHash, Err: err}
	}

	outcome := newSubmissionOutcome(txHash, nil, messageCount)
	fillEvents(outcome, res)
	c.outcomes.Add(txHash, outcome.Clone())

	return outcome, nil
}

func isTxNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}
