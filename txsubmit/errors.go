package txsubmit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrNoMessages          = errors.New("no messages to send")
	ErrMemoTooLong         = errors.New("memo too long")
	ErrFeeEstimationFailed = errors.New("fee estimation failed")
	ErrSigningFailed       = errors.New("signing failed")
	ErrBroadcastFailed     = errors.New("broadcast failed")
	ErrCommitTimeout       = errors.New("timed out waiting for tx commit")
	ErrTxNotFound          = errors.New("tx not found")
)

// NetworkError is a transport or decode failure of a node query.
type NetworkError struct {
	Op      string
	Address string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BroadcastError means the submit call was rejected, either in transport or
// by CheckTx. The tx never entered a block.
type BroadcastError struct {
	TxHash    string
	Code      uint32
	Codespace string
	Log       string
	Err       error
}

func (e *BroadcastError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broadcast tx %s failed: %v", e.TxHash, e.Err)
	}

	return fmt.Sprintf("check_tx for tx %s reports error: code=%d, codespace=%s, log=%s",
		e.TxHash, e.Code, e.Codespace, e.Log)
}

func (e *BroadcastError) Unwrap() error {
	return e.Err
}

func (e *BroadcastError) Is(target error) bool {
	return target == ErrBroadcastFailed
}

// IsSequenceMismatch reports a CheckTx rejection caused by a stale sequence.
func (e *BroadcastError) IsSequenceMismatch() bool {
	return e.Codespace == sdkerrors.ErrWrongSequence.Codespace() &&
		e.Code == sdkerrors.ErrWrongSequence.ABCICode()
}

// sequenceMismatchLog is what the ante handler reports for a stale sequence,
// both from CheckTx and from Simulate.
const sequenceMismatchLog = "account sequence mismatch"

// IsSequenceMismatch reports whether err was caused by a stale account
// sequence. Simulation runs the ante handler too, so a fee estimation
// failure can carry the mismatch as well as a CheckTx rejection.
func IsSequenceMismatch(err error) bool {
	if err == nil {
		return false
	}

	var bErr *BroadcastError
	if errors.As(err, &bErr) && bErr.IsSequenceMismatch() {
		return true
	}
	if errors.Is(err, sdkerrors.ErrWrongSequence) {
		return true
	}

	return errors.Is(err, ErrFeeEstimationFailed) && strings.Contains(err.Error(), sequenceMismatchLog)
}

// CommitTimeoutError means inclusion was not observed before the deadline.
// The tx may still land, so it must not be blindly resent with a new sequence.
type CommitTimeoutError struct {
	TxHash  string
	Timeout time.Duration
	LastErr error
}

func (e *CommitTimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("tx %s not committed after %s: %v", e.TxHash, e.Timeout, e.LastErr)
	}

	return fmt.Sprintf("tx %s not committed after %s", e.TxHash, e.Timeout)
}

func (e *CommitTimeoutError) Unwrap() error {
	return e.LastErr
}

func (e *CommitTimeoutError) Is(target error) bool {
	return target == ErrCommitTimeout
}

// ChainError is an application level failure reported by the chain for a
// transaction that was included in a block.
type ChainError struct {
	Index int
	Cause string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("send_tx result in error: %s", e.Cause)
}

// IsRetryable reports whether err is safe to retry with the same sequence:
// the tx never reached a block.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return !errors.Is(err, ErrAccountNotFound)
	}

	return errors.Is(err, ErrBroadcastFailed)
}
