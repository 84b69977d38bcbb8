package txrelayer

import (
	"errors"
	"time"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
)

const (
	// DefaultTimeoutMinute is used for requests that carry no packet timeout.
	DefaultTimeoutMinute = 10

	connectErrWaitInterval = time.Second
)

type ITxRelayer interface {
	Start()
	Stop()
	WaitForShutdown()
	ChainName() string
}

func isSequenceMismatch(err error) bool {
	return txsubmit.IsSequenceMismatch(err)
}

// isRetryable also retries a stale sequence, the next attempt acquires a
// freshly resolved one.
func isRetryable(err error) bool {
	return txsubmit.IsRetryable(err) || isSequenceMismatch(err)
}

func isCommitTimeout(err error) bool {
	return errors.Is(err, txsubmit.ErrCommitTimeout)
}
