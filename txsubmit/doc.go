// Package txsubmit submits transactions to a Cosmos SDK chain and reports
// per message results.
//
// The pipeline is ResolveAccount, Assemble (which simulates for gas and signs
// in SIGN_MODE_DIRECT), BroadcastAndConfirm and finally Classify. Each stage
// fails with its own error kind:
//
//   - NetworkError for node queries, ErrAccountNotFound when the account
//     does not exist yet
//   - ErrFeeEstimationFailed when simulation fails, wrapped in a
//     NetworkError when the node could not be reached
//   - BroadcastError when the tx was rejected before entering a block
//   - CommitTimeoutError when inclusion was not observed in time
//   - ChainError when the tx was included but a message failed
//
// Only errors for which IsRetryable holds may be retried with the same
// sequence. IsSequenceMismatch errors need the account resolved again.
package txsubmit
