package txrelayer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	"go.uber.org/zap"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/db"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/ics20"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/metrics"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/sequence"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
)

// Submitter is the part of txsubmit.Client the relayer drives.
type Submitter interface {
	ResolveAccount(ctx context.Context, address string) (txsubmit.AccountState, error)
	SubmitWithAccount(ctx context.Context, cred txsubmit.Credential, account txsubmit.AccountState, policy txsubmit.FeePolicy, memo txsubmit.Memo, msgs []*codectypes.Any, timeout time.Duration) (*txsubmit.SubmissionOutcome, error)
	QueryOutcome(ctx context.Context, txHash string, messageCount int) (*txsubmit.SubmissionOutcome, error)
	Timeout() time.Duration
}

var _ Submitter = (*txsubmit.Client)(nil)

// TransferRelayer sends stored ICS-20 transfer requests in batches, one
// MsgTransfer per request.
type TransferRelayer struct {
	chainName string
	logger    *zap.SugaredLogger
	conf      config.TxRelayerConfig

	submitter  Submitter
	signer     txsubmit.Credential
	policy     txsubmit.FeePolicy
	memo       txsubmit.Memo
	sequences  *sequence.Allocator
	repository db.ITransferRepository
	metrics    *metrics.Metrics

	now func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	quit   chan struct{}
}

func NewTransferRelayer(logger *zap.SugaredLogger, cfg *config.Config, submitter Submitter, signer txsubmit.Credential,
	sequences *sequence.Allocator, repository db.ITransferRepository, m *metrics.Metrics) (*TransferRelayer, error) {
	policy, err := txsubmit.NewFeePolicy(cfg.Chain)
	if err != nil {
		return nil, err
	}
	memo, err := txsubmit.NewMemo(cfg.Chain.Memo)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &TransferRelayer{
		chainName:  cfg.Chain.ID,
		logger:     logger.Named("ics20"),
		conf:       cfg.TxRelayer,
		submitter:  submitter,
		signer:     signer,
		policy:     policy,
		memo:       memo,
		sequences:  sequences,
		repository: repository,
		metrics:    m,
		now:        time.Now,

		ctx:    ctx,
		cancel: cancel,
		wg:     sync.WaitGroup{},
		quit:   make(chan struct{}),
	}

	r.logger.Infof("new transfer relayer on chain: %s, submitter: %s, batch size: %d",
		r.chainName, signer.Address(), r.conf.BatchSize)
	return r, nil
}

func (r *TransferRelayer) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.submitLoop()
	}()
}

func (r *TransferRelayer) Stop() {
	close(r.quit)
	r.cancel()
}

func (r *TransferRelayer) WaitForShutdown() {
	r.wg.Wait()
}

func (r *TransferRelayer) ChainName() string {
	return r.chainName
}

func (r *TransferRelayer) submitLoop() {
	for {
		select {
		case <-r.quit:
			return
		default:
		}

		handled, err := r.ProcessPending(r.ctx)
		if err != nil {
			r.logger.Errorf("Failed to process pending transfer requests, error: %v", err)
			r.sleep(connectErrWaitInterval)
			continue
		}

		if handled == 0 {
			r.logger.Debugf("No pending transfer requests")
			r.sleep(r.conf.IdleInterval)
		}
	}
}

func (r *TransferRelayer) sleep(d time.Duration) {
	select {
	case <-r.quit:
	case <-time.After(d):
	}
}

// ProcessPending runs one round: it settles submitted txs whose commit was
// not observed and then sends one batch of pending requests. It returns the
// number of pending requests picked up.
func (r *TransferRelayer) ProcessPending(ctx context.Context) (int, error) {
	if err := r.recoverSubmitted(ctx); err != nil {
		r.logger.Errorf("Failed to recover submitted transfer requests, error: %v", err)
	}

	reqs, err := r.repository.GetPendingTransferRequests(r.conf.BatchSize)
	if err != nil {
		return 0, err
	}
	r.metrics.PendingRequests.Set(float64(len(reqs)))
	if len(reqs) == 0 {
		return 0, nil
	}

	valid := make([]*db.TransferRequest, 0, len(reqs))
	msgs := make([]*codectypes.Any, 0, len(reqs))
	for _, req := range reqs {
		msg, err := r.newMsgTransfer(req)
		if err != nil {
			r.logger.Warnf("Invalid transfer request, id: %s, error: %v", req.RequestId, err)
			r.updateStatus(req.RequestId, db.StatusInvalid, err.Error())
			continue
		}

		valid = append(valid, req)
		msgs = append(msgs, msg)
	}

	if len(valid) > 0 {
		r.submitBatch(ctx, valid, msgs)
	}

	return len(reqs), nil
}

func (r *TransferRelayer) newMsgTransfer(req *db.TransferRequest) (*codectypes.Any, error) {
	packet, err := ics20.DecodeBytes([]byte(req.PacketData))
	if err != nil {
		return nil, err
	}
	if packet.Sender.String() != r.signer.Address() {
		return nil, fmt.Errorf("packet sender %s is not the submitter %s", packet.Sender, r.signer.Address())
	}

	return BuildMsgTransfer(req.SourcePort, req.SourceChannel, packet, r.now().Add(requestTimeout(req)))
}

// submitBatch sends msgs in one tx. Only errors that left the tx out of any
// block are retried; a commit timeout parks the requests as submitted.
func (r *TransferRelayer) submitBatch(ctx context.Context, reqs []*db.TransferRequest, msgs []*codectypes.Any) {
	var (
		outcome *txsubmit.SubmissionOutcome
		lastErr error
		lastSeq uint64
	)

	_ = retry.Do(
		func() error {
			lease, err := r.sequences.Acquire(ctx, r.signer.Address())
			if err != nil {
				lastErr = err
				return err
			}
			lastSeq = lease.Account.Sequence

			start := r.now()
			out, err := r.submitter.SubmitWithAccount(ctx, r.signer, lease.Account, r.policy, r.memo, msgs, r.submitter.Timeout())
			r.finishLease(lease, err)
			if err != nil {
				r.metrics.ObserveSubmission(err, r.now().Sub(start))
				lastErr = err
				return err
			}

			r.metrics.ObserveSubmission(txsubmit.Classify(out), r.now().Sub(start))
			outcome, lastErr = out, nil
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.conf.MaxRetries),
		retry.Delay(r.conf.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warnf("Retrying transfer batch of %d, attempt: %d, error: %v", len(reqs), n+1, err)
		}),
	)

	ids := requestIds(reqs)
	switch {
	case lastErr == nil && outcome != nil:
		r.recordOutcome(reqs, outcome)
	case isCommitTimeout(lastErr):
		var timeoutErr *txsubmit.CommitTimeoutError
		errors.As(lastErr, &timeoutErr)
		r.logger.Warnf("Transfer tx %s not committed yet, requests: %v", timeoutErr.TxHash, ids)
		if err := r.repository.MarkSubmitted(ids, timeoutErr.TxHash, lastSeq); err != nil {
			r.logger.Errorf("Failed to mark requests submitted, tx: %s, error: %v", timeoutErr.TxHash, err)
		}
	case lastErr == nil || isRetryable(lastErr) || ctx.Err() != nil:
		r.logger.Errorf("Transfer batch left pending, requests: %v, error: %v", ids, lastErr)
	case errors.Is(lastErr, txsubmit.ErrFeeEstimationFailed) && len(reqs) > 1:
		// one bad transfer fails the whole simulation, so try them one by one
		r.logger.Warnf("Fee estimation failed for batch of %d, sending one by one, error: %v", len(reqs), lastErr)
		for i := range reqs {
			r.submitBatch(ctx, reqs[i:i+1], msgs[i:i+1])
		}
	default:
		r.logger.Errorf("Transfer batch failed, requests: %v, error: %v", ids, lastErr)
		for _, id := range ids {
			r.updateStatus(id, db.StatusFailed, lastErr.Error())
		}
	}
}

func (r *TransferRelayer) finishLease(lease *sequence.Lease, err error) {
	switch {
	case err == nil || isCommitTimeout(err):
		// the node accepted the tx, its sequence is spent
		if err := lease.Commit(); err != nil {
			r.logger.Errorf("Failed to persist sequence %d, error: %v", lease.Account.Sequence, err)
		}
	case isSequenceMismatch(err):
		r.metrics.SequenceResets.Inc()
		if err := lease.Invalidate(); err != nil {
			r.logger.Errorf("Failed to reset sequence, error: %v", err)
		}
	default:
		lease.Release()
	}
}

// recordOutcome stores the per message result of a committed tx. reqs[i]
// must be the message at index i.
func (r *TransferRelayer) recordOutcome(reqs []*db.TransferRequest, outcome *txsubmit.SubmissionOutcome) {
	for i, req := range reqs {
		idx := i
		if req.Status == db.StatusSubmitted {
			idx = req.MsgIndex
		}

		result := db.TransferResult{
			Status:   db.StatusSuccess,
			TxHash:   outcome.TxHash,
			Height:   outcome.Height,
			MsgIndex: idx,
		}

		event := outcome.Events[idx]
		switch {
		case event.IsChainError():
			result.Status = db.StatusFailed
			result.Error = event.Cause
		case event.Type == channeltypes.EventTypeSendPacket:
			seq, err := strconv.ParseUint(event.Attributes[channeltypes.AttributeKeySequence], 10, 64)
			if err == nil {
				result.PacketSequence = seq
			}
		}

		if err := r.repository.UpdateResult(req.RequestId, result); err != nil {
			r.logger.Errorf("Failed to update transfer result, id: %s, error: %v", req.RequestId, err)
			continue
		}
		r.logger.Infof("Transfer request %s: status %d, tx: %s, packet sequence: %d",
			req.RequestId, result.Status, outcome.TxHash, result.PacketSequence)
	}

	if outcome.Height > 0 {
		if err := r.repository.UpdateLastCommittedHeight(uint64(outcome.Height)); err != nil {
			r.logger.Errorf("Failed to update last committed height, error: %v", err)
		}
	}
}

// recoverSubmitted settles requests whose tx was accepted but not seen in a
// block. Once a request's packet timeout has passed without the tx showing up
// it goes back to pending.
func (r *TransferRelayer) recoverSubmitted(ctx context.Context) error {
	reqs, err := r.repository.GetSubmittedTransferRequests(db.BatchHandleTransferRequestsNum)
	if err != nil {
		return err
	}

	groups := make(map[string][]*db.TransferRequest)
	var hashes []string
	for _, req := range reqs {
		if _, ok := groups[req.TxHash]; !ok {
			hashes = append(hashes, req.TxHash)
		}
		groups[req.TxHash] = append(groups[req.TxHash], req)
	}

	for _, hash := range hashes {
		group := groups[hash]
		sort.Slice(group, func(i, j int) bool { return group[i].MsgIndex < group[j].MsgIndex })
		messageCount := group[len(group)-1].MsgIndex + 1

		outcome, err := r.submitter.QueryOutcome(ctx, hash, messageCount)
		if err != nil {
			if !errors.Is(err, txsubmit.ErrTxNotFound) {
				r.logger.Errorf("Failed to query submitted tx %s, error: %v", hash, err)
				continue
			}

			for _, req := range group {
				if r.now().Before(req.UpdatedTime.Add(requestTimeout(req))) {
					continue
				}
				r.logger.Warnf("Tx %s not found after packet timeout, resubmitting request %s", hash, req.RequestId)
				r.updateStatus(req.RequestId, db.StatusPending, fmt.Sprintf("tx %s not found", hash))
			}
			continue
		}

		r.recordOutcome(group, outcome)
	}

	return nil
}

func (r *TransferRelayer) updateStatus(requestId string, status int, errMsg string) {
	if err := r.repository.UpdateStatus(requestId, status, errMsg); err != nil {
		r.logger.Errorf("Failed to update request status to [%d], id: %s, error: %v", status, requestId, err)
	}
}

func requestTimeout(req *db.TransferRequest) time.Duration {
	minutes := req.TimeoutMinute
	if minutes == 0 {
		minutes = DefaultTimeoutMinute
	}

	return time.Duration(minutes) * time.Minute
}

func requestIds(reqs []*db.TransferRequest) []string {
	ids := make([]string, len(reqs))
	for i, req := range reqs {
		ids[i] = req.RequestId
	}

	return ids
}
