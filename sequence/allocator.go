package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/db"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
)

const keyPrefix = "sequence/"

// AccountResolver reads the current account state from the chain.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, address string) (txsubmit.AccountState, error)
}

// Allocator hands out account sequences one lease at a time per account, so
// that two submissions never sign with the same sequence. The next sequence
// of every account is persisted so a restart does not reuse a sequence that
// is still sitting in the mempool.
type Allocator struct {
	resolver AccountResolver
	store    db.IDB
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	accounts map[string]*accountSlot
}

type accountSlot struct {
	sem   chan struct{}
	state *txsubmit.AccountState
}

func NewAllocator(resolver AccountResolver, store db.IDB, logger *zap.SugaredLogger) *Allocator {
	return &Allocator{
		resolver: resolver,
		store:    store,
		logger:   logger.Named("sequence"),
		accounts: make(map[string]*accountSlot),
	}
}

// Acquire blocks until no other lease for address is outstanding, or ctx is
// done. The lease must be finished with exactly one of Commit, Release or
// Invalidate.
func (a *Allocator) Acquire(ctx context.Context, address string) (*Lease, error) {
	slot := a.slot(address)

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if slot.state == nil {
		state, err := a.load(ctx, address)
		if err != nil {
			<-slot.sem
			return nil, err
		}
		slot.state = &state
	}

	return &Lease{
		allocator: a,
		slot:      slot,
		Account:   *slot.state,
	}, nil
}

func (a *Allocator) slot(address string) *accountSlot {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot, ok := a.accounts[address]
	if !ok {
		slot = &accountSlot{sem: make(chan struct{}, 1)}
		a.accounts[address] = slot
	}

	return slot
}

// load takes the larger of the chain sequence and the persisted one: the
// chain only reports committed txs.
func (a *Allocator) load(ctx context.Context, address string) (txsubmit.AccountState, error) {
	state, err := a.resolver.ResolveAccount(ctx, address)
	if err != nil {
		return txsubmit.AccountState{}, err
	}

	persisted, err := a.persisted(address)
	if err != nil {
		return txsubmit.AccountState{}, err
	}
	if persisted > state.Sequence {
		a.logger.Infof("account %s: using persisted sequence %d, chain reports %d", address, persisted, state.Sequence)
		state.Sequence = persisted
	}

	return state, nil
}

func (a *Allocator) persisted(address string) (uint64, error) {
	val, err := a.store.Get(storeKey(address))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sequence of %s: %w", address, err)
	}

	return strconv.ParseUint(string(val), 10, 64)
}

// Lease is the exclusive right to sign one tx with Account.Sequence.
type Lease struct {
	Account txsubmit.AccountState

	allocator *Allocator
	slot      *accountSlot
	once      sync.Once
}

// Commit records that Account.Sequence was consumed by a tx the node accepted.
func (l *Lease) Commit() error {
	var err error
	l.finish(func() {
		next := l.Account.Sequence + 1
		l.slot.state.Sequence = next
		err = l.allocator.store.Put(storeKey(l.Account.Address), []byte(strconv.FormatUint(next, 10)))
	})

	return err
}

// Release gives the sequence back unused.
func (l *Lease) Release() {
	l.finish(func() {})
}

// Invalidate drops everything known about the account, so the next lease
// reads it from the chain again. Used after a sequence mismatch.
func (l *Lease) Invalidate() error {
	var err error
	l.finish(func() {
		l.slot.state = nil
		err = l.allocator.store.Delete(storeKey(l.Account.Address))
		l.allocator.logger.Warnf("account %s: sequence %d invalidated", l.Account.Address, l.Account.Sequence)
	})

	return err
}

func (l *Lease) finish(fn func()) {
	l.once.Do(func() {
		fn()
		<-l.slot.sem
	})
}

func storeKey(address string) []byte {
	return []byte(keyPrefix + address)
}
