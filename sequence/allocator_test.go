package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/db"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
)

type fakeResolver struct {
	mu       sync.Mutex
	sequence uint64
	err      error
	calls    int
}

func (f *fakeResolver) ResolveAccount(_ context.Context, address string) (txsubmit.AccountState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return txsubmit.AccountState{}, f.err
	}

	return txsubmit.AccountState{Address: address, AccountNumber: 1, Sequence: f.sequence}, nil
}

func newTestAllocator(t *testing.T, resolver *fakeResolver) (*Allocator, db.IDB) {
	t.Helper()

	store, err := db.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewAllocator(resolver, store, zap.NewNop().Sugar()), store
}

func TestAllocatorCommitAdvances(t *testing.T) {
	resolver := &fakeResolver{sequence: 5}
	allocator, store := newTestAllocator(t, resolver)
	ctx := context.Background()

	lease, err := allocator.Acquire(ctx, "cosmos1a")
	require.NoError(t, err)
	require.Equal(t, uint64(5), lease.Account.Sequence)
	require.NoError(t, lease.Commit())
	// finishing twice is a no-op
	lease.Release()

	lease, err = allocator.Acquire(ctx, "cosmos1a")
	require.NoError(t, err)
	require.Equal(t, uint64(6), lease.Account.Sequence)
	lease.Release()

	lease, err = allocator.Acquire(ctx, "cosmos1a")
	require.NoError(t, err)
	require.Equal(t, uint64(6), lease.Account.Sequence)
	lease.Release()

	require.Equal(t, 1, resolver.calls)

	val, err := store.Get(storeKey("cosmos1a"))
	require.NoError(t, err)
	require.Equal(t, "6", string(val))
}

func TestAllocatorUsesPersistedSequence(t *testing.T) {
	resolver := &fakeResolver{sequence: 3}
	allocator, store := newTestAllocator(t, resolver)
	require.NoError(t, store.Put(storeKey("cosmos1a"), []byte("8")))

	lease, err := allocator.Acquire(context.Background(), "cosmos1a")
	require.NoError(t, err)
	require.Equal(t, uint64(8), lease.Account.Sequence)

	require.NoError(t, lease.Invalidate())
	ok, err := store.Has(storeKey("cosmos1a"))
	require.NoError(t, err)
	require.False(t, ok)

	lease, err = allocator.Acquire(context.Background(), "cosmos1a")
	require.NoError(t, err)
	require.Equal(t, uint64(3), lease.Account.Sequence)
	require.Equal(t, 2, resolver.calls)
	lease.Release()
}

func TestAllocatorExclusiveLease(t *testing.T) {
	allocator, _ := newTestAllocator(t, &fakeResolver{})

	lease, err := allocator.Acquire(context.Background(), "cosmos1a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = allocator.Acquire(ctx, "cosmos1a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// other accounts are independent
	other, err := allocator.Acquire(context.Background(), "cosmos1b")
	require.NoError(t, err)
	other.Release()

	acquired := make(chan uint64)
	go func() {
		next, err := allocator.Acquire(context.Background(), "cosmos1a")
		if err != nil {
			close(acquired)
			return
		}
		acquired <- next.Account.Sequence
		next.Release()
	}()

	require.NoError(t, lease.Commit())
	select {
	case seq := <-acquired:
		require.Equal(t, uint64(1), seq)
	case <-time.After(time.Second):
		t.Fatal("lease was not handed over")
	}
}

func TestAllocatorConcurrentCommitsAreUnique(t *testing.T) {
	allocator, _ := newTestAllocator(t, &fakeResolver{sequence: 100})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool)
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := allocator.Acquire(context.Background(), "cosmos1a")
			if err != nil {
				return
			}
			mu.Lock()
			seen[lease.Account.Sequence] = true
			mu.Unlock()
			_ = lease.Commit()
		}()
	}
	wg.Wait()

	require.Len(t, seen, 20)
	for seq := uint64(100); seq < 120; seq++ {
		require.True(t, seen[seq], "sequence %d", seq)
	}
}

func TestAllocatorResolveFailureReleasesSlot(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("node down")}
	allocator, _ := newTestAllocator(t, resolver)

	_, err := allocator.Acquire(context.Background(), "cosmos1a")
	require.Error(t, err)

	resolver.err = nil
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	lease, err := allocator.Acquire(ctx, "cosmos1a")
	require.NoError(t, err)
	lease.Release()
}
