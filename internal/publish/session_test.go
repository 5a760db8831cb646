package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/page"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	release  chan struct{}
	writes   atomic.Int32
	deadline atomic.Bool
	err      error
	data     map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) StoreDocument(ctx context.Context, wallet chain.Wallet, identifier, data string) (common.Hash, error) {
	f.writes.Add(1)
	if _, ok := ctx.Deadline(); ok {
		f.deadline.Store(true)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		}
	}
	if f.err != nil {
		return common.Hash{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[wallet.Address().Hex()+"/"+identifier] = data
	return common.HexToHash("0xabc"), nil
}

type memoryRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *memoryRecorder) Record(_ context.Context, _ common.Address, _ string, status Status, _ uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *memoryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func newWallet(t *testing.T) chain.Wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return chain.NewKeyWallet(key, 10)
}

func settled(s *Session) func() bool {
	return func() bool { return s.Status().Settled() }
}

func TestPublishSuccess(t *testing.T) {
	store := newFakeStore()
	recorder := &memoryRecorder{}
	session := NewSession(store, "Optimism", 10, recorder)
	session.Begin(page.NewIdentity("owner.eth", "home"))

	wallet := newWallet(t)
	require.NoError(t, session.Publish(context.Background(), wallet, page.EmptyDocument()))
	require.Eventually(t, settled(session), time.Second, 5*time.Millisecond)

	status := session.Status()
	assert.Equal(t, StateSuccess, status.State)
	assert.Equal(t, "Data stored successfully on Optimism blockchain!", status.Message)
	assert.NotEmpty(t, status.TxHashHex())
	assert.Equal(t, `{"content":[],"root":{"props":{}}}`, store.data[wallet.Address().Hex()+"/home"])
	assert.Equal(t, 1, recorder.count())
}

func TestPublishShowsPendingMessage(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	session := NewSession(store, "Optimism", 10, nil)
	session.Begin(page.NewIdentity("owner.eth", "home"))

	require.NoError(t, session.Publish(context.Background(), newWallet(t), nil))
	status := session.Status()
	assert.Equal(t, StatePublishing, status.State)
	assert.Equal(t, "Sending transaction to Optimism blockchain...", status.Message)

	close(store.release)
	require.NoError(t, session.Wait(context.Background()))
	assert.Equal(t, StateSuccess, session.Status().State)
}

func TestPublishWhilePendingIsRejected(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	session := NewSession(store, "Optimism", 10, nil)
	session.Begin(page.NewIdentity("owner.eth", "home"))
	wallet := newWallet(t)

	require.NoError(t, session.Publish(context.Background(), wallet, page.EmptyDocument()))
	err := session.Publish(context.Background(), wallet, page.EmptyDocument())
	assert.ErrorIs(t, err, ErrPublishInFlight)

	close(store.release)
	require.NoError(t, session.Wait(context.Background()))
	assert.Equal(t, int32(1), store.writes.Load())
}

func TestPublishWithoutWallet(t *testing.T) {
	store := newFakeStore()
	session := NewSession(store, "Optimism", 10, nil)
	session.Begin(page.NewIdentity("owner.eth", "home"))

	err := session.Publish(context.Background(), nil, page.EmptyDocument())
	assert.ErrorIs(t, err, chain.ErrWalletNotReady)

	status := session.Status()
	assert.Equal(t, StateError, status.State)
	assert.Equal(t, CategoryWalletNotReady, status.Category)
	assert.Equal(t, "Wallet not connected properly. Please reconnect your wallet.", status.Message)
	assert.Zero(t, store.writes.Load())
}

func TestPublishFailureCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category Category
		message  string
	}{
		{name: "rejected", err: chain.ErrUserRejected, category: CategoryCancelled, message: "Transaction cancelled by user."},
		{name: "wrong network", err: fmt.Errorf("sign: %w", chain.ErrWrongNetwork), category: CategoryWrongNetwork, message: "Network error. Please make sure your wallet is connected to Optimism network."},
		{name: "generic", err: errors.New("insufficient funds"), category: CategoryGeneric, message: "Failed to store data: insufficient funds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.err = tt.err
			session := NewSession(store, "Optimism", 10, nil)
			session.Begin(page.NewIdentity("owner.eth", "home"))

			require.NoError(t, session.Publish(context.Background(), newWallet(t), page.EmptyDocument()))
			require.NoError(t, session.Wait(context.Background()))

			status := session.Status()
			assert.Equal(t, StateError, status.State)
			assert.Equal(t, tt.category, status.Category)
			assert.Equal(t, tt.message, status.Message)
		})
	}
}

func TestStaleResultIsDiscarded(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	recorder := &memoryRecorder{}
	session := NewSession(store, "Optimism", 10, recorder)
	session.Begin(page.NewIdentity("owner.eth", "first"))

	require.NoError(t, session.Publish(context.Background(), newWallet(t), page.EmptyDocument()))
	session.Begin(page.NewIdentity("owner.eth", "second"))

	close(store.release)
	require.NoError(t, session.Wait(context.Background()))

	assert.Equal(t, StateIdle, session.Status().State)
	assert.Equal(t, "second", session.Identity().Identifier)
	assert.Equal(t, 1, recorder.count())
}

func TestPublishForNewPageWaitsForPendingWrite(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	session := NewSession(store, "Optimism", 10, nil)
	wallet := newWallet(t)
	session.Begin(page.NewIdentity("owner.eth", "first"))
	require.NoError(t, session.Publish(context.Background(), wallet, page.EmptyDocument()))

	session.Begin(page.NewIdentity("owner.eth", "second"))
	assert.Equal(t, StateIdle, session.Status().State)
	assert.True(t, session.Writing())
	err := session.Publish(context.Background(), wallet, page.EmptyDocument())
	assert.ErrorIs(t, err, ErrPublishInFlight)

	close(store.release)
	require.NoError(t, session.Wait(context.Background()))
	assert.False(t, session.Writing())
	assert.Equal(t, int32(1), store.writes.Load())

	require.NoError(t, session.Publish(context.Background(), wallet, page.EmptyDocument()))
	require.NoError(t, session.Wait(context.Background()))
	assert.Equal(t, StateSuccess, session.Status().State)
	assert.Contains(t, store.data, wallet.Address().Hex()+"/second")
}

func TestSlowConfirmationStillSucceeds(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	session := NewSession(store, "Optimism", 10, nil)
	session.Begin(page.NewIdentity("owner.eth", "home"))

	require.NoError(t, session.Publish(context.Background(), newWallet(t), page.EmptyDocument()))
	time.AfterFunc(150*time.Millisecond, func() { close(store.release) })

	require.NoError(t, session.Wait(context.Background()))
	assert.False(t, store.deadline.Load(), "background write must not carry a deadline")
	status := session.Status()
	assert.Equal(t, StateSuccess, status.State)
	assert.Empty(t, status.Category)
}

func TestPublishSurvivesRequestCancellation(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	session := NewSession(store, "Optimism", 10, nil)
	session.Begin(page.NewIdentity("owner.eth", "home"))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, session.Publish(ctx, newWallet(t), page.EmptyDocument()))
	cancel()
	close(store.release)

	require.NoError(t, session.Wait(context.Background()))
	assert.Equal(t, StateSuccess, session.Status().State)
}

func TestResetKeepsPendingPublish(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	session := NewSession(store, "Optimism", 10, nil)
	session.Begin(page.NewIdentity("owner.eth", "home"))

	require.NoError(t, session.Publish(context.Background(), newWallet(t), page.EmptyDocument()))
	session.Reset()
	assert.Equal(t, StatePublishing, session.Status().State)

	close(store.release)
	require.NoError(t, session.Wait(context.Background()))
	session.Reset()
	assert.Equal(t, StateIdle, session.Status().State)
}
