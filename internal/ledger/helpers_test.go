package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"apexpay/internal/domain"
	"apexpay/internal/repository"
	"apexpay/internal/repository/memory"
	"apexpay/internal/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedUser creates an active user whose wallet holds balance
func seedUser(t *testing.T, store *memory.Store, balance string) uint {
	t.Helper()
	ctx := context.Background()
	user := &domain.User{Email: "u" + balance + "@example.com", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, user))
	require.NoError(t, store.Wallets().Create(ctx, &domain.Wallet{UserID: user.ID, AvailableAmount: amount(balance)}))
	return user.ID
}

func seedTx(t *testing.T, store *memory.Store, userID uint, txType domain.TransactionType, amt string, status domain.TransactionStatus) *domain.Transaction {
	t.Helper()
	tx := &domain.Transaction{UserID: userID, TransactionType: txType, Amount: amount(amt), Status: status}
	require.NoError(t, store.Transactions().Create(context.Background(), tx))
	return tx
}

func balanceOf(t *testing.T, store repository.Store, userID uint) decimal.Decimal {
	t.Helper()
	w, err := store.Wallets().GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w.AvailableAmount
}

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

// flakyStore fails the first n transactions with contention
type flakyStore struct {
	*memory.Store
	failures atomic.Int32
}

func (f *flakyStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if f.failures.Add(-1) >= 0 {
		return domain.ErrContention
	}
	return f.Store.WithinTx(ctx, fn)
}

// recordingCache is an in-process Cache that remembers deletions
type recordingCache struct {
	mu       sync.Mutex
	entries  map[string]any
	counters map[string]int64
	deleted  []string
	genErr   error
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]any{}, counters: map[string]int64{}}
}

// gen is the user's current cache generation
func (c *recordingCache) gen(userID uint) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[utils.GenerationKey(userID)]
}

func (c *recordingCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *[]domain.Wallet:
		*d = v.([]domain.Wallet)
	case *[]domain.Transaction:
		*d = v.([]domain.Transaction)
	}
	return true, nil
}

func (c *recordingCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *recordingCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *recordingCache) Counter(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genErr != nil {
		return 0, c.genErr
	}
	return c.counters[key], nil
}

func (c *recordingCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

// pausingStore holds wallet reads outside a transaction after the row is
// loaded, until release is closed
type pausingStore struct {
	*memory.Store
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func newPausingStore(store *memory.Store) *pausingStore {
	return &pausingStore{Store: store, loaded: make(chan struct{}), release: make(chan struct{})}
}

func (p *pausingStore) Wallets() repository.WalletRepository {
	return pausingWallets{WalletRepository: p.Store.Wallets(), p: p}
}

func (p *pausingStore) Transactions() repository.TransactionRepository {
	return pausingTransactions{TransactionRepository: p.Store.Transactions(), p: p}
}

func (p *pausingStore) pause() {
	p.once.Do(func() {
		close(p.loaded)
		<-p.release
	})
}

type pausingWallets struct {
	repository.WalletRepository
	p *pausingStore
}

func (w pausingWallets) GetByUserID(ctx context.Context, userID uint) (*domain.Wallet, error) {
	wallet, err := w.WalletRepository.GetByUserID(ctx, userID)
	w.p.pause()
	return wallet, err
}

type pausingTransactions struct {
	repository.TransactionRepository
	p *pausingStore
}

func (t pausingTransactions) ListByUser(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	txs, err := t.TransactionRepository.ListByUser(ctx, userID)
	t.p.pause()
	return txs, err
}
