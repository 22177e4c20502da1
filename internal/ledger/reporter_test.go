package ledger

import (
	"context"
	"errors"
	"testing"

	"apexpay/internal/domain"
	"apexpay/internal/repository/memory"
	"apexpay/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("NoRecords", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "0")

		report, err := NewReporter(store).Status(ctx, userID, domain.TypeDeposit)

		require.NoError(t, err)
		assert.Equal(t, NoRecordsMessage, report.Message)
		assert.Empty(t, report.Transactions)
	})

	t.Run("MostRecentWins", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "0")
		seedTx(t, store, userID, domain.TypeDeposit, "10", domain.StatusProcessed)
		seedTx(t, store, userID, domain.TypeDeposit, "20", domain.StatusProcessing)
		seedTx(t, store, userID, domain.TypeWithdraw, "5", domain.StatusPending)

		report, err := NewReporter(store).Status(ctx, userID, domain.TypeDeposit)

		require.NoError(t, err)
		assert.Equal(t, "Your deposit is processing", report.Message)
		assert.Len(t, report.Transactions, 2)
	})

	t.Run("MessageTable", func(t *testing.T) {
		cases := []struct {
			txType domain.TransactionType
			status domain.TransactionStatus
			want   string
		}{
			{domain.TypeDeposit, domain.StatusPending, "Your deposit is pending"},
			{domain.TypeDeposit, domain.StatusProcessed, "Your deposit is completed"},
			{domain.TypeWithdraw, domain.StatusPending, "Your withdrawal is pending"},
			{domain.TypeWithdraw, domain.StatusProcessing, "Your withdrawal is processing"},
			{domain.TypeWithdraw, domain.StatusProcessed, "Your withdrawal is completed"},
		}
		for _, tc := range cases {
			store := memory.New()
			userID := seedUser(t, store, "0")
			seedTx(t, store, userID, tc.txType, "1", tc.status)

			report, err := NewReporter(store).Status(ctx, userID, tc.txType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, report.Message)
		}
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "0")
		seedTx(t, store, userID, domain.TypeWithdraw, "1", domain.TransactionStatus("reversed"))

		_, err := NewReporter(store, WithStrictStatus(true)).Status(ctx, userID, domain.TypeWithdraw)
		assert.ErrorIs(t, err, domain.ErrUnknownStatus)

		report, err := NewReporter(store).Status(ctx, userID, domain.TypeWithdraw)
		require.NoError(t, err)
		assert.Equal(t, "Your withdrawal status is unknown", report.Message)
	})

	t.Run("InvalidType", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "0")
		_, err := NewReporter(store).Status(ctx, userID, domain.TransactionType("transfer"))
		assert.ErrorIs(t, err, domain.ErrInvalidOperationType)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := NewReporter(memory.New()).Status(ctx, 9, domain.TypeDeposit)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReporter_Totals(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	userID := seedUser(t, store, "0")
	seedTx(t, store, userID, domain.TypeDeposit, "10", domain.StatusProcessed)
	seedTx(t, store, userID, domain.TypeDeposit, "20", domain.StatusPending)
	seedTx(t, store, userID, domain.TypeDeposit, "30.50", domain.StatusProcessed)

	r := NewReporter(store)

	report, err := r.Totals(ctx, userID, domain.TypeDeposit)
	require.NoError(t, err)
	assert.Equal(t, "Total deposit amount", report.Message)
	require.Len(t, report.Transactions, 2)
	assert.True(t, report.Transactions[1].Amount.Equal(amount("30.50")))

	report, err = r.Totals(ctx, userID, domain.TypeWithdraw)
	require.NoError(t, err)
	assert.Equal(t, NoRecordsMessage, report.Message)
	assert.Empty(t, report.Transactions)
}

func TestReporter_Wallet(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadsThroughCache", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "12.34")
		cache := newRecordingCache()
		r := NewReporter(store, WithReadCache(cache))

		wallets, err := r.Wallet(ctx, userID)
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.True(t, wallets[0].AvailableAmount.Equal(amount("12.34")))
		assert.Contains(t, cache.entries, utils.WalletCacheKey(userID, 0))

		// A hit is served without touching the store
		cache.entries[utils.WalletCacheKey(userID, 0)] = []domain.Wallet{{UserID: userID, AvailableAmount: amount("1")}}
		wallets, err = r.Wallet(ctx, userID)
		require.NoError(t, err)
		assert.True(t, wallets[0].AvailableAmount.Equal(amount("1")))
	})

	t.Run("NoWallet", func(t *testing.T) {
		store := memory.New()
		user := &domain.User{Email: "fresh@example.com"}
		require.NoError(t, store.Users().Create(ctx, user))

		wallets, err := NewReporter(store).Wallet(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, wallets)
	})
}

func TestReporter_TransactionsAfterDeposit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	userID := seedUser(t, store, "0")
	cache := newRecordingCache()
	r := NewReporter(store, WithReadCache(cache))
	p := NewProcessor(store, WithCache(cache), WithInitialStatus(domain.StatusProcessed))

	txs, err := r.Transactions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	require.NoError(t, p.Deposit(ctx, userID, Request{Type: domain.TypeDeposit, Amount: amount("100")}))
	require.NoError(t, p.Withdraw(ctx, userID, Request{Type: domain.TypeWithdraw, Amount: amount("40")}))

	txs, err = r.Transactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TypeDeposit, txs[0].TransactionType)
	assert.Equal(t, domain.TypeWithdraw, txs[1].TransactionType)

	wallets, err := r.Wallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallets[0].AvailableAmount.Equal(amount("60")))
}

func TestReporter_FillRacingDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("Wallet", func(t *testing.T) {
		base := memory.New()
		userID := seedUser(t, base, "0")
		store := newPausingStore(base)
		cache := newRecordingCache()
		r := NewReporter(store, WithReadCache(cache))
		p := NewProcessor(store, WithCache(cache), WithInitialStatus(domain.StatusProcessed))

		read := make(chan []domain.Wallet, 1)
		go func() {
			wallets, err := r.Wallet(ctx, userID)
			assert.NoError(t, err)
			read <- wallets
		}()

		// The reader holds the pre-deposit row while the deposit commits
		<-store.loaded
		require.NoError(t, p.Deposit(ctx, userID, Request{Type: domain.TypeDeposit, Amount: amount("100")}))
		close(store.release)
		late := <-read
		require.Len(t, late, 1)
		assert.True(t, late[0].AvailableAmount.IsZero())

		wallets, err := r.Wallet(ctx, userID)
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.True(t, wallets[0].AvailableAmount.Equal(amount("100")), "got %s", wallets[0].AvailableAmount)
	})

	t.Run("Transactions", func(t *testing.T) {
		base := memory.New()
		userID := seedUser(t, base, "0")
		store := newPausingStore(base)
		cache := newRecordingCache()
		r := NewReporter(store, WithReadCache(cache))
		p := NewProcessor(store, WithCache(cache), WithInitialStatus(domain.StatusProcessed))

		read := make(chan []domain.Transaction, 1)
		go func() {
			txs, err := r.Transactions(ctx, userID)
			assert.NoError(t, err)
			read <- txs
		}()

		<-store.loaded
		require.NoError(t, p.Deposit(ctx, userID, Request{Type: domain.TypeDeposit, Amount: amount("100")}))
		close(store.release)
		assert.Empty(t, <-read)

		txs, err := r.Transactions(ctx, userID)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.True(t, txs[0].Amount.Equal(amount("100")))
	})

	t.Run("GenerationUnavailable", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "7")
		cache := newRecordingCache()
		cache.genErr = errors.New("connection refused")
		r := NewReporter(store, WithReadCache(cache))

		wallets, err := r.Wallet(ctx, userID)
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.True(t, wallets[0].AvailableAmount.Equal(amount("7")))
		assert.Empty(t, cache.entries)
	})
}

func TestReporter_ReadsDoNotMutate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	userID := seedUser(t, store, "25")
	seedTx(t, store, userID, domain.TypeDeposit, "25", domain.StatusProcessed)
	seedTx(t, store, userID, domain.TypeWithdraw, "5", domain.StatusPending)
	r := NewReporter(store, WithReadCache(newRecordingCache()))

	for i := 0; i < 3; i++ {
		wallets, err := r.Wallet(ctx, userID)
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.True(t, wallets[0].AvailableAmount.Equal(amount("25")))

		txs, err := r.Transactions(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, txs, 2)

		for _, txType := range []domain.TransactionType{domain.TypeDeposit, domain.TypeWithdraw} {
			status, err := r.Status(ctx, userID, txType)
			require.NoError(t, err)
			assert.Len(t, status.Transactions, 1)

			_, err = r.Totals(ctx, userID, txType)
			require.NoError(t, err)
		}

		report, err := r.Status(ctx, userID, domain.TypeWithdraw)
		require.NoError(t, err)
		assert.Equal(t, "Your withdrawal is pending", report.Message)
	}

	assert.True(t, balanceOf(t, store, userID).Equal(amount("25")))
	all, err := store.Transactions().ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.StatusPending, all[1].Status)
}
