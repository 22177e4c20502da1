package ledger

import (
	"context"
	"testing"

	"apexpay/internal/domain"
	"apexpay/internal/repository/memory"
	"apexpay/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlement_Advance(t *testing.T) {
	ctx := context.Background()

	t.Run("ClearsPendingGate", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "0")
		cache := newRecordingCache()
		p := NewProcessor(store)
		s := NewSettlement(store, cache)

		require.NoError(t, p.Deposit(ctx, userID, Request{Type: domain.TypeDeposit, Amount: amount("10")}))
		require.ErrorIs(t, p.Deposit(ctx, userID, Request{Type: domain.TypeDeposit, Amount: amount("10")}), domain.ErrPendingOperation)

		last, err := store.Transactions().LastOfType(ctx, userID, domain.TypeDeposit)
		require.NoError(t, err)
		updated, err := s.Advance(ctx, last.ID, domain.StatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessing, updated.Status)
		assert.Equal(t, int64(1), cache.gen(userID))
		assert.Contains(t, cache.deleted, utils.HistoryCacheKey(userID, 0))

		require.NoError(t, p.Deposit(ctx, userID, Request{Type: domain.TypeDeposit, Amount: amount("10")}))
		assert.True(t, balanceOf(t, store, userID).Equal(amount("20")))
	})

	t.Run("LeavesBalanceAlone", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "50")
		tx := seedTx(t, store, userID, domain.TypeWithdraw, "10", domain.StatusPending)

		_, err := NewSettlement(store, nil).Advance(ctx, tx.ID, domain.StatusProcessed)
		require.NoError(t, err)
		assert.True(t, balanceOf(t, store, userID).Equal(amount("50")))
	})

	t.Run("RejectsBackwards", func(t *testing.T) {
		store := memory.New()
		userID := seedUser(t, store, "0")
		tx := seedTx(t, store, userID, domain.TypeDeposit, "1", domain.StatusProcessed)
		s := NewSettlement(store, nil)

		_, err := s.Advance(ctx, tx.ID, domain.StatusPending)
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
		_, err = s.Advance(ctx, tx.ID, domain.StatusProcessed)
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	})

	t.Run("UnknownTransaction", func(t *testing.T) {
		_, err := NewSettlement(memory.New(), nil).Advance(ctx, 77, domain.StatusProcessed)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
