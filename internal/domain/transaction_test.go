package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_CanAdvanceTo(t *testing.T) {
	assert.True(t, StatusPending.CanAdvanceTo(StatusProcessing))
	assert.True(t, StatusPending.CanAdvanceTo(StatusProcessed))
	assert.True(t, StatusProcessing.CanAdvanceTo(StatusProcessed))

	assert.False(t, StatusProcessed.CanAdvanceTo(StatusPending))
	assert.False(t, StatusProcessing.CanAdvanceTo(StatusProcessing))
	assert.False(t, StatusPending.CanAdvanceTo("failed"))
	assert.False(t, TransactionStatus("unknown").CanAdvanceTo(StatusProcessed))
}

func TestWallet_Debit(t *testing.T) {
	t.Run("sufficient funds", func(t *testing.T) {
		w := &Wallet{AvailableAmount: decimal.NewFromInt(100)}
		assert.NoError(t, w.Debit(decimal.NewFromInt(80)))
		assert.True(t, w.AvailableAmount.Equal(decimal.NewFromInt(20)))
	})

	t.Run("exact balance", func(t *testing.T) {
		w := &Wallet{AvailableAmount: decimal.RequireFromString("10.50")}
		assert.NoError(t, w.Debit(decimal.RequireFromString("10.5")))
		assert.True(t, w.AvailableAmount.IsZero())
	})

	t.Run("insufficient funds leaves balance untouched", func(t *testing.T) {
		w := &Wallet{AvailableAmount: decimal.NewFromInt(100)}
		assert.ErrorIs(t, w.Debit(decimal.NewFromInt(150)), ErrInsufficientFunds)
		assert.True(t, w.AvailableAmount.Equal(decimal.NewFromInt(100)))
	})
}

func TestIsBusinessRule(t *testing.T) {
	assert.True(t, IsBusinessRule(ErrPendingOperation))
	assert.True(t, IsBusinessRule(ErrInsufficientFunds))
	assert.False(t, IsBusinessRule(ErrContention))
	assert.False(t, IsBusinessRule(ErrNotFound))
}
