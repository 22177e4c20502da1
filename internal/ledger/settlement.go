package ledger

import (
	"context"
	"fmt"

	"apexpay/internal/domain"
	"apexpay/internal/metrics"
	"apexpay/internal/repository"

	"github.com/sirupsen/logrus"
)

// Settlement moves ledger rows along pending -> processing -> processed.
// It never touches wallet balances; those moved when the row was created.
type Settlement struct {
	store repository.Store
	cache Cache
}

// NewSettlement creates a settlement over store. A nil cache disables invalidation.
func NewSettlement(store repository.Store, cache Cache) *Settlement {
	if cache == nil {
		cache = nopCache{}
	}
	return &Settlement{store: store, cache: cache}
}

// Advance sets the status of transaction id to target and returns the updated row
func (s *Settlement) Advance(ctx context.Context, id uint, target domain.TransactionStatus) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		row, err := tx.Transactions().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", id, err)
		}
		if !row.Status.CanAdvanceTo(target) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, row.Status, target)
		}
		if err := tx.Transactions().UpdateStatus(ctx, id, row.Status, target); err != nil {
			return err
		}
		row.Status = target
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SettlementTransitions.WithLabelValues(string(target)).Inc()
	logger(ctx).WithFields(logrus.Fields{
		"transaction_id": id,
		"user_id":        updated.UserID,
		"status":         target,
	}).Info("Transaction settled")
	invalidate(ctx, s.cache, updated.UserID)
	return updated, nil
}
