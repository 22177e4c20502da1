// Package ledger holds the wallet consistency rules: the processor that
// moves money, the reporter that reads it back and settlement.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apexpay/internal/domain"
	"apexpay/internal/metrics"
	"apexpay/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Request is a validated deposit or withdraw payload
type Request struct {
	Type   domain.TransactionType
	Amount decimal.Decimal
}

// Processor applies deposits and withdrawals. Each operation locks the
// user's wallet row, evaluates the pending gate and the funds check against
// the locked state, then writes the balance and the ledger row in the same
// store transaction.
type Processor struct {
	store         repository.Store
	cache         Cache
	initialStatus domain.TransactionStatus
	maxRetries    uint64
	newBackOff    func() backoff.BackOff
}

// Option configures a Processor
type Option func(*Processor)

// WithCache sets the read cache invalidated after each commit
func WithCache(c Cache) Option {
	return func(p *Processor) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithInitialStatus sets the status new ledger rows are created with
func WithInitialStatus(s domain.TransactionStatus) Option {
	return func(p *Processor) { p.initialStatus = s }
}

// WithMaxRetries bounds the retries on lock contention
func WithMaxRetries(n uint64) Option {
	return func(p *Processor) { p.maxRetries = n }
}

// WithBackOff sets the delay policy between contention retries
func WithBackOff(f func() backoff.BackOff) Option {
	return func(p *Processor) { p.newBackOff = f }
}

// NewProcessor creates a processor. New rows start pending and contention
// is retried three times by default.
func NewProcessor(store repository.Store, opts ...Option) *Processor {
	p := &Processor{
		store:         store,
		cache:         nopCache{},
		initialStatus: domain.StatusPending,
		maxRetries:    3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxInterval = 250 * time.Millisecond
			return b
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Deposit credits the user's wallet and appends a deposit row
func (p *Processor) Deposit(ctx context.Context, userID uint, req Request) error {
	return p.apply(ctx, userID, domain.TypeDeposit, req)
}

// Withdraw debits the user's wallet and appends a withdraw row
func (p *Processor) Withdraw(ctx context.Context, userID uint, req Request) error {
	return p.apply(ctx, userID, domain.TypeWithdraw, req)
}

func (p *Processor) apply(ctx context.Context, userID uint, op domain.TransactionType, req Request) (err error) {
	log := logger(ctx).WithFields(logrus.Fields{
		"user_id": userID,
		"type":    op,
		"amount":  req.Amount.String(),
	})
	defer func() {
		metrics.LedgerOperations.WithLabelValues(string(op), outcome(err)).Inc()
	}()

	// Ledger amounts carry at most two decimal places
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Truncate(2)) {
		return domain.ErrInvalidAmount
	}
	// Type validity short-circuits before any gate is evaluated
	if req.Type != op {
		return fmt.Errorf("%w: %q for %s", domain.ErrInvalidOperationType, req.Type, op)
	}

	operation := func() error {
		err := p.commit(ctx, userID, op, req.Amount)
		if err == nil || errors.Is(err, domain.ErrContention) {
			return err
		}
		return backoff.Permanent(err)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), p.maxRetries), ctx)
	err = backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		metrics.LedgerRetries.WithLabelValues(string(op)).Inc()
		log.WithError(err).WithField("wait", wait).Warn("Wallet contention, retrying")
	})
	if err != nil {
		if domain.IsBusinessRule(err) || errors.Is(err, domain.ErrNotFound) {
			log.WithError(err).Info("Transaction declined")
		} else {
			log.WithError(err).Error("Transaction failed")
		}
		return err
	}

	log.WithField("status", p.initialStatus).Info("Transaction accepted")
	invalidate(ctx, p.cache, userID)
	return nil
}

// commit is the serialized check-then-act region
func (p *Processor) commit(ctx context.Context, userID uint, op domain.TransactionType, amount decimal.Decimal) error {
	return p.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}
		wallet, err := tx.Wallets().LockByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("wallet of user %d: %w", userID, err)
		}

		last, err := tx.Transactions().LastOfType(ctx, userID, op)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		case last.Status == domain.StatusPending:
			return domain.ErrPendingOperation
		}

		switch op {
		case domain.TypeDeposit:
			wallet.Credit(amount)
		case domain.TypeWithdraw:
			if err := wallet.Debit(amount); err != nil {
				return err
			}
		}
		if err := tx.Wallets().Update(ctx, wallet); err != nil {
			return err
		}
		return tx.Transactions().Create(ctx, &domain.Transaction{
			UserID:          userID,
			TransactionType: op,
			Amount:          amount,
			Status:          p.initialStatus,
		})
	})
}

// outcome labels an operation result for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrPendingOperation):
		return "pending"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidOperationType), errors.Is(err, domain.ErrInvalidAmount):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrContention):
		return "contention"
	default:
		return "error"
	}
}
