package ledger

import (
	"context"
	"errors"
	"fmt"

	"apexpay/internal/domain"
	"apexpay/internal/repository"
	"apexpay/internal/utils"

	"github.com/sirupsen/logrus"
)

// NoRecordsMessage is reported when a user has no matching ledger rows
const NoRecordsMessage = "You have no transaction records yet"

var statusMessages = map[domain.TransactionType]map[domain.TransactionStatus]string{
	domain.TypeDeposit: {
		domain.StatusPending:    "Your deposit is pending",
		domain.StatusProcessing: "Your deposit is processing",
		domain.StatusProcessed:  "Your deposit is completed",
	},
	domain.TypeWithdraw: {
		domain.StatusPending:    "Your withdrawal is pending",
		domain.StatusProcessing: "Your withdrawal is processing",
		domain.StatusProcessed:  "Your withdrawal is completed",
	},
}

var unknownStatusMessages = map[domain.TransactionType]string{
	domain.TypeDeposit:  "Your deposit status is unknown",
	domain.TypeWithdraw: "Your withdrawal status is unknown",
}

var totalMessages = map[domain.TransactionType]string{
	domain.TypeDeposit:  "Total deposit amount",
	domain.TypeWithdraw: "Total withdraw amount",
}

// Report is a message plus the rows it describes
type Report struct {
	Message      string               `json:"message"`
	Transactions []domain.Transaction `json:"data"`
}

// Reporter answers read-only questions about a user's ledger
type Reporter struct {
	store  repository.Store
	cache  Cache
	strict bool
}

// ReporterOption configures a Reporter
type ReporterOption func(*Reporter)

// WithReadCache serves wallet and history reads through c
func WithReadCache(c Cache) ReporterOption {
	return func(r *Reporter) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithStrictStatus makes an unmapped status an error instead of a generic message
func WithStrictStatus(strict bool) ReporterOption {
	return func(r *Reporter) { r.strict = strict }
}

// NewReporter creates a reporter over store. Without WithReadCache every read
// goes to the store.
func NewReporter(store repository.Store, opts ...ReporterOption) *Reporter {
	r := &Reporter{store: store, cache: nopCache{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transactions returns every ledger row of the user in creation order
func (r *Reporter) Transactions(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	if err := r.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	gen, cacheable := r.generation(ctx, userID)
	key := utils.HistoryCacheKey(userID, gen)
	var cached []domain.Transaction
	if cacheable {
		if found, err := r.cache.Get(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
	}
	txs, err := r.store.Transactions().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cacheable {
		r.fill(ctx, key, txs)
	}
	return txs, nil
}

// Wallet returns the user's wallet as a collection of at most one element
func (r *Reporter) Wallet(ctx context.Context, userID uint) ([]domain.Wallet, error) {
	if err := r.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	gen, cacheable := r.generation(ctx, userID)
	key := utils.WalletCacheKey(userID, gen)
	var cached []domain.Wallet
	if cacheable {
		if found, err := r.cache.Get(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
	}
	wallets := []domain.Wallet{}
	w, err := r.store.Wallets().GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		wallets = append(wallets, *w)
	}
	if cacheable {
		r.fill(ctx, key, wallets)
	}
	return wallets, nil
}

// Status describes the most recent transaction of txType and carries every
// row of that type
func (r *Reporter) Status(ctx context.Context, userID uint, txType domain.TransactionType) (*Report, error) {
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidOperationType, txType)
	}
	if err := r.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	txs, err := r.store.Transactions().ListByType(ctx, userID, txType)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return &Report{Message: NoRecordsMessage, Transactions: txs}, nil
	}
	last := txs[len(txs)-1]
	msg, ok := statusMessages[txType][last.Status]
	if !ok {
		if r.strict {
			return nil, fmt.Errorf("%w: %q on transaction %d", domain.ErrUnknownStatus, last.Status, last.ID)
		}
		logger(ctx).WithFields(logrus.Fields{"transaction_id": last.ID, "status": last.Status}).Error("Unmapped transaction status")
		msg = unknownStatusMessages[txType]
	}
	return &Report{Message: msg, Transactions: txs}, nil
}

// Totals returns the settled rows of txType. Summing is left to the caller.
func (r *Reporter) Totals(ctx context.Context, userID uint, txType domain.TransactionType) (*Report, error) {
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidOperationType, txType)
	}
	if err := r.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	txs, err := r.store.Transactions().ListByTypeAndStatus(ctx, userID, txType, domain.StatusProcessed)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return &Report{Message: NoRecordsMessage, Transactions: txs}, nil
	}
	return &Report{Message: totalMessages[txType], Transactions: txs}, nil
}

func (r *Reporter) requireUser(ctx context.Context, userID uint) error {
	if _, err := r.store.Users().GetByID(ctx, userID); err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}
	return nil
}

// generation must be read before the store so that a write committing in
// between moves the counter past the key being filled
func (r *Reporter) generation(ctx context.Context, userID uint) (int64, bool) {
	gen, err := r.cache.Counter(ctx, utils.GenerationKey(userID))
	if err != nil {
		logger(ctx).WithField("user_id", userID).WithError(err).Warn("Cache generation unavailable, reading through")
		return 0, false
	}
	return gen, true
}

func (r *Reporter) fill(ctx context.Context, key string, value any) {
	if err := r.cache.Set(ctx, key, value); err != nil {
		logger(ctx).WithField("key", key).WithError(err).Warn("Cache fill failed")
	}
}
