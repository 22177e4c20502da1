// Package memory is an in-process Store. Every transaction runs under one
// mutex, so all operations are serializable; a failed transaction restores
// the snapshot taken when it began.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"apexpay/internal/domain"
	"apexpay/internal/repository"
)

type state struct {
	users        map[uint]domain.User
	wallets      map[uint]domain.Wallet // keyed by user id
	txs          []domain.Transaction
	nextUserID   uint
	nextWalletID uint
	nextTxID     uint
}

func (st *state) clone() *state {
	c := &state{
		users:        make(map[uint]domain.User, len(st.users)),
		wallets:      make(map[uint]domain.Wallet, len(st.wallets)),
		txs:          make([]domain.Transaction, len(st.txs)),
		nextUserID:   st.nextUserID,
		nextWalletID: st.nextWalletID,
		nextTxID:     st.nextTxID,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.wallets {
		c.wallets[k] = v
	}
	copy(c.txs, st.txs)
	return c
}

// Store implements repository.Store in memory
type Store struct {
	mu    *sync.Mutex
	st    *state
	inTx  bool
	clock func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		st: &state{
			users:   map[uint]domain.User{},
			wallets: map[uint]domain.Wallet{},
		},
		clock: time.Now,
	}
}

// WithClock overrides the timestamp source, used to pin creation order in tests
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// guard takes the store mutex unless the caller already holds it through WithinTx
func (s *Store) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() repository.UserRepository               { return users{s} }
func (s *Store) Wallets() repository.WalletRepository           { return wallets{s} }
func (s *Store) Transactions() repository.TransactionRepository { return transactions{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true, clock: s.clock}
	if err := fn(tx); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

type users struct{ s *Store }

func (r users) Create(_ context.Context, user *domain.User) error {
	defer r.s.guard()()
	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrUserExists
		}
	}
	r.s.st.nextUserID++
	user.ID = r.s.st.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.s.clock()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	stored := *user
	stored.Wallet = nil
	r.s.st.users[user.ID] = stored
	return nil
}

func (r users) GetByID(_ context.Context, id uint) (*domain.User, error) {
	defer r.s.guard()()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.guard()()
	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r users) Update(_ context.Context, user *domain.User) error {
	defer r.s.guard()()
	if _, ok := r.s.st.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *user
	stored.Wallet = nil
	r.s.st.users[user.ID] = stored
	return nil
}

func (r users) List(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	defer r.s.guard()()
	all := make([]domain.User, 0, len(r.s.st.users))
	for _, u := range r.s.st.users {
		if w, ok := r.s.st.wallets[u.ID]; ok {
			u.Wallet = &w
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), int64(len(all)), nil
}

type wallets struct{ s *Store }

func (r wallets) GetByUserID(_ context.Context, userID uint) (*domain.Wallet, error) {
	defer r.s.guard()()
	w, ok := r.s.st.wallets[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &w, nil
}

// LockByUserID is a plain read; WithinTx already serializes callers
func (r wallets) LockByUserID(ctx context.Context, userID uint) (*domain.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r wallets) Create(_ context.Context, wallet *domain.Wallet) error {
	defer r.s.guard()()
	if _, ok := r.s.st.wallets[wallet.UserID]; ok {
		return domain.ErrUnavailable
	}
	r.s.st.nextWalletID++
	wallet.ID = r.s.st.nextWalletID
	wallet.UpdatedAt = r.s.clock()
	r.s.st.wallets[wallet.UserID] = *wallet
	return nil
}

func (r wallets) Update(_ context.Context, wallet *domain.Wallet) error {
	defer r.s.guard()()
	current, ok := r.s.st.wallets[wallet.UserID]
	if !ok || current.ID != wallet.ID {
		return domain.ErrNotFound
	}
	wallet.UpdatedAt = r.s.clock()
	r.s.st.wallets[wallet.UserID] = *wallet
	return nil
}

type transactions struct{ s *Store }

func (r transactions) Create(_ context.Context, tx *domain.Transaction) error {
	defer r.s.guard()()
	r.s.st.nextTxID++
	tx.ID = r.s.st.nextTxID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.s.clock()
	}
	if tx.Status == "" {
		tx.Status = domain.StatusPending
	}
	r.s.st.txs = append(r.s.st.txs, *tx)
	return nil
}

func (r transactions) GetByID(_ context.Context, id uint) (*domain.Transaction, error) {
	defer r.s.guard()()
	for _, tx := range r.s.st.txs {
		if tx.ID == id {
			return &tx, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r transactions) LastOfType(_ context.Context, userID uint, txType domain.TransactionType) (*domain.Transaction, error) {
	defer r.s.guard()()
	rows := r.s.st.filter(func(tx domain.Transaction) bool {
		return tx.UserID == userID && tx.TransactionType == txType
	})
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	last := rows[len(rows)-1]
	return &last, nil
}

func (r transactions) ListByUser(_ context.Context, userID uint) ([]domain.Transaction, error) {
	defer r.s.guard()()
	return r.s.st.filter(func(tx domain.Transaction) bool { return tx.UserID == userID }), nil
}

func (r transactions) ListByType(_ context.Context, userID uint, txType domain.TransactionType) ([]domain.Transaction, error) {
	defer r.s.guard()()
	return r.s.st.filter(func(tx domain.Transaction) bool {
		return tx.UserID == userID && tx.TransactionType == txType
	}), nil
}

func (r transactions) ListByTypeAndStatus(_ context.Context, userID uint, txType domain.TransactionType, status domain.TransactionStatus) ([]domain.Transaction, error) {
	defer r.s.guard()()
	return r.s.st.filter(func(tx domain.Transaction) bool {
		return tx.UserID == userID && tx.TransactionType == txType && tx.Status == status
	}), nil
}

func (r transactions) UpdateStatus(_ context.Context, id uint, from, to domain.TransactionStatus) error {
	defer r.s.guard()()
	for i := range r.s.st.txs {
		if r.s.st.txs[i].ID != id {
			continue
		}
		if r.s.st.txs[i].Status != from {
			return domain.ErrInvalidStatusTransition
		}
		r.s.st.txs[i].Status = to
		return nil
	}
	return domain.ErrInvalidStatusTransition
}

func (r transactions) List(_ context.Context, f repository.TransactionFilter) ([]domain.Transaction, int64, error) {
	defer r.s.guard()()
	rows := r.s.st.filter(func(tx domain.Transaction) bool {
		switch {
		case f.UserID != 0 && tx.UserID != f.UserID:
			return false
		case f.Type != "" && tx.TransactionType != f.Type:
			return false
		case f.Status != "" && tx.Status != f.Status:
			return false
		case f.From != nil && tx.CreatedAt.Before(*f.From):
			return false
		case f.To != nil && tx.CreatedAt.After(*f.To):
			return false
		}
		return true
	})
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return page(rows, f.Offset, f.Limit), int64(len(rows)), nil
}

// filter returns matching rows oldest first
func (st *state) filter(keep func(domain.Transaction) bool) []domain.Transaction {
	out := []domain.Transaction{}
	for _, tx := range st.txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
