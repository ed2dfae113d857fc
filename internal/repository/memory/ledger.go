package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"saju-backend/internal/domain"
)

type account struct {
	mu        sync.Mutex
	balance   int64
	updatedAt time.Time
	txs       []domain.CoinTransaction
}

// keyEntry tracks an idempotency key from the moment a writer claims it. done
// is closed once the writer either stored tx or gave the key up.
type keyEntry struct {
	done chan struct{}
	tx   *domain.CoinTransaction
}

// LedgerRepository keeps one mutex per account. Writers for different users
// never wait on each other.
type LedgerRepository struct {
	accountsMu sync.RWMutex
	accounts   map[int32]*account

	keysMu sync.Mutex
	keys   map[string]*keyEntry

	txMu   sync.RWMutex
	nextID int32
	all    []domain.CoinTransaction

	snapshotsMu sync.Mutex
	snapshots   map[string]map[int32]domain.BalanceMismatch
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		accounts:  make(map[int32]*account),
		keys:      make(map[string]*keyEntry),
		snapshots: make(map[string]map[int32]domain.BalanceMismatch),
	}
}

// OpenAccount creates a zero-balance account. It is a no-op when the account
// already exists.
func (r *LedgerRepository) OpenAccount(userID int32) {
	r.accountsMu.Lock()
	defer r.accountsMu.Unlock()
	if _, ok := r.accounts[userID]; !ok {
		r.accounts[userID] = &account{updatedAt: time.Now().UTC()}
	}
}

func (r *LedgerRepository) account(userID int32) (*account, bool) {
	r.accountsMu.RLock()
	defer r.accountsMu.RUnlock()
	a, ok := r.accounts[userID]
	return a, ok
}

// claimKey either returns the transaction already stored under key, or
// claims the key for the caller. A claim must be settled with releaseKey.
func (r *LedgerRepository) claimKey(ctx context.Context, key string) (*keyEntry, *domain.CoinTransaction, error) {
	for {
		r.keysMu.Lock()
		e, ok := r.keys[key]
		if !ok {
			e = &keyEntry{done: make(chan struct{})}
			r.keys[key] = e
			r.keysMu.Unlock()
			return e, nil, nil
		}
		r.keysMu.Unlock()

		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
		if e.tx != nil {
			existing := *e.tx
			return nil, &existing, nil
		}
	}
}

func (r *LedgerRepository) releaseKey(key string, e *keyEntry, tx *domain.CoinTransaction) {
	r.keysMu.Lock()
	if tx == nil {
		delete(r.keys, key)
	} else {
		stored := *tx
		e.tx = &stored
	}
	r.keysMu.Unlock()
	close(e.done)
}

func (r *LedgerRepository) ApplyTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.CoinTransaction, error) {
	var claim *keyEntry
	if req.IdempotencyKey != "" {
		e, existing, err := r.claimKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.UserID != req.UserID {
				return nil, domain.ErrIdempotencyConflict
			}
			return existing, domain.ErrDuplicateTransaction
		}
		claim = e
	}

	tx, err := r.apply(req)
	if claim != nil {
		r.releaseKey(req.IdempotencyKey, claim, tx)
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *LedgerRepository) apply(req domain.TransactionRequest) (*domain.CoinTransaction, error) {
	acc, ok := r.account(req.UserID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.balance+req.Amount < 0 {
		return nil, domain.ErrInsufficientBalance
	}

	now := time.Now().UTC()
	tx := domain.CoinTransaction{
		UserID:            req.UserID,
		Amount:            req.Amount,
		Type:              req.Type,
		Description:       req.Description,
		BalanceAfter:      acc.balance + req.Amount,
		RelatedAnalysisID: req.RelatedAnalysisID,
		CreatedAt:         now,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		tx.IdempotencyKey = &key
	}

	r.txMu.Lock()
	r.nextID++
	tx.ID = r.nextID
	r.all = append(r.all, tx)
	r.txMu.Unlock()

	acc.balance = tx.BalanceAfter
	acc.updatedAt = now
	acc.txs = append(acc.txs, tx)
	return &tx, nil
}

func (r *LedgerRepository) GetBalance(ctx context.Context, userID int32) (int64, error) {
	acc, ok := r.account(userID)
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

func (r *LedgerRepository) GetTransaction(ctx context.Context, id int32) (*domain.CoinTransaction, error) {
	r.txMu.RLock()
	defer r.txMu.RUnlock()
	if id < 1 || int(id) > len(r.all) {
		return nil, domain.ErrNotFound
	}
	tx := r.all[id-1]
	return &tx, nil
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	acc, ok := r.account(userID)
	if !ok {
		return nil, 0, domain.ErrUserNotFound
	}
	acc.mu.Lock()
	txs := newestFirst(acc.txs, func(domain.CoinTransaction) bool { return true })
	acc.mu.Unlock()

	start, end := paginate(len(txs), page, pageSize)
	return txs[start:end], int32(len(txs)), nil
}

func (r *LedgerRepository) ListAllTransactions(ctx context.Context, filter domain.TransactionFilter, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	r.txMu.RLock()
	txs := newestFirst(r.all, func(t domain.CoinTransaction) bool {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			return false
		}
		return filter.Type == "" || t.Type == filter.Type
	})
	r.txMu.RUnlock()

	start, end := paginate(len(txs), page, pageSize)
	return txs[start:end], int32(len(txs)), nil
}

func newestFirst(src []domain.CoinTransaction, keep func(domain.CoinTransaction) bool) []domain.CoinTransaction {
	out := make([]domain.CoinTransaction, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		if keep(src[i]) {
			out = append(out, src[i])
		}
	}
	return out
}

func (r *LedgerRepository) SumByType(ctx context.Context) (map[domain.TransactionType]int64, error) {
	r.txMu.RLock()
	defer r.txMu.RUnlock()
	sums := make(map[domain.TransactionType]int64)
	for _, t := range r.all {
		sums[t.Type] += t.Amount
	}
	return sums, nil
}

// ledgerSums returns each account's balance next to the sum of its rows.
func (r *LedgerRepository) ledgerSums() []domain.BalanceMismatch {
	r.accountsMu.RLock()
	ids := make([]int32, 0, len(r.accounts))
	for id := range r.accounts {
		ids = append(ids, id)
	}
	r.accountsMu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]domain.BalanceMismatch, 0, len(ids))
	for _, id := range ids {
		acc, _ := r.account(id)
		acc.mu.Lock()
		var sum int64
		for _, t := range acc.txs {
			sum += t.Amount
		}
		out = append(out, domain.BalanceMismatch{UserID: id, Balance: acc.balance, LedgerSum: sum})
		acc.mu.Unlock()
	}
	return out
}

func (r *LedgerRepository) Reconcile(ctx context.Context) ([]domain.BalanceMismatch, error) {
	var mismatches []domain.BalanceMismatch
	for _, s := range r.ledgerSums() {
		if s.Balance != s.LedgerSum {
			mismatches = append(mismatches, s)
		}
	}
	return mismatches, nil
}

func (r *LedgerRepository) TakeSnapshots(ctx context.Context, month string) (int64, error) {
	sums := r.ledgerSums()

	r.snapshotsMu.Lock()
	defer r.snapshotsMu.Unlock()
	taken, ok := r.snapshots[month]
	if !ok {
		taken = make(map[int32]domain.BalanceMismatch)
		r.snapshots[month] = taken
	}
	var n int64
	for _, s := range sums {
		if _, exists := taken[s.UserID]; exists {
			continue
		}
		taken[s.UserID] = s
		n++
	}
	return n, nil
}
