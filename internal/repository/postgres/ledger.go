package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/repository"
	"saju-backend/internal/utils"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

const transactionColumns = `id, user_id, amount, type, COALESCE(description, ''), balance_after, idempotency_key, related_analysis_id, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s rowScanner) (*domain.CoinTransaction, error) {
	t := &domain.CoinTransaction{}
	var key sql.NullString
	var analysisID sql.NullInt32
	if err := s.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.BalanceAfter, &key, &analysisID, &t.CreatedAt); err != nil {
		return nil, err
	}
	if key.Valid {
		t.IdempotencyKey = &key.String
	}
	if analysisID.Valid {
		t.RelatedAnalysisID = &analysisID.Int32
	}
	return t, nil
}

func (r *ledgerRepository) ApplyTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.CoinTransaction, error) {
	logger.EnterMethod("ledgerRepository.ApplyTransaction", "userID", req.UserID, "amount", req.Amount, "type", req.Type)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.ApplyTransaction", err)
		return nil, err
	}
	defer tx.Rollback()

	var key *string
	if req.IdempotencyKey != "" {
		key = &req.IdempotencyKey
		existing, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM coin_transactions WHERE idempotency_key = $1`, req.IdempotencyKey))
		if err == nil {
			logger.ExitMethod("ledgerRepository.ApplyTransaction", "duplicate", true, "transactionID", existing.ID)
			return replayed(existing, req)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			logger.ExitMethodWithError("ledgerRepository.ApplyTransaction", err)
			return nil, err
		}
	}

	now := time.Now().UTC()

	// The row lock taken by this UPDATE serializes writers of the same account.
	var balance int64
	logger.DatabaseCall("UPDATE", "coin_accounts", "userID", req.UserID)
	err = tx.QueryRowContext(ctx,
		`UPDATE coin_accounts SET balance = balance + $1, updated_at = $2
		 WHERE user_id = $3 AND balance + $1 >= 0 RETURNING balance`,
		req.Amount, now, req.UserID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM coin_accounts WHERE user_id = $1)`, req.UserID).Scan(&exists); err != nil {
			logger.ExitMethodWithError("ledgerRepository.ApplyTransaction", err)
			return nil, err
		}
		err = domain.ErrInsufficientBalance
		if !exists {
			err = domain.ErrUserNotFound
		}
		logger.DatabaseResult("UPDATE", 0, nil, "reason", err.Error())
		logger.ExitMethod("ledgerRepository.ApplyTransaction", "rejected", err.Error())
		return nil, err
	}
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		logger.ExitMethodWithError("ledgerRepository.ApplyTransaction", err)
		return nil, err
	}
	logger.DatabaseResult("UPDATE", 1, nil, "balance", balance)

	t := &domain.CoinTransaction{
		UserID:            req.UserID,
		Amount:            req.Amount,
		Type:              req.Type,
		Description:       req.Description,
		BalanceAfter:      balance,
		IdempotencyKey:    key,
		RelatedAnalysisID: req.RelatedAnalysisID,
		CreatedAt:         now,
	}
	query := `INSERT INTO coin_transactions (user_id, amount, type, description, balance_after, idempotency_key, related_analysis_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err = tx.QueryRowContext(ctx, query, t.UserID, t.Amount, t.Type, t.Description, t.BalanceAfter, t.IdempotencyKey, t.RelatedAnalysisID, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		if key != nil && isUniqueViolation(err) {
			// A concurrent request with the same key committed first.
			tx.Rollback()
			existing, getErr := r.getByKey(ctx, *key)
			if getErr != nil {
				logger.ExitMethodWithError("ledgerRepository.ApplyTransaction", getErr)
				return nil, getErr
			}
			logger.ExitMethod("ledgerRepository.ApplyTransaction", "duplicate", true, "transactionID", existing.ID)
			return replayed(existing, req)
		}
		logger.ExitMethodWithError("ledgerRepository.ApplyTransaction", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("ledgerRepository.ApplyTransaction", err)
		return nil, err
	}
	logger.ExitMethod("ledgerRepository.ApplyTransaction", "transactionID", t.ID, "balanceAfter", t.BalanceAfter)
	return t, nil
}

// replayed answers a request whose key is already stored. Keys are only
// replayable by the user that first used them.
func replayed(existing *domain.CoinTransaction, req domain.TransactionRequest) (*domain.CoinTransaction, error) {
	if existing.UserID != req.UserID {
		return nil, domain.ErrIdempotencyConflict
	}
	return existing, domain.ErrDuplicateTransaction
}

func (r *ledgerRepository) getByKey(ctx context.Context, key string) (*domain.CoinTransaction, error) {
	return scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM coin_transactions WHERE idempotency_key = $1`, key))
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID int32) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM coin_accounts WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	return balance, err
}

func (r *ledgerRepository) GetTransaction(ctx context.Context, id int32) (*domain.CoinTransaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM coin_transactions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM coin_accounts WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, domain.ErrUserNotFound
	}
	return r.ListAllTransactions(ctx, domain.TransactionFilter{UserID: &userID}, page, pageSize)
}

func (r *ledgerRepository) ListAllTransactions(ctx context.Context, filter domain.TransactionFilter, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, filter.Type)
		argIndex++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM coin_transactions`+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := utils.Offset(page, pageSize)
	query := `SELECT ` + transactionColumns + ` FROM coin_transactions` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txs := []domain.CoinTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *t)
	}
	return txs, count, rows.Err()
}

func (r *ledgerRepository) SumByType(ctx context.Context) (map[domain.TransactionType]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, COALESCE(SUM(amount), 0) FROM coin_transactions GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[domain.TransactionType]int64)
	for rows.Next() {
		var typ domain.TransactionType
		var sum int64
		if err := rows.Scan(&typ, &sum); err != nil {
			return nil, err
		}
		sums[typ] = sum
	}
	return sums, rows.Err()
}

func (r *ledgerRepository) Reconcile(ctx context.Context) ([]domain.BalanceMismatch, error) {
	logger.EnterMethod("ledgerRepository.Reconcile")
	query := `
		SELECT a.user_id, a.balance, COALESCE(SUM(t.amount), 0) AS ledger_sum
		FROM coin_accounts a
		LEFT JOIN coin_transactions t ON t.user_id = a.user_id
		GROUP BY a.user_id, a.balance
		HAVING a.balance <> COALESCE(SUM(t.amount), 0)
		ORDER BY a.user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.Reconcile", err)
		return nil, err
	}
	defer rows.Close()

	var mismatches []domain.BalanceMismatch
	for rows.Next() {
		var m domain.BalanceMismatch
		if err := rows.Scan(&m.UserID, &m.Balance, &m.LedgerSum); err != nil {
			logger.ExitMethodWithError("ledgerRepository.Reconcile", err)
			return nil, err
		}
		mismatches = append(mismatches, m)
	}
	logger.ExitMethod("ledgerRepository.Reconcile", "mismatches", len(mismatches))
	return mismatches, rows.Err()
}

func (r *ledgerRepository) TakeSnapshots(ctx context.Context, month string) (int64, error) {
	query := `
		INSERT INTO balance_snapshots (user_id, balance, ledger_sum, snapshot_month, taken_at)
		SELECT a.user_id, a.balance, COALESCE(SUM(t.amount), 0), $1, $2
		FROM coin_accounts a
		LEFT JOIN coin_transactions t ON t.user_id = a.user_id
		GROUP BY a.user_id, a.balance
		ON CONFLICT (user_id, snapshot_month) DO NOTHING`
	logger.DatabaseCall("INSERT", "balance_snapshots", "month", month)
	res, err := r.db.ExecContext(ctx, query, month, time.Now().UTC())
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("INSERT", n, err)
	return n, err
}
