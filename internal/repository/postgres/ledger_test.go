package postgres

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"saju-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txColumns = []string{"id", "user_id", "amount", "type", "description", "balance_after", "idempotency_key", "related_analysis_id", "created_at"}

func TestLedgerRepository_ApplyTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewLedgerRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM coin_transactions WHERE idempotency_key").
			WithArgs("pay_1").
			WillReturnRows(sqlmock.NewRows(txColumns))
		mock.ExpectQuery("UPDATE coin_accounts SET balance").
			WithArgs(int64(100), sqlmock.AnyArg(), int32(7)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(100)))
		mock.ExpectQuery("INSERT INTO coin_transactions").
			WithArgs(int32(7), int64(100), domain.TransactionTypeCharge, "충전", int64(100), "pay_1", nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int32(11)))
		mock.ExpectCommit()

		tx, err := repo.ApplyTransaction(ctx, domain.TransactionRequest{
			UserID: 7, Amount: 100, Type: domain.TransactionTypeCharge, Description: "충전", IdempotencyKey: "pay_1",
		})
		require.NoError(t, err)
		assert.Equal(t, int32(11), tx.ID)
		assert.Equal(t, int64(100), tx.BalanceAfter)
		require.NotNil(t, tx.IdempotencyKey)
		assert.Equal(t, "pay_1", *tx.IdempotencyKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewLedgerRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE coin_accounts SET balance").
			WithArgs(int64(-50), sqlmock.AnyArg(), int32(7)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int32(7)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		tx, err := repo.ApplyTransaction(ctx, domain.TransactionRequest{UserID: 7, Amount: -50, Type: domain.TransactionTypeSpend})
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.Nil(t, tx)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UserNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewLedgerRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE coin_accounts SET balance").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int32(99)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err = repo.ApplyTransaction(ctx, domain.TransactionRequest{UserID: 99, Amount: 10, Type: domain.TransactionTypeCharge})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateKeyFoundBeforeUpdate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewLedgerRepository(db)

		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM coin_transactions WHERE idempotency_key").
			WithArgs("pay_1").
			WillReturnRows(sqlmock.NewRows(txColumns).
				AddRow(int32(11), int32(7), int64(100), "charge", "충전", int64(100), "pay_1", nil, created))
		mock.ExpectRollback()

		tx, err := repo.ApplyTransaction(ctx, domain.TransactionRequest{
			UserID: 7, Amount: 100, Type: domain.TransactionTypeCharge, IdempotencyKey: "pay_1",
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)
		require.NotNil(t, tx)
		assert.Equal(t, int32(11), tx.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("KeyUsedByAnotherUser", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewLedgerRepository(db)

		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM coin_transactions WHERE idempotency_key").
			WithArgs("pay_1").
			WillReturnRows(sqlmock.NewRows(txColumns).
				AddRow(int32(11), int32(7), int64(100), "charge", "충전", int64(100), "pay_1", nil, created))
		mock.ExpectRollback()

		tx, err := repo.ApplyTransaction(ctx, domain.TransactionRequest{
			UserID: 8, Amount: 100, Type: domain.TransactionTypeCharge, IdempotencyKey: "pay_1",
		})
		assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
		assert.Nil(t, tx)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateKeyRace", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewLedgerRepository(db)

		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM coin_transactions WHERE idempotency_key").
			WithArgs("pay_2").
			WillReturnRows(sqlmock.NewRows(txColumns))
		mock.ExpectQuery("UPDATE coin_accounts SET balance").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(200)))
		mock.ExpectQuery("INSERT INTO coin_transactions").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()
		mock.ExpectQuery("FROM coin_transactions WHERE idempotency_key").
			WithArgs("pay_2").
			WillReturnRows(sqlmock.NewRows(txColumns).
				AddRow(int32(12), int32(7), int64(100), "charge", "", int64(100), "pay_2", nil, created))

		tx, err := repo.ApplyTransaction(ctx, domain.TransactionRequest{
			UserID: 7, Amount: 100, Type: domain.TransactionTypeCharge, IdempotencyKey: "pay_2",
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)
		require.NotNil(t, tx)
		assert.Equal(t, int32(12), tx.ID)
		assert.Equal(t, int64(100), tx.BalanceAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_GetBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance FROM coin_accounts").
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(300)))

		balance, err := repo.GetBalance(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(300), balance)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance FROM coin_accounts").
			WithArgs(int32(2)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))

		_, err := repo.GetBalance(ctx, 2)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestLedgerRepository_ListAllTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()
	created := time.Now().UTC()

	t.Run("FilterByUserAndType", func(t *testing.T) {
		userID := int32(3)
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM coin_transactions WHERE 1=1 AND user_id = \\$1 AND type = \\$2").
			WithArgs(userID, domain.TransactionTypeSpend).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int32(1)))
		mock.ExpectQuery("ORDER BY id DESC LIMIT \\$3 OFFSET \\$4").
			WithArgs(userID, domain.TransactionTypeSpend, int32(10), int32(10)).
			WillReturnRows(sqlmock.NewRows(txColumns).
				AddRow(int32(5), userID, int64(-10), "spend", "기본 사주", int64(90), nil, nil, created))

		txs, total, err := repo.ListAllTransactions(ctx, domain.TransactionFilter{UserID: &userID, Type: domain.TransactionTypeSpend}, 2, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, txs, 1)
		assert.Equal(t, int64(-10), txs[0].Amount)
		assert.Nil(t, txs[0].IdempotencyKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoFilter", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM coin_transactions WHERE 1=1$").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int32(0)))
		mock.ExpectQuery("LIMIT \\$1 OFFSET \\$2").
			WithArgs(int32(20), int32(0)).
			WillReturnRows(sqlmock.NewRows(txColumns))

		txs, total, err := repo.ListAllTransactions(ctx, domain.TransactionFilter{}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int32(0), total)
		assert.Empty(t, txs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LastPossiblePage", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM coin_transactions").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int32(3)))
		mock.ExpectQuery("LIMIT \\$1 OFFSET \\$2").
			WithArgs(int32(20), int64(math.MaxInt32-1)*20).
			WillReturnRows(sqlmock.NewRows(txColumns))

		txs, total, err := repo.ListAllTransactions(ctx, domain.TransactionFilter{}, math.MaxInt32, 20)
		require.NoError(t, err)
		assert.Equal(t, int32(3), total)
		assert.Empty(t, txs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_Reconcile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)

	mock.ExpectQuery("FROM coin_accounts a\\s+LEFT JOIN coin_transactions t").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "ledger_sum"}).AddRow(int32(4), int64(50), int64(40)))

	mismatches, err := repo.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.BalanceMismatch{{UserID: 4, Balance: 50, LedgerSum: 40}}, mismatches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_TakeSnapshots(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)

	mock.ExpectExec("INSERT INTO balance_snapshots").
		WithArgs("2026-10", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.TakeSnapshots(context.Background(), "2026-10")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
