package repository

import (
	"context"
	"time"

	"saju-backend/internal/domain"
)

type UserRepository interface {
	// Create inserts the user together with its zero-balance coin account.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByExternalUID(ctx context.Context, uid string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type LedgerRepository interface {
	// ApplyTransaction atomically moves the balance by req.Amount and appends
	// the transaction row. A replayed idempotency key returns the stored row
	// together with domain.ErrDuplicateTransaction.
	ApplyTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.CoinTransaction, error)
	GetBalance(ctx context.Context, userID int32) (int64, error)
	GetTransaction(ctx context.Context, id int32) (*domain.CoinTransaction, error)
	ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.CoinTransaction, int32, error)
	ListAllTransactions(ctx context.Context, filter domain.TransactionFilter, page, pageSize int32) ([]domain.CoinTransaction, int32, error)
	SumByType(ctx context.Context) (map[domain.TransactionType]int64, error)
	Reconcile(ctx context.Context) ([]domain.BalanceMismatch, error)
	TakeSnapshots(ctx context.Context, month string) (int64, error)
}

type AnalysisRepository interface {
	ListTypes(ctx context.Context) ([]domain.AnalysisType, error)
	GetTypeByCode(ctx context.Context, code string) (*domain.AnalysisType, error)
	Create(ctx context.Context, analysis *domain.Analysis) error
	GetByID(ctx context.Context, id int32) (*domain.Analysis, error)
	GetBySpendTransaction(ctx context.Context, txID int32) (*domain.Analysis, error)
	ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Analysis, int32, error)
	Count(ctx context.Context) (int64, error)
}

type PaymentRepository interface {
	ListPackages(ctx context.Context) ([]domain.CoinPackage, error)
	GetPackage(ctx context.Context, id int32) (*domain.CoinPackage, error)
	CreateOrder(ctx context.Context, order *domain.PaymentOrder) error
	GetOrder(ctx context.Context, merchantUID string) (*domain.PaymentOrder, error)
	UpdateOrder(ctx context.Context, order *domain.PaymentOrder) error
	ExpirePending(ctx context.Context, olderThan time.Time) (int64, error)
	PaidRevenue(ctx context.Context) (int64, error)
}
