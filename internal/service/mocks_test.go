package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"saju-backend/internal/domain"
	"saju-backend/internal/fortune"
	"saju-backend/internal/notify"
	"saju-backend/internal/security"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByExternalUID(ctx context.Context, uid string) (*domain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedgerRepo
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) ApplyTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.CoinTransaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CoinTransaction), args.Error(1)
}
func (m *MockLedgerRepo) GetBalance(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockLedgerRepo) GetTransaction(ctx context.Context, id int32) (*domain.CoinTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CoinTransaction), args.Error(1)
}
func (m *MockLedgerRepo) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.CoinTransaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockLedgerRepo) ListAllTransactions(ctx context.Context, filter domain.TransactionFilter, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.CoinTransaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockLedgerRepo) SumByType(ctx context.Context) (map[domain.TransactionType]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[domain.TransactionType]int64), args.Error(1)
}
func (m *MockLedgerRepo) Reconcile(ctx context.Context) ([]domain.BalanceMismatch, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.BalanceMismatch), args.Error(1)
}
func (m *MockLedgerRepo) TakeSnapshots(ctx context.Context, month string) (int64, error) {
	args := m.Called(ctx, month)
	return args.Get(0).(int64), args.Error(1)
}

// MockIdentityVerifier
type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) VerifyIDToken(ctx context.Context, idToken string) (*security.Identity, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.Identity), args.Error(1)
}

// MockGenerator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req fortune.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, paymentID string) (*domain.VerifiedPayment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerifiedPayment), args.Error(1)
}

// MockMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendChargeReceipt(ctx context.Context, r notify.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockStatsCache
type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context) (*domain.AdminStats, bool) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.AdminStats), args.Bool(1)
}
func (m *MockStatsCache) Set(ctx context.Context, stats *domain.AdminStats) {
	m.Called(ctx, stats)
}
func (m *MockStatsCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}
