package service

import (
	"context"
	"fmt"
	"strings"

	"saju-backend/internal/cache"
	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/repository"
	"saju-backend/internal/utils"
)

type adminService struct {
	userRepo     repository.UserRepository
	ledgerRepo   repository.LedgerRepository
	analysisRepo repository.AnalysisRepository
	paymentRepo  repository.PaymentRepository
	ledger       LedgerService
	statsCache   cache.StatsCache
}

func NewAdminService(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	analysisRepo repository.AnalysisRepository,
	paymentRepo repository.PaymentRepository,
	ledger LedgerService,
	statsCache cache.StatsCache,
) AdminService {
	return &adminService{
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
		analysisRepo: analysisRepo,
		paymentRepo:  paymentRepo,
		ledger:       ledger,
		statsCache:   statsCache,
	}
}

func (s *adminService) ListTransactions(ctx context.Context, filter domain.TransactionFilter, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, filter.Type)
	}
	page, pageSize = utils.NormalizePage(page, pageSize, 0)
	return s.ledgerRepo.ListAllTransactions(ctx, filter, page, pageSize)
}

func (s *adminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	if s.statsCache != nil {
		if stats, ok := s.statsCache.Get(ctx); ok {
			return stats, nil
		}
	}

	stats := &domain.AdminStats{}
	var err error
	if stats.UserCount, err = s.userRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.AnalysisCount, err = s.analysisRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}
	if stats.PaidRevenueKRW, err = s.paymentRepo.PaidRevenue(ctx); err != nil {
		return nil, fmt.Errorf("sum paid revenue: %w", err)
	}
	sums, err := s.ledgerRepo.SumByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}
	stats.TotalCharged = sums[domain.TransactionTypeCharge]
	stats.TotalSpent = -sums[domain.TransactionTypeSpend]
	stats.TotalRefunded = sums[domain.TransactionTypeRefund]
	stats.OutstandingCoin = stats.TotalCharged - stats.TotalSpent + stats.TotalRefunded

	if s.statsCache != nil {
		s.statsCache.Set(ctx, stats)
	}
	return stats, nil
}

func (s *adminService) Refund(ctx context.Context, adminID, transactionID int32, reason string) (*domain.CoinTransaction, error) {
	logger.EnterMethod("adminService.Refund", "adminID", adminID, "transactionID", transactionID)

	// 1. Only spends can be refunded
	spend, err := s.ledgerRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		logger.ExitMethodWithError("adminService.Refund", err)
		return nil, err
	}
	if spend.Type != domain.TransactionTypeSpend {
		err := fmt.Errorf("%w: only spend transactions can be refunded", domain.ErrInvalidAmount)
		logger.ExitMethodWithError("adminService.Refund", err)
		return nil, err
	}

	// 2. Credit back; the key makes a second refund a duplicate
	tx, err := s.ledger.ApplyTransaction(ctx, domain.TransactionRequest{
		UserID:         spend.UserID,
		Amount:         -spend.Amount,
		Type:           domain.TransactionTypeRefund,
		Description:    describe("관리자 환불", reason),
		IdempotencyKey: RefundKey(spend.ID),
	})
	if err != nil {
		logger.ExitMethodWithError("adminService.Refund", err)
		return tx, err
	}

	logger.InfoContext(ctx, "Admin refunded transaction", "adminID", adminID, "transactionID", transactionID, "refundID", tx.ID)
	logger.ExitMethod("adminService.Refund", "refundID", tx.ID)
	return tx, nil
}

func (s *adminService) GrantCoins(ctx context.Context, adminID, userID int32, amount int64, reason string) (*domain.CoinTransaction, error) {
	logger.EnterMethod("adminService.GrantCoins", "adminID", adminID, "userID", userID, "amount", amount)

	if amount <= 0 {
		err := fmt.Errorf("%w: grant must be positive", domain.ErrInvalidAmount)
		logger.ExitMethodWithError("adminService.GrantCoins", err)
		return nil, err
	}
	tx, err := s.ledger.ApplyTransaction(ctx, domain.TransactionRequest{
		UserID:      userID,
		Amount:      amount,
		Type:        domain.TransactionTypeCharge,
		Description: describe("관리자 지급", reason),
	})
	if err != nil {
		logger.ExitMethodWithError("adminService.GrantCoins", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Admin granted coins", "adminID", adminID, "userID", userID, "amount", amount)
	logger.ExitMethod("adminService.GrantCoins", "transactionID", tx.ID)
	return tx, nil
}

func describe(prefix, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return prefix
	}
	return prefix + ": " + reason
}
