package service

import (
	"context"
	"errors"
	"fmt"

	"saju-backend/internal/cache"
	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/metrics"
	"saju-backend/internal/repository"
	"saju-backend/internal/utils"
)

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
	statsCache cache.StatsCache
	metrics    *metrics.Metrics
}

// NewLedgerService wraps the repository with sign validation. statsCache and
// m may be nil.
func NewLedgerService(ledgerRepo repository.LedgerRepository, statsCache cache.StatsCache, m *metrics.Metrics) LedgerService {
	return &ledgerService{ledgerRepo: ledgerRepo, statsCache: statsCache, metrics: m}
}

func validateAmount(t domain.TransactionType, amount int64) error {
	switch {
	case !t.Valid():
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidAmount, t)
	case amount == 0:
		return fmt.Errorf("%w: amount must not be zero", domain.ErrInvalidAmount)
	case t == domain.TransactionTypeSpend && amount > 0:
		return fmt.Errorf("%w: spend must be negative", domain.ErrInvalidAmount)
	case t != domain.TransactionTypeSpend && amount < 0:
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidAmount, t)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return "key_conflict"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "error"
	}
}

func (s *ledgerService) ApplyTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.CoinTransaction, error) {
	logger.EnterMethod("ledgerService.ApplyTransaction", "userID", req.UserID, "amount", req.Amount, "type", req.Type)

	if err := validateAmount(req.Type, req.Amount); err != nil {
		s.metrics.RecordLedgerTransaction(string(req.Type), outcomeOf(err))
		logger.ExitMethodWithError("ledgerService.ApplyTransaction", err)
		return nil, err
	}

	tx, err := s.ledgerRepo.ApplyTransaction(ctx, req)
	s.metrics.RecordLedgerTransaction(string(req.Type), outcomeOf(err))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateTransaction) || errors.Is(err, domain.ErrInsufficientBalance) {
			logger.InfoContext(ctx, "Ledger transaction not applied", "userID", req.UserID, "type", req.Type, "reason", err.Error())
			logger.ExitMethod("ledgerService.ApplyTransaction", "outcome", outcomeOf(err))
			return tx, err
		}
		logger.ExitMethodWithError("ledgerService.ApplyTransaction", err)
		return nil, err
	}

	if s.statsCache != nil {
		s.statsCache.Invalidate(ctx)
	}
	logger.ExitMethod("ledgerService.ApplyTransaction", "transactionID", tx.ID, "balanceAfter", tx.BalanceAfter)
	return tx, nil
}

func (s *ledgerService) GetBalance(ctx context.Context, userID int32) (int64, error) {
	return s.ledgerRepo.GetBalance(ctx, userID)
}

func (s *ledgerService) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.CoinTransaction, int32, error) {
	page, pageSize = utils.NormalizePage(page, pageSize, 0)
	return s.ledgerRepo.ListTransactions(ctx, userID, page, pageSize)
}
