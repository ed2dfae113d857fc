package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"saju-backend/internal/domain"
	"saju-backend/internal/elements"
	"saju-backend/internal/fortune"
	"saju-backend/internal/logger"
	"saju-backend/internal/metrics"
	"saju-backend/internal/repository"
	"saju-backend/internal/utils"
)

type analysisService struct {
	analysisRepo repository.AnalysisRepository
	ledger       LedgerService
	generator    fortune.Generator
	metrics      *metrics.Metrics
}

func NewAnalysisService(analysisRepo repository.AnalysisRepository, ledger LedgerService, generator fortune.Generator, m *metrics.Metrics) AnalysisService {
	return &analysisService{
		analysisRepo: analysisRepo,
		ledger:       ledger,
		generator:    generator,
		metrics:      m,
	}
}

func (s *analysisService) ListTypes(ctx context.Context) ([]domain.AnalysisType, error) {
	return s.analysisRepo.ListTypes(ctx)
}

func (s *analysisService) Preview(ctx context.Context, chart domain.SajuChart) (*PreviewResult, error) {
	if len(chart.Pillars()) == 0 {
		return nil, fmt.Errorf("%w: chart has no pillars", domain.ErrInvalidChartInput)
	}
	dist, summary := elements.Analyze(chart)
	return &PreviewResult{
		Distribution:   dist,
		Summary:        summary,
		UnknownSymbols: elements.UnknownSymbols(chart),
	}, nil
}

func spendKey(userID int32, requestKey string) string {
	if requestKey == "" {
		return ""
	}
	return fmt.Sprintf("analysis:%d:%s", userID, requestKey)
}

// RefundKey is shared by every path that refunds a spend, so a spend can be
// refunded at most once.
func RefundKey(spendTxID int32) string {
	return "refund:" + strconv.Itoa(int(spendTxID))
}

func (s *analysisService) Create(ctx context.Context, userID int32, typeCode string, chart domain.SajuChart, requestKey string) (*domain.Analysis, error) {
	logger.EnterMethod("analysisService.Create", "userID", userID, "type", typeCode)

	analysis, err := s.create(ctx, userID, typeCode, chart, requestKey)
	s.metrics.RecordAnalysis(typeCode, outcomeOf(err))
	if err != nil && !errors.Is(err, domain.ErrDuplicateTransaction) {
		logger.ExitMethodWithError("analysisService.Create", err)
		return nil, err
	}
	if analysis != nil {
		logger.ExitMethod("analysisService.Create", "analysisID", analysis.ID)
	}
	return analysis, err
}

func (s *analysisService) create(ctx context.Context, userID int32, typeCode string, chart domain.SajuChart, requestKey string) (*domain.Analysis, error) {
	if len(chart.Pillars()) == 0 {
		return nil, fmt.Errorf("%w: chart has no pillars", domain.ErrInvalidChartInput)
	}

	analysisType, err := s.analysisRepo.GetTypeByCode(ctx, typeCode)
	if err != nil {
		return nil, err
	}
	if !analysisType.Active {
		return nil, domain.ErrNotFound
	}

	if unknown := elements.UnknownSymbols(chart); len(unknown) > 0 {
		logger.WarnContext(ctx, "Chart contains unknown symbols", "userID", userID, "symbols", unknown)
	}
	dist, summary := elements.Analyze(chart)

	spend, err := s.ledger.ApplyTransaction(ctx, domain.TransactionRequest{
		UserID:         userID,
		Amount:         -analysisType.PriceCoins,
		Type:           domain.TransactionTypeSpend,
		Description:    analysisType.Name,
		IdempotencyKey: spendKey(userID, requestKey),
	})
	if errors.Is(err, domain.ErrDuplicateTransaction) {
		if spend == nil {
			return nil, err
		}
		existing, lookupErr := s.analysisRepo.GetBySpendTransaction(ctx, spend.ID)
		if lookupErr != nil {
			// The first request is still generating, or it failed and was
			// refunded.
			return nil, err
		}
		return existing, err
	}
	if err != nil {
		return nil, err
	}

	text, err := s.generator.Generate(ctx, fortune.Request{
		Type:         *analysisType,
		Chart:        chart,
		Distribution: dist,
		Summary:      summary,
	})
	if err != nil {
		s.refund(ctx, spend, "analysis generation failed")
		return nil, fmt.Errorf("generate fortune: %w", err)
	}

	analysis := &domain.Analysis{
		UserID:             userID,
		AnalysisTypeID:     analysisType.ID,
		AnalysisTypeCode:   analysisType.Code,
		Chart:              chart,
		Distribution:       dist,
		Summary:            summary,
		ResultText:         text,
		SpendTransactionID: spend.ID,
	}
	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		s.refund(ctx, spend, "analysis could not be saved")
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return analysis, nil
}

func (s *analysisService) refund(ctx context.Context, spend *domain.CoinTransaction, reason string) {
	_, err := s.ledger.ApplyTransaction(ctx, domain.TransactionRequest{
		UserID:         spend.UserID,
		Amount:         -spend.Amount,
		Type:           domain.TransactionTypeRefund,
		Description:    reason,
		IdempotencyKey: RefundKey(spend.ID),
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateTransaction) {
		logger.ErrorContext(ctx, "Refund after failed analysis did not apply",
			"userID", spend.UserID, "spendTransactionID", spend.ID, "error", err)
		return
	}
	logger.InfoContext(ctx, "Refunded analysis spend", "userID", spend.UserID, "spendTransactionID", spend.ID, "reason", reason)
}

func (s *analysisService) Get(ctx context.Context, userID, id int32) (*domain.Analysis, error) {
	analysis, err := s.analysisRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Someone else's analysis is reported as missing.
	if analysis.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return analysis, nil
}

func (s *analysisService) List(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Analysis, int32, error) {
	page, pageSize = utils.NormalizePage(page, pageSize, 0)
	return s.analysisRepo.ListByUser(ctx, userID, page, pageSize)
}
