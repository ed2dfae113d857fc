package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/repository"
	"saju-backend/internal/utils"
)

type analysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) repository.AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) ListTypes(ctx context.Context) ([]domain.AnalysisType, error) {
	query := `SELECT id, code, name, COALESCE(description, ''), price_coins, active
	          FROM analysis_types WHERE active = TRUE ORDER BY price_coins, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []domain.AnalysisType
	for rows.Next() {
		var t domain.AnalysisType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Description, &t.PriceCoins, &t.Active); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *analysisRepository) GetTypeByCode(ctx context.Context, code string) (*domain.AnalysisType, error) {
	t := &domain.AnalysisType{}
	query := `SELECT id, code, name, COALESCE(description, ''), price_coins, active FROM analysis_types WHERE code = $1`
	err := r.db.QueryRowContext(ctx, query, code).Scan(&t.ID, &t.Code, &t.Name, &t.Description, &t.PriceCoins, &t.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *analysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	logger.EnterMethod("analysisRepository.Create", "userID", a.UserID, "spendTransactionID", a.SpendTransactionID)

	chart, err := json.Marshal(a.Chart)
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	distribution, err := json.Marshal(a.Distribution)
	if err != nil {
		return fmt.Errorf("encode distribution: %w", err)
	}

	a.CreatedAt = time.Now().UTC()
	query := `INSERT INTO analyses (user_id, analysis_type_id, chart, distribution, primary_element, secondary_element, weak_element, result_text, spend_transaction_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err = r.db.QueryRowContext(ctx, query,
		a.UserID, a.AnalysisTypeID, chart, distribution,
		a.Summary.Primary, a.Summary.Secondary, a.Summary.Weakness,
		a.ResultText, a.SpendTransactionID, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		logger.ExitMethodWithError("analysisRepository.Create", err)
		return err
	}
	logger.ExitMethod("analysisRepository.Create", "analysisID", a.ID)
	return nil
}

const analysisSelect = `SELECT a.id, a.user_id, a.analysis_type_id, t.code, a.chart, a.distribution,
	a.primary_element, a.secondary_element, a.weak_element, a.result_text, a.spend_transaction_id, a.created_at
	FROM analyses a JOIN analysis_types t ON t.id = a.analysis_type_id`

func scanAnalysis(s rowScanner) (*domain.Analysis, error) {
	a := &domain.Analysis{}
	var chart, distribution []byte
	err := s.Scan(&a.ID, &a.UserID, &a.AnalysisTypeID, &a.AnalysisTypeCode, &chart, &distribution,
		&a.Summary.Primary, &a.Summary.Secondary, &a.Summary.Weakness, &a.ResultText, &a.SpendTransactionID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chart, &a.Chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if err := json.Unmarshal(distribution, &a.Distribution); err != nil {
		return nil, fmt.Errorf("decode distribution: %w", err)
	}
	return a, nil
}

func (r *analysisRepository) GetByID(ctx context.Context, id int32) (*domain.Analysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, analysisSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *analysisRepository) GetBySpendTransaction(ctx context.Context, txID int32) (*domain.Analysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, analysisSelect+` WHERE a.spend_transaction_id = $1`, txID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *analysisRepository) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Analysis, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM analyses WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := utils.Offset(page, pageSize)
	rows, err := r.db.QueryContext(ctx, analysisSelect+` WHERE a.user_id = $1 ORDER BY a.id DESC LIMIT $2 OFFSET $3`,
		userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	analyses := []domain.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, 0, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, count, rows.Err()
}

func (r *analysisRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM analyses`).Scan(&count)
	return count, err
}
