package memory

import (
	"context"
	"sync"
	"time"

	"saju-backend/internal/domain"
)

type AnalysisRepository struct {
	mu       sync.RWMutex
	types    []domain.AnalysisType
	nextID   int32
	analyses []domain.Analysis
}

func NewAnalysisRepository(types []domain.AnalysisType) *AnalysisRepository {
	return &AnalysisRepository{types: types}
}

func (r *AnalysisRepository) ListTypes(ctx context.Context) ([]domain.AnalysisType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []domain.AnalysisType
	for _, t := range r.types {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (r *AnalysisRepository) GetTypeByCode(ctx context.Context, code string) (*domain.AnalysisType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.types {
		if t.Code == code {
			found := t
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t.ID == a.AnalysisTypeID {
			a.AnalysisTypeCode = t.Code
		}
	}
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now().UTC()
	r.analyses = append(r.analyses, *a)
	return nil
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id int32) (*domain.Analysis, error) {
	return r.find(func(a domain.Analysis) bool { return a.ID == id })
}

func (r *AnalysisRepository) GetBySpendTransaction(ctx context.Context, txID int32) (*domain.Analysis, error) {
	return r.find(func(a domain.Analysis) bool { return a.SpendTransactionID == txID })
}

func (r *AnalysisRepository) find(match func(domain.Analysis) bool) (*domain.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.analyses {
		if match(a) {
			found := a
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *AnalysisRepository) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Analysis, int32, error) {
	r.mu.RLock()
	var mine []domain.Analysis
	for i := len(r.analyses) - 1; i >= 0; i-- {
		if r.analyses[i].UserID == userID {
			mine = append(mine, r.analyses[i])
		}
	}
	r.mu.RUnlock()

	start, end := paginate(len(mine), page, pageSize)
	return mine[start:end], int32(len(mine)), nil
}

func (r *AnalysisRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.analyses)), nil
}
