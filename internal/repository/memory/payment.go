package memory

import (
	"context"
	"sync"
	"time"

	"saju-backend/internal/domain"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	packages []domain.CoinPackage
	orders   map[string]domain.PaymentOrder
}

func NewPaymentRepository(packages []domain.CoinPackage) *PaymentRepository {
	return &PaymentRepository{packages: packages, orders: make(map[string]domain.PaymentOrder)}
}

func (r *PaymentRepository) ListPackages(ctx context.Context) ([]domain.CoinPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []domain.CoinPackage
	for _, p := range r.packages {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

func (r *PaymentRepository) GetPackage(ctx context.Context, id int32) (*domain.CoinPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.packages {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *PaymentRepository) CreateOrder(ctx context.Context, o *domain.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = domain.PaymentStatusPending
	}
	r.orders[o.MerchantUID] = *o
	return nil
}

func (r *PaymentRepository) GetOrder(ctx context.Context, merchantUID string) (*domain.PaymentOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[merchantUID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r *PaymentRepository) UpdateOrder(ctx context.Context, o *domain.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.MerchantUID]
	if !ok {
		return domain.ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	stored.Status = o.Status
	stored.PaymentID = o.PaymentID
	stored.TransactionID = o.TransactionID
	stored.UpdatedAt = o.UpdatedAt
	r.orders[o.MerchantUID] = stored
	return nil
}

func (r *PaymentRepository) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for uid, o := range r.orders {
		if o.Status == domain.PaymentStatusPending && o.CreatedAt.Before(olderThan) {
			o.Status = domain.PaymentStatusExpired
			o.UpdatedAt = time.Now().UTC()
			r.orders[uid] = o
			n++
		}
	}
	return n, nil
}

func (r *PaymentRepository) PaidRevenue(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, o := range r.orders {
		if o.Status == domain.PaymentStatusPaid {
			total += o.AmountKRW
		}
	}
	return total, nil
}
