package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListPackages(ctx context.Context) ([]domain.CoinPackage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, coins, bonus_coins, price_krw, active FROM coin_packages WHERE active = TRUE ORDER BY price_krw`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []domain.CoinPackage
	for rows.Next() {
		var p domain.CoinPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.Coins, &p.BonusCoins, &p.PriceKRW, &p.Active); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

func (r *paymentRepository) GetPackage(ctx context.Context, id int32) (*domain.CoinPackage, error) {
	p := &domain.CoinPackage{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, coins, bonus_coins, price_krw, active FROM coin_packages WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Coins, &p.BonusCoins, &p.PriceKRW, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) CreateOrder(ctx context.Context, o *domain.PaymentOrder) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = domain.PaymentStatusPending
	}
	query := `INSERT INTO payment_orders (merchant_uid, user_id, package_id, amount_krw, coins, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, o.MerchantUID, o.UserID, o.PackageID, o.AmountKRW, o.Coins, o.Status, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *paymentRepository) GetOrder(ctx context.Context, merchantUID string) (*domain.PaymentOrder, error) {
	o := &domain.PaymentOrder{}
	var paymentID sql.NullString
	var txID sql.NullInt32
	query := `SELECT merchant_uid, user_id, package_id, amount_krw, coins, status, payment_id, transaction_id, created_at, updated_at
	          FROM payment_orders WHERE merchant_uid = $1`
	err := r.db.QueryRowContext(ctx, query, merchantUID).Scan(
		&o.MerchantUID, &o.UserID, &o.PackageID, &o.AmountKRW, &o.Coins, &o.Status, &paymentID, &txID, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		o.PaymentID = &paymentID.String
	}
	if txID.Valid {
		o.TransactionID = &txID.Int32
	}
	return o, nil
}

func (r *paymentRepository) UpdateOrder(ctx context.Context, o *domain.PaymentOrder) error {
	o.UpdatedAt = time.Now().UTC()
	query := `UPDATE payment_orders SET status = $1, payment_id = $2, transaction_id = $3, updated_at = $4 WHERE merchant_uid = $5`
	res, err := r.db.ExecContext(ctx, query, o.Status, o.PaymentID, o.TransactionID, o.UpdatedAt, o.MerchantUID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `UPDATE payment_orders SET status = $1, updated_at = $2 WHERE status = $3 AND created_at < $4`
	logger.DatabaseCall("UPDATE", "payment_orders", "olderThan", olderThan)
	res, err := r.db.ExecContext(ctx, query, domain.PaymentStatusExpired, time.Now().UTC(), domain.PaymentStatusPending, olderThan)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err)
	return n, err
}

func (r *paymentRepository) PaidRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_krw), 0) FROM payment_orders WHERE status = $1`, domain.PaymentStatusPaid).Scan(&total)
	return total, err
}
