package domain

import "time"

type CoinPackage struct {
	ID         int32  `json:"id"`
	Name       string `json:"name"`
	Coins      int64  `json:"coins"`
	BonusCoins int64  `json:"bonus_coins"`
	PriceKRW   int64  `json:"price_krw"`
	Active     bool   `json:"active"`
}

// TotalCoins is what the buyer is credited.
func (p *CoinPackage) TotalCoins() int64 {
	return p.Coins + p.BonusCoins
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

type PaymentOrder struct {
	MerchantUID   string        `json:"merchant_uid"`
	UserID        int32         `json:"user_id"`
	PackageID     int32         `json:"package_id"`
	AmountKRW     int64         `json:"amount_krw"`
	Coins         int64         `json:"coins"`
	Status        PaymentStatus `json:"status"`
	PaymentID     *string       `json:"payment_id,omitempty"`
	TransactionID *int32        `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// VerifiedPayment is the PSP's view of a payment.
type VerifiedPayment struct {
	PaymentID   string
	MerchantUID string
	Amount      int64
	Status      string
}

const PSPStatusPaid = "paid"

type AdminStats struct {
	UserCount       int64 `json:"user_count"`
	TotalCharged    int64 `json:"total_charged"`
	TotalSpent      int64 `json:"total_spent"`
	TotalRefunded   int64 `json:"total_refunded"`
	AnalysisCount   int64 `json:"analysis_count"`
	PaidRevenueKRW  int64 `json:"paid_revenue_krw"`
	OutstandingCoin int64 `json:"outstanding_coins"`
}
