package domain

import "time"

type TransactionType string

const (
	TransactionTypeCharge TransactionType = "charge"
	TransactionTypeSpend  TransactionType = "spend"
	TransactionTypeRefund TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeCharge, TransactionTypeSpend, TransactionTypeRefund:
		return true
	}
	return false
}

// CoinAccount holds the authoritative balance for a user. It only changes
// through the ledger's apply operation.
type CoinAccount struct {
	UserID    int32     `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CoinTransaction is an append-only ledger row.
type CoinTransaction struct {
	ID                int32           `json:"id"`
	UserID            int32           `json:"user_id"`
	Amount            int64           `json:"amount"` // positive for credit, negative for debit
	Type              TransactionType `json:"type"`
	Description       string          `json:"description"`
	BalanceAfter      int64           `json:"balance_after"`
	IdempotencyKey    *string         `json:"idempotency_key,omitempty"`
	RelatedAnalysisID *int32          `json:"related_analysis_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TransactionRequest describes a single ledger mutation.
type TransactionRequest struct {
	UserID            int32
	Amount            int64
	Type              TransactionType
	Description       string
	IdempotencyKey    string
	RelatedAnalysisID *int32
}

// TransactionFilter narrows the admin transaction listing.
type TransactionFilter struct {
	UserID *int32
	Type   TransactionType
}

// BalanceMismatch is reported by reconciliation when an account balance
// differs from the sum of its transactions.
type BalanceMismatch struct {
	UserID    int32 `json:"user_id"`
	Balance   int64 `json:"balance"`
	LedgerSum int64 `json:"ledger_sum"`
}
