package service

import (
	"context"

	"saju-backend/internal/domain"
	"saju-backend/internal/security"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    int32
	Email     string
	Role      domain.UserRole
	TokenType security.TokenType
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.UserRoleAdmin
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, *AuthTokens, error)
	Login(ctx context.Context, email, password string) (*domain.User, *AuthTokens, error)
	RefreshToken(ctx context.Context, userID int32) (*AuthTokens, error)
	Logout(ctx context.Context, userID int32) error
	Me(ctx context.Context, userID int32) (*domain.User, int64, error)
	// Authenticate resolves a bearer token, provisioning the user on first
	// sight when an external identity provider is configured.
	Authenticate(ctx context.Context, bearer string) (*Principal, error)
}

type LedgerService interface {
	ApplyTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.CoinTransaction, error)
	GetBalance(ctx context.Context, userID int32) (int64, error)
	ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.CoinTransaction, int32, error)
}

type PreviewResult struct {
	Distribution   domain.ElementDistribution `json:"distribution"`
	Summary        domain.ElementSummary      `json:"summary"`
	UnknownSymbols []string                   `json:"unknown_symbols,omitempty"`
}

type AnalysisService interface {
	ListTypes(ctx context.Context) ([]domain.AnalysisType, error)
	Preview(ctx context.Context, chart domain.SajuChart) (*PreviewResult, error)
	// Create charges the analysis price and stores the generated reading. A
	// replayed requestKey returns the stored analysis with
	// domain.ErrDuplicateTransaction.
	Create(ctx context.Context, userID int32, typeCode string, chart domain.SajuChart, requestKey string) (*domain.Analysis, error)
	Get(ctx context.Context, userID, id int32) (*domain.Analysis, error)
	List(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Analysis, int32, error)
}

type PaymentResult struct {
	Order            *domain.PaymentOrder    `json:"order"`
	Transaction      *domain.CoinTransaction `json:"transaction,omitempty"`
	AlreadyProcessed bool                    `json:"already_processed"`
}

type PaymentService interface {
	ListPackages(ctx context.Context) ([]domain.CoinPackage, error)
	Prepare(ctx context.Context, userID, packageID int32) (*domain.PaymentOrder, error)
	Complete(ctx context.Context, userID int32, merchantUID, paymentID string) (*PaymentResult, error)
	HandleWebhook(ctx context.Context, merchantUID, paymentID string) (*PaymentResult, error)
}

type AdminService interface {
	ListTransactions(ctx context.Context, filter domain.TransactionFilter, page, pageSize int32) ([]domain.CoinTransaction, int32, error)
	Stats(ctx context.Context) (*domain.AdminStats, error)
	Refund(ctx context.Context, adminID, transactionID int32, reason string) (*domain.CoinTransaction, error)
	GrantCoins(ctx context.Context, adminID, userID int32, amount int64, reason string) (*domain.CoinTransaction, error)
}
