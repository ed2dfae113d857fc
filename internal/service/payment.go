package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/metrics"
	"saju-backend/internal/notify"
	"saju-backend/internal/payment"
	"saju-backend/internal/repository"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	ledger      LedgerService
	verifier    payment.Verifier
	mailer      notify.Mailer
	metrics     *metrics.Metrics
}

// NewPaymentService credits coins only for payments the verifier confirms.
// mailer may be nil.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	ledger LedgerService,
	verifier payment.Verifier,
	mailer notify.Mailer,
	m *metrics.Metrics,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		verifier:    verifier,
		mailer:      mailer,
		metrics:     m,
	}
}

func (s *paymentService) ListPackages(ctx context.Context) ([]domain.CoinPackage, error) {
	return s.paymentRepo.ListPackages(ctx)
}

func (s *paymentService) Prepare(ctx context.Context, userID, packageID int32) (*domain.PaymentOrder, error) {
	logger.EnterMethod("paymentService.Prepare", "userID", userID, "packageID", packageID)

	pkg, err := s.paymentRepo.GetPackage(ctx, packageID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.Prepare", err)
		return nil, err
	}
	if !pkg.Active {
		logger.ExitMethodWithError("paymentService.Prepare", domain.ErrNotFound)
		return nil, domain.ErrNotFound
	}

	order := &domain.PaymentOrder{
		MerchantUID: "saju_" + uuid.NewString(),
		UserID:      userID,
		PackageID:   pkg.ID,
		AmountKRW:   pkg.PriceKRW,
		Coins:       pkg.TotalCoins(),
		Status:      domain.PaymentStatusPending,
	}
	if err := s.paymentRepo.CreateOrder(ctx, order); err != nil {
		logger.ExitMethodWithError("paymentService.Prepare", err)
		return nil, err
	}

	logger.ExitMethod("paymentService.Prepare", "merchantUID", order.MerchantUID)
	return order, nil
}

func (s *paymentService) Complete(ctx context.Context, userID int32, merchantUID, paymentID string) (*PaymentResult, error) {
	order, err := s.paymentRepo.GetOrder(ctx, merchantUID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return s.settle(ctx, order, paymentID)
}

func (s *paymentService) HandleWebhook(ctx context.Context, merchantUID, paymentID string) (*PaymentResult, error) {
	order, err := s.paymentRepo.GetOrder(ctx, merchantUID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, order, paymentID)
}

// settle verifies the payment with the PSP and credits the order's coins at
// most once. A transport failure leaves the order PENDING so the client or the
// PSP can retry.
func (s *paymentService) settle(ctx context.Context, order *domain.PaymentOrder, paymentID string) (*PaymentResult, error) {
	logger.EnterMethod("paymentService.settle", "merchantUID", order.MerchantUID, "paymentID", paymentID)

	if order.Status == domain.PaymentStatusPaid {
		s.metrics.RecordPaymentVerification("already_paid")
		logger.ExitMethod("paymentService.settle", "outcome", "already_paid")
		return &PaymentResult{Order: order, AlreadyProcessed: true}, nil
	}
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment_id is required", domain.ErrInvalidInput)
	}

	verified, err := s.verifier.Verify(ctx, paymentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			s.metrics.RecordPaymentVerification("not_found")
			s.markFailed(ctx, order, paymentID)
			err = fmt.Errorf("%w: %v", domain.ErrPaymentNotVerified, err)
		} else {
			s.metrics.RecordPaymentVerification("unavailable")
			err = fmt.Errorf("verify payment: %w", err)
		}
		logger.ExitMethodWithError("paymentService.settle", err)
		return nil, err
	}

	if reason := mismatch(order, verified); reason != "" {
		if verified.Status == "ready" {
			// Virtual account issued but not deposited yet.
			s.metrics.RecordPaymentVerification("not_paid")
		} else {
			s.metrics.RecordPaymentVerification("rejected")
			s.markFailed(ctx, order, paymentID)
		}
		logger.WarnContext(ctx, "Payment verification rejected",
			"merchantUID", order.MerchantUID, "paymentID", paymentID, "reason", reason)
		err := fmt.Errorf("%w: %s", domain.ErrPaymentNotVerified, reason)
		logger.ExitMethodWithError("paymentService.settle", err)
		return nil, err
	}

	creditKey := verified.PaymentID
	if creditKey == "" {
		creditKey = paymentID
	}
	tx, err := s.ledger.ApplyTransaction(ctx, domain.TransactionRequest{
		UserID:         order.UserID,
		Amount:         order.Coins,
		Type:           domain.TransactionTypeCharge,
		Description:    "코인 충전 " + order.MerchantUID,
		IdempotencyKey: creditKey,
	})
	alreadyProcessed := errors.Is(err, domain.ErrDuplicateTransaction)
	if err != nil && !alreadyProcessed {
		logger.ExitMethodWithError("paymentService.settle", err)
		return nil, err
	}

	order.Status = domain.PaymentStatusPaid
	order.PaymentID = &creditKey
	if tx != nil {
		order.TransactionID = &tx.ID
	}
	if err := s.paymentRepo.UpdateOrder(ctx, order); err != nil {
		// The credit is keyed by payment ID, so a retry only repairs the order.
		logger.ExitMethodWithError("paymentService.settle", err)
		return nil, err
	}

	s.metrics.RecordPaymentVerification("paid")
	if !alreadyProcessed {
		s.sendReceipt(ctx, order, tx)
	}
	logger.ExitMethod("paymentService.settle", "merchantUID", order.MerchantUID, "alreadyProcessed", alreadyProcessed)
	return &PaymentResult{Order: order, Transaction: tx, AlreadyProcessed: alreadyProcessed}, nil
}

func mismatch(order *domain.PaymentOrder, v *domain.VerifiedPayment) string {
	switch {
	case v.Status != domain.PSPStatusPaid:
		return "payment status is " + v.Status
	case v.Amount != order.AmountKRW:
		return fmt.Sprintf("amount %d does not match order amount %d", v.Amount, order.AmountKRW)
	case v.MerchantUID != order.MerchantUID:
		return "merchant uid does not match"
	}
	return ""
}

func (s *paymentService) markFailed(ctx context.Context, order *domain.PaymentOrder, paymentID string) {
	order.Status = domain.PaymentStatusFailed
	order.PaymentID = &paymentID
	if err := s.paymentRepo.UpdateOrder(ctx, order); err != nil {
		logger.ErrorContext(ctx, "Failed to mark payment order failed", "merchantUID", order.MerchantUID, "error", err)
	}
}

func (s *paymentService) sendReceipt(ctx context.Context, order *domain.PaymentOrder, tx *domain.CoinTransaction) {
	if s.mailer == nil || tx == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		logger.WarnContext(ctx, "Skipping receipt, user lookup failed", "userID", order.UserID, "error", err)
		return
	}
	err = s.mailer.SendChargeReceipt(ctx, notify.Receipt{
		Email:        user.Email,
		Name:         user.Name,
		MerchantUID:  order.MerchantUID,
		AmountKRW:    order.AmountKRW,
		Coins:        order.Coins,
		BalanceAfter: tx.BalanceAfter,
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to send charge receipt", "merchantUID", order.MerchantUID, "error", err)
	}
}
