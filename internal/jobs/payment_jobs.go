package jobs

import (
	"context"
	"fmt"

	"saju-backend/internal/logger"
)

// ExpirePendingPayments marks orders that stayed PENDING longer than the
// configured TTL as EXPIRED. Expired orders can still be settled if the PSP
// later reports them paid.
func (jr *JobRunner) ExpirePendingPayments() error {
	return jr.runWithRecovery("ExpirePendingPayments", func(ctx context.Context) error {
		cutoff := jr.now().Add(-jr.config.PendingPaymentTTL())
		n, err := jr.paymentRepo.ExpirePending(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("expire pending payments: %w", err)
		}
		if n > 0 {
			logger.Info("Expired pending payment orders", "count", n, "cutoff", cutoff)
		}
		return nil
	})
}
