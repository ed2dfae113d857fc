package jobs

import (
	"context"
	"fmt"

	"saju-backend/internal/logger"
	"saju-backend/internal/utils"
)

// ReconcileLedger compares every account balance with the sum of its
// transactions. Mismatches are logged individually; they are never repaired
// automatically.
func (jr *JobRunner) ReconcileLedger() error {
	return jr.runWithRecovery("ReconcileLedger", func(ctx context.Context) error {
		mismatches, err := jr.ledgerRepo.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("reconcile ledger: %w", err)
		}
		jr.metrics.SetLedgerMismatches(len(mismatches))

		for _, m := range mismatches {
			logger.Error("Ledger mismatch",
				"user_id", m.UserID,
				"balance", m.Balance,
				"ledger_sum", m.LedgerSum,
				"difference", m.Balance-m.LedgerSum)
		}
		if len(mismatches) == 0 {
			logger.Info("Ledger reconciled, no mismatches")
		}
		return nil
	})
}

// TakeBalanceSnapshots records each account's balance and ledger sum for the
// current month. Re-running in the same month is a no-op.
func (jr *JobRunner) TakeBalanceSnapshots() error {
	return jr.runWithRecovery("TakeBalanceSnapshots", func(ctx context.Context) error {
		month := utils.MonthKey(jr.now())
		n, err := jr.ledgerRepo.TakeSnapshots(ctx, month)
		if err != nil {
			return fmt.Errorf("take balance snapshots: %w", err)
		}
		logger.Info("Balance snapshots taken", "snapshot_month", month, "accounts", n)
		return nil
	})
}
