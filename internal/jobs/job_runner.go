package jobs

import (
	"context"
	"fmt"
	"time"

	"saju-backend/internal/config"
	"saju-backend/internal/logger"
	"saju-backend/internal/metrics"
	"saju-backend/internal/repository"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	ledgerRepo  repository.LedgerRepository
	paymentRepo repository.PaymentRepository
	config      *config.Config
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewJobRunner creates a new job runner. m may be nil.
func NewJobRunner(ledgerRepo repository.LedgerRepository, paymentRepo repository.PaymentRepository, cfg *config.Config, m *metrics.Metrics) *JobRunner {
	return &JobRunner{
		ledgerRepo:  ledgerRepo,
		paymentRepo: paymentRepo,
		config:      cfg,
		metrics:     m,
		now:         time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and reports the
// outcome to metrics.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		jr.metrics.RecordJobRun(jobName, err == nil)
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	if err = jobFunc(context.Background()); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// RunAll runs every job once, in the order a nightly run would (for manual
// execution).
func (jr *JobRunner) RunAll() {
	jr.ExpirePendingPayments()
	jr.ReconcileLedger()
	jr.TakeBalanceSnapshots()
}

// Jobs maps the names accepted by -run-once to their functions.
func (jr *JobRunner) Jobs() map[string]func() error {
	return map[string]func() error{
		"reconcile-ledger":        jr.ReconcileLedger,
		"take-balance-snapshots":  jr.TakeBalanceSnapshots,
		"expire-pending-payments": jr.ExpirePendingPayments,
	}
}
