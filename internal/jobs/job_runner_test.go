package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saju-backend/internal/config"
	"saju-backend/internal/domain"
	"saju-backend/internal/metrics"
	"saju-backend/internal/repository/memory"
)

func newRunner(t *testing.T) (*JobRunner, *memory.Store) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Payment.PendingTTLMinutes = 30
	store := memory.NewStore()
	return NewJobRunner(store, store, cfg, nil), store
}

func TestRunWithRecovery(t *testing.T) {
	jr, _ := newRunner(t)

	err := jr.runWithRecovery("panics", func(ctx context.Context) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "boom")

	err = jr.runWithRecovery("fails", func(ctx context.Context) error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")

	assert.NoError(t, jr.runWithRecovery("ok", func(ctx context.Context) error { return nil }))
}

func TestReconcileLedger_PublishesMismatchGauge(t *testing.T) {
	jr, store := newRunner(t)
	m := metrics.New()
	jr.metrics = m

	u := &domain.User{Email: "recon@example.com"}
	require.NoError(t, store.UserRepository.Create(context.Background(), u))
	_, err := store.ApplyTransaction(context.Background(), domain.TransactionRequest{
		UserID: u.ID, Amount: 10, Type: domain.TransactionTypeCharge,
	})
	require.NoError(t, err)

	m.SetLedgerMismatches(5)
	require.NoError(t, jr.ReconcileLedger())

	expected := `
# HELP saju_ledger_reconciliation_mismatches Accounts whose balance differed from the ledger sum at the last reconciliation.
# TYPE saju_ledger_reconciliation_mismatches gauge
saju_ledger_reconciliation_mismatches 0
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "saju_ledger_reconciliation_mismatches"))
}

func TestTakeBalanceSnapshots_OncePerMonth(t *testing.T) {
	jr, store := newRunner(t)
	jr.now = func() time.Time { return time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC) }

	u := &domain.User{Email: "snap@example.com"}
	require.NoError(t, store.UserRepository.Create(context.Background(), u))

	require.NoError(t, jr.TakeBalanceSnapshots())
	n, err := store.TakeSnapshots(context.Background(), "2026-03")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestExpirePendingPayments(t *testing.T) {
	jr, store := newRunner(t)
	ctx := context.Background()

	order := &domain.PaymentOrder{MerchantUID: "m-1", UserID: 1, PackageID: 1, AmountKRW: 5000, Coins: 50, Status: domain.PaymentStatusPending}
	require.NoError(t, store.CreateOrder(ctx, order))

	require.NoError(t, jr.ExpirePendingPayments())
	got, err := store.GetOrder(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)

	jr.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, jr.ExpirePendingPayments())
	got, err = store.GetOrder(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusExpired, got.Status)
}

func TestJobsTable(t *testing.T) {
	jr, _ := newRunner(t)
	names := jr.Jobs()
	assert.Len(t, names, 3)
	for name, run := range names {
		assert.NoError(t, run(), name)
	}
}
