package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saju-backend/internal/config"
	"saju-backend/internal/jobs"
	"saju-backend/internal/repository/memory"
)

func runnerWith(sched config.SchedulerConfig) *jobs.JobRunner {
	cfg := &config.Config{Scheduler: sched}
	store := memory.NewStore()
	return jobs.NewJobRunner(store, store, cfg, nil)
}

func TestNewScheduler_RegistersAllJobs(t *testing.T) {
	s, err := NewScheduler(runnerWith(config.SchedulerConfig{
		ReconcileLedger:       "0 0 3 * * *",
		TakeBalanceSnapshots:  "0 5 0 1 * *",
		ExpirePendingPayments: "0 */10 * * * *",
	}))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(runnerWith(config.SchedulerConfig{
		ReconcileLedger:       "every night",
		TakeBalanceSnapshots:  "0 5 0 1 * *",
		ExpirePendingPayments: "0 */10 * * * *",
	}))
	assert.Error(t, err)
}
