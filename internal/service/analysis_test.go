package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"saju-backend/internal/domain"
	"saju-backend/internal/repository/memory"
	"saju-backend/internal/service"
)

func sampleChart() domain.SajuChart {
	return domain.SajuChart{
		Year:  &domain.Pillar{Stem: "甲", Branch: "子"},
		Month: &domain.Pillar{Stem: "丙", Branch: "寅"},
		Day:   &domain.Pillar{Stem: "戊", Branch: "午"},
	}
}

func newAnalysisService(store *memory.Store, gen *MockGenerator) service.AnalysisService {
	ledger := service.NewLedgerService(store, nil, nil)
	return service.NewAnalysisService(store.AnalysisRepository, ledger, gen, nil)
}

func TestAnalysisService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := memory.NewStore()
		gen := new(MockGenerator)
		svc := newAnalysisService(store, gen)
		userID := seedUser(t, store, 50)

		gen.On("Generate", ctx, mock.Anything).Return("좋은 운세입니다.", nil).Once()

		a, err := svc.Create(ctx, userID, "basic", sampleChart(), "req-1")
		require.NoError(t, err)
		assert.Equal(t, "좋은 운세입니다.", a.ResultText)
		assert.Equal(t, "basic", a.AnalysisTypeCode)
		assert.Equal(t, 2, a.Distribution[domain.ElementWood])

		balance, _ := store.GetBalance(ctx, userID)
		assert.Equal(t, int64(40), balance)
		gen.AssertExpectations(t)
	})

	t.Run("Replay returns stored analysis without charging twice", func(t *testing.T) {
		store := memory.NewStore()
		gen := new(MockGenerator)
		svc := newAnalysisService(store, gen)
		userID := seedUser(t, store, 50)

		gen.On("Generate", ctx, mock.Anything).Return("text", nil).Once()

		first, err := svc.Create(ctx, userID, "basic", sampleChart(), "req-1")
		require.NoError(t, err)
		second, err := svc.Create(ctx, userID, "basic", sampleChart(), "req-1")
		assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)
		require.NotNil(t, second)
		assert.Equal(t, first.ID, second.ID)

		balance, _ := store.GetBalance(ctx, userID)
		assert.Equal(t, int64(40), balance)
		gen.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("Insufficient balance", func(t *testing.T) {
		store := memory.NewStore()
		gen := new(MockGenerator)
		svc := newAnalysisService(store, gen)
		userID := seedUser(t, store, 5)

		a, err := svc.Create(ctx, userID, "basic", sampleChart(), "")
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.Nil(t, a)
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("Generation failure refunds", func(t *testing.T) {
		store := memory.NewStore()
		gen := new(MockGenerator)
		svc := newAnalysisService(store, gen)
		userID := seedUser(t, store, 50)

		gen.On("Generate", ctx, mock.Anything).Return("", errors.New("model unavailable")).Once()

		_, err := svc.Create(ctx, userID, "career", sampleChart(), "req-9")
		require.Error(t, err)

		balance, _ := store.GetBalance(ctx, userID)
		assert.Equal(t, int64(50), balance)

		txs, total, err := store.ListTransactions(ctx, userID, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int32(3), total)
		assert.Equal(t, domain.TransactionTypeRefund, txs[0].Type)
		assert.Equal(t, int64(30), txs[0].Amount)
		require.NotNil(t, txs[0].IdempotencyKey)
		assert.Equal(t, service.RefundKey(txs[1].ID), *txs[0].IdempotencyKey)
	})

	t.Run("Unknown type", func(t *testing.T) {
		store := memory.NewStore()
		svc := newAnalysisService(store, new(MockGenerator))
		userID := seedUser(t, store, 50)

		_, err := svc.Create(ctx, userID, "nope", sampleChart(), "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Empty chart", func(t *testing.T) {
		store := memory.NewStore()
		svc := newAnalysisService(store, new(MockGenerator))
		userID := seedUser(t, store, 50)

		_, err := svc.Create(ctx, userID, "basic", domain.SajuChart{}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidChartInput)
		balance, _ := store.GetBalance(ctx, userID)
		assert.Equal(t, int64(50), balance)
	})
}

func TestAnalysisService_GetIsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	gen := new(MockGenerator)
	svc := newAnalysisService(store, gen)
	owner := seedUser(t, store, 50)
	other := seedUser(t, store, 0)

	gen.On("Generate", ctx, mock.Anything).Return("text", nil)
	a, err := svc.Create(ctx, owner, "basic", sampleChart(), "")
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.Get(ctx, other, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, total, err := svc.List(ctx, owner, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Len(t, list, 1)
}

func TestAnalysisService_Preview(t *testing.T) {
	svc := newAnalysisService(memory.NewStore(), new(MockGenerator))
	chart := sampleChart()
	chart.Hour = &domain.Pillar{Stem: "X", Branch: "亥"}

	res, err := svc.Preview(context.Background(), chart)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Distribution.Total())
	assert.Equal(t, []string{"hour.stem=X"}, res.UnknownSymbols)

	_, err = svc.Preview(context.Background(), domain.SajuChart{})
	assert.ErrorIs(t, err, domain.ErrInvalidChartInput)
}
