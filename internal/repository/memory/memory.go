// Package memory is an in-process implementation of the repository
// interfaces. It backs local development and the concurrency tests.
package memory

import (
	"saju-backend/internal/domain"
	"saju-backend/internal/repository"
	"saju-backend/internal/utils"
)

type Store struct {
	repository.UserRepository
	repository.LedgerRepository
	repository.AnalysisRepository
	repository.PaymentRepository
}

// NewStore returns an empty store with the default catalog loaded.
func NewStore() *Store {
	ledger := NewLedgerRepository()
	return &Store{
		UserRepository:     NewUserRepository(ledger),
		LedgerRepository:   ledger,
		AnalysisRepository: NewAnalysisRepository(DefaultAnalysisTypes()),
		PaymentRepository:  NewPaymentRepository(DefaultPackages()),
	}
}

func DefaultAnalysisTypes() []domain.AnalysisType {
	return []domain.AnalysisType{
		{ID: 1, Code: "basic", Name: "기본 사주", Description: "타고난 기질과 오행 균형", PriceCoins: 10, Active: true},
		{ID: 2, Code: "yearly", Name: "올해의 운세", Description: "한 해의 흐름과 조언", PriceCoins: 20, Active: true},
		{ID: 3, Code: "love", Name: "연애운", Description: "인연과 궁합의 흐름", PriceCoins: 20, Active: true},
		{ID: 4, Code: "career", Name: "직업운", Description: "적성과 재물의 흐름", PriceCoins: 30, Active: true},
	}
}

func DefaultPackages() []domain.CoinPackage {
	return []domain.CoinPackage{
		{ID: 1, Name: "코인 50", Coins: 50, PriceKRW: 5000, Active: true},
		{ID: 2, Name: "코인 100", Coins: 100, BonusCoins: 10, PriceKRW: 9900, Active: true},
		{ID: 3, Name: "코인 300", Coins: 300, BonusCoins: 50, PriceKRW: 29000, Active: true},
	}
}

func paginate(n int, page, pageSize int32) (int, int) {
	offset := utils.Offset(page, pageSize)
	if pageSize < 1 || offset >= int64(n) {
		return n, n
	}
	start := int(offset)
	end := n
	if int64(n)-offset > int64(pageSize) {
		end = start + int(pageSize)
	}
	return start, end
}

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.LedgerRepository   = (*LedgerRepository)(nil)
	_ repository.AnalysisRepository = (*AnalysisRepository)(nil)
	_ repository.PaymentRepository  = (*PaymentRepository)(nil)
)
