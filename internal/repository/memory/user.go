package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"saju-backend/internal/domain"
)

type UserRepository struct {
	mu     sync.RWMutex
	nextID int32
	byID   map[int32]domain.User
	ledger *LedgerRepository
}

// NewUserRepository opens coin accounts on ledger as users are created.
func NewUserRepository(ledger *LedgerRepository) *UserRepository {
	return &UserRepository{byID: make(map[int32]domain.User), ledger: ledger}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailTaken
		}
		if u.ExternalUID != nil && existing.ExternalUID != nil && *existing.ExternalUID == *u.ExternalUID {
			return domain.ErrEmailTaken
		}
	}

	if u.Role == "" {
		u.Role = domain.UserRoleUser
	}
	now := time.Now().UTC()
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.byID[u.ID] = *u
	r.ledger.OpenAccount(u.ID)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetByExternalUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ExternalUID != nil && *u.ExternalUID == uid })
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
