package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, name, role, external_uid, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	logger.EnterMethod("userRepository.Create", "email", u.Email)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("userRepository.Create", err)
		return err
	}
	defer tx.Rollback()

	if u.Role == "" {
		u.Role = domain.UserRoleUser
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `INSERT INTO users (email, password_hash, name, role, external_uid, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err = tx.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.Name, u.Role, u.ExternalUID, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrEmailTaken
		}
		logger.ExitMethodWithError("userRepository.Create", err)
		return err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO coin_accounts (user_id, balance, updated_at) VALUES ($1, 0, $2)`, u.ID, now); err != nil {
		logger.ExitMethodWithError("userRepository.Create", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("userRepository.Create", err)
		return err
	}
	logger.ExitMethod("userRepository.Create", "userID", u.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.getOne(ctx, query, email)
}

func (r *userRepository) GetByExternalUID(ctx context.Context, uid string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_uid = $1`
	return r.getOne(ctx, query, uid)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	u := &domain.User{}
	var externalUID sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &externalUID, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if externalUID.Valid {
		u.ExternalUID = &externalUID.String
	}
	return u, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count)
	return count, err
}
