package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"saju-backend/internal/logger"
	"saju-backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.LedgerRepository
	repository.AnalysisRepository
	repository.PaymentRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                 db,
		UserRepository:     NewUserRepository(db),
		LedgerRepository:   NewLedgerRepository(db),
		AnalysisRepository: NewAnalysisRepository(db),
		PaymentRepository:  NewPaymentRepository(db),
	}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Open connects with either lib/pq or the pgx stdlib driver and waits for the
// database to accept connections.
func Open(ctx context.Context, driver, dsn string, maxOpenConns, retries int) (*sql.DB, error) {
	var db *sql.DB
	switch driver {
	case "", DriverPQ:
		var err error
		db, err = sql.Open(DriverPQ, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	case DriverPGX:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		db = stdlib.OpenDB(*cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if retries < 1 {
		retries = 1
	}
	var err error
	for i := 0; i < retries; i++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		logger.Warn("Database not ready, retrying", "attempt", i+1, "max_attempts", retries, "error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	db.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", retries, err)
}
