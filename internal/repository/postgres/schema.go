package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"saju-backend/internal/logger"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		name VARCHAR(100) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		external_uid VARCHAR(128) UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS coin_accounts (
		user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS analysis_types (
		id SERIAL PRIMARY KEY,
		code VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		description TEXT,
		price_coins BIGINT NOT NULL CHECK (price_coins >= 0),
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS coin_transactions (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES coin_accounts(user_id),
		amount BIGINT NOT NULL CHECK (amount <> 0),
		type VARCHAR(20) NOT NULL CHECK (type IN ('charge', 'spend', 'refund')),
		description TEXT,
		balance_after BIGINT NOT NULL CHECK (balance_after >= 0),
		idempotency_key VARCHAR(255) UNIQUE,
		related_analysis_id INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_coin_transactions_user ON coin_transactions(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS balance_snapshots (
		user_id INTEGER NOT NULL REFERENCES coin_accounts(user_id),
		balance BIGINT NOT NULL,
		ledger_sum BIGINT NOT NULL,
		snapshot_month VARCHAR(7) NOT NULL,
		taken_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, snapshot_month)
	);

	CREATE TABLE IF NOT EXISTS analyses (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		analysis_type_id INTEGER NOT NULL REFERENCES analysis_types(id),
		chart JSONB NOT NULL,
		distribution JSONB NOT NULL,
		primary_element VARCHAR(10) NOT NULL,
		secondary_element VARCHAR(10) NOT NULL,
		weak_element VARCHAR(10) NOT NULL,
		result_text TEXT NOT NULL,
		spend_transaction_id INTEGER NOT NULL UNIQUE REFERENCES coin_transactions(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_user ON analyses(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS coin_packages (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		coins BIGINT NOT NULL CHECK (coins > 0),
		bonus_coins BIGINT NOT NULL DEFAULT 0,
		price_krw BIGINT NOT NULL CHECK (price_krw > 0),
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS payment_orders (
		merchant_uid VARCHAR(64) PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		package_id INTEGER NOT NULL REFERENCES coin_packages(id),
		amount_krw BIGINT NOT NULL,
		coins BIGINT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		payment_id VARCHAR(128),
		transaction_id INTEGER REFERENCES coin_transactions(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_payment_orders_status ON payment_orders(status, created_at);
`

const seedSQL = `
	INSERT INTO analysis_types (code, name, description, price_coins) VALUES
		('basic', '기본 사주', '타고난 기질과 오행 균형', 10),
		('yearly', '올해의 운세', '한 해의 흐름과 조언', 20),
		('love', '연애운', '인연과 궁합의 흐름', 20),
		('career', '직업운', '적성과 재물의 흐름', 30)
	ON CONFLICT (code) DO NOTHING;

	INSERT INTO coin_packages (name, coins, bonus_coins, price_krw) VALUES
		('코인 50', 50, 0, 5000),
		('코인 100', 100, 10, 9900),
		('코인 300', 300, 50, 29000)
	ON CONFLICT (name) DO NOTHING;
`

// Migrate creates the schema and seeds the catalog. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying database schema")
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, seedSQL); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info("Database schema is up to date")
	return nil
}
