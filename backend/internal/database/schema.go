package database

import "context"

// Schema is applied at startup. Idempotent: every statement is
// IF NOT EXISTS. CHECK constraints back the non-negativity invariant as
// a last line of defense behind the conditional updates.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		username      text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		role          text NOT NULL DEFAULT 'user',
		created_at    timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id           uuid PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		balance           double precision NOT NULL DEFAULT 0 CHECK (balance >= 0),
		demo_balance      double precision NOT NULL DEFAULT 0 CHECK (demo_balance >= 0),
		earned_total      double precision NOT NULL DEFAULT 0 CHECK (earned_total >= 0),
		total_deposit     double precision NOT NULL DEFAULT 0,
		manual_asset_mode boolean NOT NULL DEFAULT false,
		updated_at        timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS asset_holdings (
		user_id             uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		symbol              text NOT NULL,
		balance             double precision NOT NULL DEFAULT 0 CHECK (balance >= 0),
		manual_balance      double precision NOT NULL DEFAULT 0 CHECK (manual_balance >= 0),
		manual_fiat_balance double precision NOT NULL DEFAULT 0 CHECK (manual_fiat_balance >= 0),
		updated_at          timestamptz NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, symbol)
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id        uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		symbol         text NOT NULL,
		trading_mode   text NOT NULL,
		amount         double precision NOT NULL CHECK (amount > 0),
		profit_or_loss double precision NOT NULL DEFAULT 0,
		status         text NOT NULL DEFAULT 'open',
		trade_from     text NOT NULL DEFAULT 'user',
		processed      boolean NOT NULL DEFAULT false,
		expire_seconds bigint NOT NULL DEFAULT 0,
		created_at     timestamptz NOT NULL DEFAULT NOW(),
		updated_at     timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_user ON trades (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id        uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount         double precision NOT NULL CHECK (amount > 0),
		earned_debited double precision NOT NULL DEFAULT 0,
		method         text NOT NULL,
		address        text NOT NULL DEFAULT '',
		status         text NOT NULL DEFAULT 'pending',
		created_at     timestamptz NOT NULL DEFAULT NOW(),
		updated_at     timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS deposit_requests (
		id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id      uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount       double precision NOT NULL CHECK (amount > 0),
		method       text NOT NULL,
		deposit_type text NOT NULL DEFAULT 'trade',
		proof_image  text NOT NULL,
		status       text NOT NULL DEFAULT 'pending',
		created_at   timestamptz NOT NULL DEFAULT NOW(),
		updated_at   timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id        uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		symbol         text NOT NULL,
		amount         double precision NOT NULL,
		amount_fiat    double precision NOT NULL DEFAULT 0,
		wallet_address text NOT NULL,
		created_at     timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS gift_rewards (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id    uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title      text NOT NULL,
		amount     double precision NOT NULL CHECK (amount > 0),
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id    uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		from_name  text NOT NULL DEFAULT '',
		icon       text NOT NULL DEFAULT '',
		title      text NOT NULL,
		message    text NOT NULL,
		route      text NOT NULL DEFAULT '',
		read       boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC)`,
}

// InitSchema creates all tables and indexes if they do not exist yet.
func InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := DB.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
