package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/user/tradedesk/backend/internal/ledger"
	"github.com/user/tradedesk/backend/internal/models"
)

const tradeColumns = `id, user_id, symbol, trading_mode, amount, profit_or_loss,
	status, trade_from, processed, expire_seconds, created_at, updated_at`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	trade := &models.Trade{}
	err := row.Scan(
		&trade.ID, &trade.UserID, &trade.Symbol, &trade.TradingMode,
		&trade.Amount, &trade.ProfitOrLoss, &trade.Status, &trade.TradeFrom,
		&trade.Processed, &trade.ExpireSeconds, &trade.CreatedAt, &trade.UpdatedAt,
	)
	return trade, err
}

// CreateTrade inserts a new open trade. The stake debit must already
// have succeeded in the same transaction.
func CreateTrade(ctx context.Context, tx pgx.Tx, trade *models.Trade) error {
	query := `INSERT INTO trades (user_id, symbol, trading_mode, amount, status, trade_from, expire_seconds)
			  VALUES ($1, $2, $3, $4, 'open', $5, $6)
			  RETURNING id, status, processed, created_at, updated_at`

	err := Querier(tx).QueryRow(ctx, query,
		trade.UserID, trade.Symbol, trade.TradingMode, trade.Amount,
		trade.TradeFrom, trade.ExpireSeconds,
	).Scan(&trade.ID, &trade.Status, &trade.Processed, &trade.CreatedAt, &trade.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error creating trade for user %s: %w", trade.UserID, err)
	}
	return nil
}

// SettleTrade flips an unprocessed trade to its terminal status. The
// match on processed=false makes resolution exactly-once: two racing
// resolutions cannot both see a row, and the loser gets ErrNotFound
// before any ledger delta is applied. Returns the settled trade.
func SettleTrade(ctx context.Context, tx pgx.Tx, userID, tradeID uuid.UUID, res ledger.Resolution, profit float64) (*models.Trade, error) {
	var expire int64
	if res == ledger.Cancelled {
		expire = ledger.ExpiredSentinel
	}

	query := `UPDATE trades SET
				status = $1,
				profit_or_loss = $2,
				processed = true,
				expire_seconds = CASE WHEN $3::bigint <> 0 THEN $3 ELSE expire_seconds END,
				updated_at = NOW()
			  WHERE id = $4 AND user_id = $5 AND processed = false
			  RETURNING ` + tradeColumns

	trade, err := scanTrade(Querier(tx).QueryRow(ctx, query, string(res), profit, expire, tradeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("trade %s not open for user %s: %w", tradeID, userID, ledger.ErrNotFound)
		}
		return nil, fmt.Errorf("error settling trade %s: %w", tradeID, err)
	}
	return trade, nil
}

// GetTradeByID retrieves a specific trade.
func GetTradeByID(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	trade, err := scanTrade(DB.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = $1`, tradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Trade not found
		}
		return nil, fmt.Errorf("error getting trade %s: %w", tradeID, err)
	}
	return trade, nil
}

// GetUserTrades retrieves all trades for a user, newest first.
func GetUserTrades(ctx context.Context, userID uuid.UUID) ([]*models.Trade, error) {
	return queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAllTrades is the admin console view across all users.
func ListAllTrades(ctx context.Context) ([]*models.Trade, error) {
	return queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades ORDER BY created_at DESC`)
}

func queryTrades(ctx context.Context, query string, args ...interface{}) ([]*models.Trade, error) {
	trades := make([]*models.Trade, 0)

	rows, err := DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning trade row: %w", err)
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// DeleteTrade removes a trade record outright. No ledger effect;
// intended for records that are already resolved or abandoned.
func DeleteTrade(ctx context.Context, tradeID uuid.UUID) error {
	cmdTag, err := DB.Exec(ctx, `DELETE FROM trades WHERE id = $1`, tradeID)
	if err != nil {
		return fmt.Errorf("error deleting trade %s: %w", tradeID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("trade %s: %w", tradeID, ledger.ErrNotFound)
	}
	return nil
}
