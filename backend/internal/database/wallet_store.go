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

// TradeBalanceAddress is the reserved destination that converts an
// asset transfer into a trade-balance credit instead of an external send.
const TradeBalanceAddress = "Trade Balance"

// GetUserHoldings lists a user's per-asset balances.
func GetUserHoldings(ctx context.Context, userID uuid.UUID) ([]*models.AssetHolding, error) {
	holdings := make([]*models.AssetHolding, 0)
	query := `SELECT user_id, symbol, balance, manual_balance, manual_fiat_balance, updated_at
			  FROM asset_holdings WHERE user_id = $1 ORDER BY symbol`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying holdings for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		h := &models.AssetHolding{}
		err := rows.Scan(&h.UserID, &h.Symbol, &h.Balance, &h.ManualBalance,
			&h.ManualFiatBalance, &h.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning holding row for user %s: %w", userID, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// TransferAsset performs an outbound asset transfer as one transaction:
// the account's asset mode picks which holding field the debit hits,
// a "Trade Balance" destination credits the live balance, and the
// transaction log row is written last. Any failure aborts the whole
// transfer, so a debit without a log row is never observable.
//
// In manual mode the debit runs against manual_fiat_balance using
// txn.AmountFiat, and the logged amount is the fiat amount (mirroring
// what the customer actually moved).
func TransferAsset(ctx context.Context, tx pgx.Tx, txn *models.WalletTransaction) error {
	var manualMode bool
	err := tx.QueryRow(ctx,
		`SELECT manual_asset_mode FROM accounts WHERE user_id = $1 FOR UPDATE`,
		txn.UserID).Scan(&manualMode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("account %s: %w", txn.UserID, ledger.ErrNotFound)
		}
		return fmt.Errorf("error locking account %s: %w", txn.UserID, err)
	}

	if manualMode {
		if txn.AmountFiat <= 0 {
			return fmt.Errorf("%w: fiat amount must be positive for manual-mode transfers", ledger.ErrValidation)
		}
		if err := debitHolding(ctx, tx, txn.UserID, txn.Symbol, "manual_fiat_balance", txn.AmountFiat); err != nil {
			return err
		}
		txn.Amount = txn.AmountFiat
	} else {
		if txn.Amount <= 0 {
			return fmt.Errorf("%w: amount must be positive", ledger.ErrValidation)
		}
		if err := debitHolding(ctx, tx, txn.UserID, txn.Symbol, "balance", txn.Amount); err != nil {
			return err
		}
	}

	if txn.WalletAddress == TradeBalanceAddress {
		if txn.AmountFiat <= 0 {
			return fmt.Errorf("%w: fiat amount must be positive for trade-balance transfers", ledger.ErrValidation)
		}
		_, err := tx.Exec(ctx,
			`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2`,
			txn.AmountFiat, txn.UserID)
		if err != nil {
			return fmt.Errorf("error crediting trade balance for user %s: %w", txn.UserID, err)
		}
	}

	query := `INSERT INTO wallet_transactions (user_id, symbol, amount, amount_fiat, wallet_address)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at`
	err = tx.QueryRow(ctx, query,
		txn.UserID, txn.Symbol, txn.Amount, txn.AmountFiat, txn.WalletAddress,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("error logging wallet transaction for user %s: %w", txn.UserID, err)
	}
	return nil
}

func debitHolding(ctx context.Context, tx pgx.Tx, userID uuid.UUID, symbol, column string, amount float64) error {
	query := fmt.Sprintf(`UPDATE asset_holdings SET %s = %s - $1, updated_at = NOW()
			  WHERE user_id = $2 AND symbol = $3 AND %s >= $1`, column, column, column)

	cmdTag, err := tx.Exec(ctx, query, amount, userID, symbol)
	if err != nil {
		return fmt.Errorf("error debiting %s %s for user %s: %w", symbol, column, userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: %s %s cannot cover %.8f", ledger.ErrInsufficientFunds, symbol, column, amount)
	}
	return nil
}

var holdingColumns = map[string]bool{
	"balance":             true,
	"manual_balance":      true,
	"manual_fiat_balance": true,
}

// AdjustHolding is the admin-initiated credit or debit of a named asset
// balance field. Credits upsert the holding row; debits are conditional
// and fail rather than go negative.
func AdjustHolding(ctx context.Context, userID uuid.UUID, symbol, column string, delta float64) error {
	if !holdingColumns[column] {
		return fmt.Errorf("%w: unknown holding field %q", ledger.ErrValidation, column)
	}
	if delta == 0 {
		return fmt.Errorf("%w: adjustment must be non-zero", ledger.ErrValidation)
	}

	if delta > 0 {
		query := fmt.Sprintf(`INSERT INTO asset_holdings (user_id, symbol, %s) VALUES ($1, $2, $3)
				 ON CONFLICT (user_id, symbol)
				 DO UPDATE SET %s = asset_holdings.%s + $3, updated_at = NOW()`, column, column, column)
		if _, err := DB.Exec(ctx, query, userID, symbol, delta); err != nil {
			return fmt.Errorf("error crediting %s %s for user %s: %w", symbol, column, userID, err)
		}
		return nil
	}

	query := fmt.Sprintf(`UPDATE asset_holdings SET %s = %s + $1, updated_at = NOW()
			  WHERE user_id = $2 AND symbol = $3 AND %s >= -$1`, column, column, column)
	cmdTag, err := DB.Exec(ctx, query, delta, userID, symbol)
	if err != nil {
		return fmt.Errorf("error debiting %s %s for user %s: %w", symbol, column, userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: %s %s cannot cover %.8f", ledger.ErrInsufficientFunds, symbol, column, -delta)
	}
	return nil
}

// GetUserWalletTransactions lists a user's transfer log, newest first.
func GetUserWalletTransactions(ctx context.Context, userID uuid.UUID) ([]*models.WalletTransaction, error) {
	txns := make([]*models.WalletTransaction, 0)
	query := `SELECT id, user_id, symbol, amount, amount_fiat, wallet_address, created_at
			  FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying wallet transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		txn := &models.WalletTransaction{}
		err := rows.Scan(&txn.ID, &txn.UserID, &txn.Symbol, &txn.Amount,
			&txn.AmountFiat, &txn.WalletAddress, &txn.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning wallet transaction row: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
