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

// GetAccount retrieves a user's ledger account.
func GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	acct := &models.Account{}
	query := `SELECT user_id, balance, demo_balance, earned_total, total_deposit, manual_asset_mode, updated_at
			  FROM accounts WHERE user_id = $1`

	err := DB.QueryRow(ctx, query, userID).Scan(
		&acct.UserID, &acct.Balance, &acct.DemoBalance, &acct.EarnedTotal,
		&acct.TotalDeposit, &acct.ManualAssetMode, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", userID, ledger.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting account %s: %w", userID, err)
	}
	return acct, nil
}

func balanceColumn(mode ledger.Mode) string {
	if mode == ledger.Demo {
		return "demo_balance"
	}
	return "balance"
}

// DebitBalance removes amount from the mode's balance field, but only
// if the balance covers it. One conditional round trip: a zero-row
// match means insufficient funds (or no account), and nothing changes.
func DebitBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, mode ledger.Mode, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", ledger.ErrValidation)
	}

	col := balanceColumn(mode)
	query := fmt.Sprintf(`UPDATE accounts SET %s = %s - $1, updated_at = NOW()
			  WHERE user_id = $2 AND %s >= $1`, col, col, col)

	cmdTag, err := Querier(tx).Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("error debiting %s for user %s: %w", col, userID, err)
	}

	if cmdTag.RowsAffected() != 1 {
		// Distinguish a missing account from a short balance.
		var current float64
		checkErr := Querier(tx).QueryRow(ctx,
			fmt.Sprintf(`SELECT %s FROM accounts WHERE user_id = $1`, col), userID).Scan(&current)
		if errors.Is(checkErr, pgx.ErrNoRows) {
			return fmt.Errorf("account %s: %w", userID, ledger.ErrNotFound)
		}
		return fmt.Errorf("%w: %s has %.2f, need %.2f", ledger.ErrInsufficientFunds, col, current, amount)
	}
	return nil
}

// ApplyDeltas credits the settlement deltas onto an account. The earned
// debit clamps at zero in SQL when the deltas ask for it, so the floor
// invariant holds in the same round trip.
func ApplyDeltas(ctx context.Context, tx pgx.Tx, userID uuid.UUID, d ledger.Deltas) error {
	if d.Zero() {
		return nil
	}

	query := `UPDATE accounts SET
				balance = balance + $1,
				demo_balance = demo_balance + $2,
				earned_total = CASE WHEN $3::boolean THEN GREATEST(earned_total + $4, 0)
				                    ELSE earned_total + $4 END,
				updated_at = NOW()
			  WHERE user_id = $5`

	cmdTag, err := Querier(tx).Exec(ctx, query, d.Balance, d.DemoBalance, d.ClampEarned, d.EarnedTotal, userID)
	if err != nil {
		return fmt.Errorf("error applying settlement to account %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("account %s: %w", userID, ledger.ErrNotFound)
	}
	return nil
}

// AdjustBalance is the admin-initiated direct credit or debit of a
// balance field. Debits are conditional on the result staying
// non-negative.
func AdjustBalance(ctx context.Context, userID uuid.UUID, mode ledger.Mode, delta float64) error {
	if delta == 0 {
		return fmt.Errorf("%w: adjustment must be non-zero", ledger.ErrValidation)
	}

	col := balanceColumn(mode)
	var query string
	if delta > 0 {
		query = fmt.Sprintf(`UPDATE accounts SET %s = %s + $1, updated_at = NOW()
				 WHERE user_id = $2`, col, col)
	} else {
		query = fmt.Sprintf(`UPDATE accounts SET %s = %s + $1, updated_at = NOW()
				 WHERE user_id = $2 AND %s >= -$1`, col, col, col)
	}

	cmdTag, err := DB.Exec(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("error adjusting %s for user %s: %w", col, userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		if delta > 0 {
			return fmt.Errorf("account %s: %w", userID, ledger.ErrNotFound)
		}
		// Could be a missing account; callers surface both the same way.
		return fmt.Errorf("%w: cannot debit %.2f from %s", ledger.ErrInsufficientFunds, -delta, col)
	}
	return nil
}

// SetManualAssetMode toggles which holding fields wallet transfers debit.
func SetManualAssetMode(ctx context.Context, userID uuid.UUID, manual bool) error {
	cmdTag, err := DB.Exec(ctx,
		`UPDATE accounts SET manual_asset_mode = $1, updated_at = NOW() WHERE user_id = $2`,
		manual, userID)
	if err != nil {
		return fmt.Errorf("error setting asset mode for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("account %s: %w", userID, ledger.ErrNotFound)
	}
	return nil
}
