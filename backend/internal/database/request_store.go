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

// ReserveWithdrawal debits the account immediately (funds are locked
// while the request is pending) and records the request. Runs inside
// the caller's transaction:
//  1. lock the account row and read earned_total,
//  2. conditional balance debit (insufficient funds aborts everything),
//  3. clamp-debit earned_total, remembering how much actually came off,
//  4. insert the pending request carrying that earned_debited amount.
//
// A later rejection refunds amount + earned_debited exactly.
func ReserveWithdrawal(ctx context.Context, tx pgx.Tx, req *models.WithdrawalRequest) error {
	var earnedTotal float64
	err := tx.QueryRow(ctx,
		`SELECT earned_total FROM accounts WHERE user_id = $1 FOR UPDATE`,
		req.UserID).Scan(&earnedTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("account %s: %w", req.UserID, ledger.ErrNotFound)
		}
		return fmt.Errorf("error locking account %s: %w", req.UserID, err)
	}

	if err := DebitBalance(ctx, tx, req.UserID, ledger.Live, req.Amount); err != nil {
		return err
	}

	req.EarnedDebited = req.Amount
	if req.EarnedDebited > earnedTotal {
		req.EarnedDebited = earnedTotal
	}
	if req.EarnedDebited > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET earned_total = earned_total - $1, updated_at = NOW() WHERE user_id = $2`,
			req.EarnedDebited, req.UserID)
		if err != nil {
			return fmt.Errorf("error debiting earned_total for user %s: %w", req.UserID, err)
		}
	}

	query := `INSERT INTO withdrawal_requests (user_id, amount, earned_debited, method, address)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, status, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		req.UserID, req.Amount, req.EarnedDebited, req.Method, req.Address,
	).Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating withdrawal request for user %s: %w", req.UserID, err)
	}
	return nil
}

// UpdateWithdrawalStatus flips a pending request to a terminal status.
// The status='pending' match is the idempotency guard: a second review
// (duplicate admin click, retry) matches zero rows and refunds nothing.
func UpdateWithdrawalStatus(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, newStatus string) (*models.WithdrawalRequest, error) {
	req := &models.WithdrawalRequest{}
	query := `UPDATE withdrawal_requests SET status = $1, updated_at = NOW()
			  WHERE id = $2 AND status = 'pending'
			  RETURNING id, user_id, amount, earned_debited, method, address, status, created_at, updated_at`

	err := Querier(tx).QueryRow(ctx, query, newStatus, requestID).Scan(
		&req.ID, &req.UserID, &req.Amount, &req.EarnedDebited,
		&req.Method, &req.Address, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("withdrawal request %s is not pending: %w", requestID, ledger.ErrAlreadyProcessed)
		}
		return nil, fmt.Errorf("error updating withdrawal request %s: %w", requestID, err)
	}
	return req, nil
}

// GetUserWithdrawals lists a user's withdrawal requests, newest first.
func GetUserWithdrawals(ctx context.Context, userID uuid.UUID) ([]*models.WithdrawalRequest, error) {
	return queryWithdrawals(ctx,
		`SELECT id, user_id, amount, earned_debited, method, address, status, created_at, updated_at
		 FROM withdrawal_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListWithdrawals is the admin view across all users.
func ListWithdrawals(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	return queryWithdrawals(ctx,
		`SELECT id, user_id, amount, earned_debited, method, address, status, created_at, updated_at
		 FROM withdrawal_requests ORDER BY created_at DESC`)
}

func queryWithdrawals(ctx context.Context, query string, args ...interface{}) ([]*models.WithdrawalRequest, error) {
	reqs := make([]*models.WithdrawalRequest, 0)

	rows, err := DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying withdrawal requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		req := &models.WithdrawalRequest{}
		err := rows.Scan(&req.ID, &req.UserID, &req.Amount, &req.EarnedDebited,
			&req.Method, &req.Address, &req.Status, &req.CreatedAt, &req.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning withdrawal row: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// CreateDeposit records a pending deposit request. No ledger effect:
// the funds do not exist until an admin approves them.
func CreateDeposit(ctx context.Context, req *models.DepositRequest) error {
	query := `INSERT INTO deposit_requests (user_id, amount, method, deposit_type, proof_image)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, status, created_at, updated_at`

	err := DB.QueryRow(ctx, query,
		req.UserID, req.Amount, req.Method, req.DepositType, req.ProofImage,
	).Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating deposit request for user %s: %w", req.UserID, err)
	}
	return nil
}

// UpdateDepositStatus flips a pending deposit to a terminal status,
// with the same pending-only guard as withdrawals.
func UpdateDepositStatus(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, newStatus string) (*models.DepositRequest, error) {
	req := &models.DepositRequest{}
	query := `UPDATE deposit_requests SET status = $1, updated_at = NOW()
			  WHERE id = $2 AND status = 'pending'
			  RETURNING id, user_id, amount, method, deposit_type, proof_image, status, created_at, updated_at`

	err := Querier(tx).QueryRow(ctx, query, newStatus, requestID).Scan(
		&req.ID, &req.UserID, &req.Amount, &req.Method, &req.DepositType,
		&req.ProofImage, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("deposit request %s is not pending: %w", requestID, ledger.ErrAlreadyProcessed)
		}
		return nil, fmt.Errorf("error updating deposit request %s: %w", requestID, err)
	}
	return req, nil
}

// CreditApprovedDeposit applies the ledger effect of an approved
// deposit inside the review transaction. Trade deposits credit the
// balance and the running deposit total; wallet deposits only bump the
// total (the asset credit is applied manually by the admin).
func CreditApprovedDeposit(ctx context.Context, tx pgx.Tx, req *models.DepositRequest) error {
	var query string
	if req.DepositType == "wallet" {
		query = `UPDATE accounts SET total_deposit = total_deposit + $1, updated_at = NOW()
				 WHERE user_id = $2`
	} else {
		query = `UPDATE accounts SET balance = balance + $1, total_deposit = total_deposit + $1, updated_at = NOW()
				 WHERE user_id = $2`
	}

	cmdTag, err := tx.Exec(ctx, query, req.Amount, req.UserID)
	if err != nil {
		return fmt.Errorf("error crediting deposit %s: %w", req.ID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("account %s: %w", req.UserID, ledger.ErrNotFound)
	}
	return nil
}

// GetUserDeposits lists a user's deposit requests, newest first.
func GetUserDeposits(ctx context.Context, userID uuid.UUID) ([]*models.DepositRequest, error) {
	return queryDeposits(ctx,
		`SELECT id, user_id, amount, method, deposit_type, proof_image, status, created_at, updated_at
		 FROM deposit_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListDeposits is the admin view across all users.
func ListDeposits(ctx context.Context) ([]*models.DepositRequest, error) {
	return queryDeposits(ctx,
		`SELECT id, user_id, amount, method, deposit_type, proof_image, status, created_at, updated_at
		 FROM deposit_requests ORDER BY created_at DESC`)
}

func queryDeposits(ctx context.Context, query string, args ...interface{}) ([]*models.DepositRequest, error) {
	reqs := make([]*models.DepositRequest, 0)

	rows, err := DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying deposit requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		req := &models.DepositRequest{}
		err := rows.Scan(&req.ID, &req.UserID, &req.Amount, &req.Method, &req.DepositType,
			&req.ProofImage, &req.Status, &req.CreatedAt, &req.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning deposit row: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
