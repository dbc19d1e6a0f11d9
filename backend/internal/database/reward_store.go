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

// CreateReward grants a single-use gift reward to a user.
func CreateReward(ctx context.Context, reward *models.GiftReward) error {
	query := `INSERT INTO gift_rewards (user_id, title, amount)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at`

	err := DB.QueryRow(ctx, query, reward.UserID, reward.Title, reward.Amount).
		Scan(&reward.ID, &reward.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating reward for user %s: %w", reward.UserID, err)
	}
	return nil
}

// ClaimReward removes the reward row and credits its amount to the
// balance in one transaction. The DELETE..RETURNING is the claim-once
// gate: a concurrent duplicate claim deletes zero rows and credits
// nothing.
func ClaimReward(ctx context.Context, userID, rewardID uuid.UUID) (float64, error) {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error starting claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var amount float64
	err = tx.QueryRow(ctx,
		`DELETE FROM gift_rewards WHERE id = $1 AND user_id = $2 RETURNING amount`,
		rewardID, userID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("reward %s for user %s: %w", rewardID, userID, ledger.ErrNotFound)
		}
		return 0, fmt.Errorf("error claiming reward %s: %w", rewardID, err)
	}

	cmdTag, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2`,
		amount, userID)
	if err != nil {
		return 0, fmt.Errorf("error crediting reward %s: %w", rewardID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return 0, fmt.Errorf("account %s: %w", userID, ledger.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing reward claim %s: %w", rewardID, err)
	}
	return amount, nil
}

// GetUserRewards lists a user's unclaimed rewards.
func GetUserRewards(ctx context.Context, userID uuid.UUID) ([]*models.GiftReward, error) {
	rewards := make([]*models.GiftReward, 0)
	query := `SELECT id, user_id, title, amount, created_at
			  FROM gift_rewards WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying rewards for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		reward := &models.GiftReward{}
		if err := rows.Scan(&reward.ID, &reward.UserID, &reward.Title, &reward.Amount, &reward.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reward row: %w", err)
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}
