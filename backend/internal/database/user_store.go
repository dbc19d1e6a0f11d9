package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/user/tradedesk/backend/internal/models"
)

// defaultHoldingSymbols are the wallet rows every new account starts
// with, so the dashboard has something to render before any funding.
var defaultHoldingSymbols = []string{"BTC", "ETH", "SOL"}

// CreateUser inserts a new user, its empty ledger account, and the
// default zero-balance holdings in one transaction. demoSeed is the
// demo balance granted on signup.
func CreateUser(ctx context.Context, username, passwordHash, role string, demoSeed float64) (*models.User, error) {
	user := &models.User{
		Username: username,
		Password: passwordHash,
		Role:     role,
	}

	tx, err := DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error starting signup transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)
			  RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query, username, passwordHash, role).
		Scan(&user.ID, &user.CreatedAt); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO accounts (user_id, demo_balance) VALUES ($1, $2)`,
		user.ID, demoSeed)
	if err != nil {
		return nil, fmt.Errorf("error creating account for user %s: %w", user.ID, err)
	}

	for _, symbol := range defaultHoldingSymbols {
		_, err = tx.Exec(ctx,
			`INSERT INTO asset_holdings (user_id, symbol) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			user.ID, symbol)
		if err != nil {
			return nil, fmt.Errorf("error creating %s holding for user %s: %w", symbol, user.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing signup for %s: %w", username, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`

	err := DB.QueryRow(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found, return nil without error
		}
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`

	err := DB.QueryRow(ctx, query, userID).
		Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return user, nil
}

// ListAdminIDs returns the IDs of every admin user, for notification
// fan-out.
func ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)

	rows, err := DB.Query(ctx, `SELECT id FROM users WHERE role = 'admin'`)
	if err != nil {
		return nil, fmt.Errorf("error querying admins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning admin id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUsers returns every user, newest first. Admin console view.
func ListUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0)
	query := `SELECT id, username, role, created_at FROM users ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Role, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
