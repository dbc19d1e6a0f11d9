package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/user/tradedesk/backend/internal/models"
)

// CreateNotification appends an inbox entry. Best-effort from the
// caller's point of view; the notifier logs and swallows failures.
func CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (user_id, from_name, icon, title, message, route)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id, created_at`

	err := DB.QueryRow(ctx, query,
		n.UserID, n.FromName, n.Icon, n.Title, n.Message, n.Route,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification for user %s: %w", n.UserID, err)
	}
	return nil
}

// GetUserNotifications lists a user's notifications, newest first.
func GetUserNotifications(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	notifications := make([]*models.Notification, 0)
	query := `SELECT id, user_id, from_name, icon, title, message, route, read, created_at
			  FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.FromName, &n.Icon, &n.Title,
			&n.Message, &n.Route, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationsRead marks all of a user's notifications as read.
func MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := DB.Exec(ctx, `UPDATE notifications SET read = true WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error marking notifications read for user %s: %w", userID, err)
	}
	return nil
}
