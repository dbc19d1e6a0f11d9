// Package notify publishes post-commit side effects: per-user inbox
// notifications (persisted and pushed over WebSocket) and templated
// emails. Delivery is best-effort: a failure here is logged and never
// propagated back to the ledger operation that already committed.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/user/tradedesk/backend/internal/database"
	"github.com/user/tradedesk/backend/internal/models"
	ws "github.com/user/tradedesk/backend/internal/websocket"
)

// Event is one notification to one user.
type Event struct {
	UserID  uuid.UUID `json:"user_id"`
	From    string    `json:"from"`
	Icon    string    `json:"icon"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Route   string    `json:"route"`
}

// EmailSender hands a templated email to the delivery subsystem.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogEmailSender is the default sender: it records the email instead of
// delivering it. Real delivery lives in a separate service.
type LogEmailSender struct{}

func (LogEmailSender) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("Email queued: to=%s subject=%q", to, subject)
	return nil
}

// Email is the sender used by Publish helpers.
var Email EmailSender = LogEmailSender{}

// Publish persists the notification and pushes it to the user's live
// connections. Errors are logged and swallowed.
func Publish(ctx context.Context, ev Event) {
	n := &models.Notification{
		UserID:   ev.UserID,
		FromName: ev.From,
		Icon:     ev.Icon,
		Title:    ev.Title,
		Message:  ev.Message,
		Route:    ev.Route,
	}
	if err := database.CreateNotification(ctx, n); err != nil {
		log.Printf("Notification persist failed for user %s: %v", ev.UserID, err)
	}

	if ws.GlobalHub == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Notification marshal failed for user %s: %v", ev.UserID, err)
		return
	}
	ws.GlobalHub.SendToUser(ev.UserID, payload)
}

// PublishToAdmins fans one event out to every admin account and queues
// the matching email. Used for financial requests that need review.
func PublishToAdmins(ctx context.Context, ev Event, emailSubject, emailBody string) {
	admins, err := database.ListAdminIDs(ctx)
	if err != nil {
		log.Printf("Admin lookup for notification failed: %v", err)
		return
	}
	for _, adminID := range admins {
		adminEvent := ev
		adminEvent.UserID = adminID
		Publish(ctx, adminEvent)
	}
	if err := Email.Send(ctx, "admins", emailSubject, emailBody); err != nil {
		log.Printf("Admin email dispatch failed: %v", err)
	}
}
