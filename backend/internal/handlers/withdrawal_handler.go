package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/user/tradedesk/backend/internal/database"
	"github.com/user/tradedesk/backend/internal/ledger"
	"github.com/user/tradedesk/backend/internal/models"
	"github.com/user/tradedesk/backend/internal/notify"
)

// WithdrawalRequestBody defines the JSON body for requesting a withdrawal.
type WithdrawalRequestBody struct {
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
	Address string  `json:"address"`
}

// RequestWithdrawal reserves funds immediately: balance and earned
// total are debited in the same transaction that records the pending
// request, so the money is locked while an admin reviews it.
func RequestWithdrawal(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	body := new(WithdrawalRequestBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if body.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Positive amount is required"})
	}
	body.Method = strings.TrimSpace(body.Method)
	if body.Method == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Withdrawal method is required"})
	}

	req := &models.WithdrawalRequest{
		UserID:  userID,
		Amount:  body.Amount,
		Method:  body.Method,
		Address: strings.TrimSpace(body.Address),
	}

	tx, err := database.DB.Begin(c.Context())
	if err != nil {
		log.Printf("RequestWithdrawal: failed to begin transaction for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	if err := database.ReserveWithdrawal(c.Context(), tx, req); err != nil {
		log.Printf("RequestWithdrawal: reserve failed for user %s: %v", userID, err)
		return ledgerError(c, err, "Failed to create withdrawal request")
	}

	if err := tx.Commit(c.Context()); err != nil {
		log.Printf("RequestWithdrawal: failed to commit for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing request"})
	}

	log.Printf("Withdrawal request %s created for user %s (%.2f via %s)", req.ID, userID, req.Amount, req.Method)

	notify.PublishToAdmins(c.Context(), notify.Event{
		From: "system", Icon: "withdrawal",
		Title:   "Withdrawal requested",
		Message: fmt.Sprintf("User %s requested a withdrawal of %.2f via %s.", userID, req.Amount, req.Method),
		Route:   "/admin/withdrawals",
	},
		"Withdrawal request pending review",
		fmt.Sprintf("User %s requested %.2f via %s.", userID, req.Amount, req.Method))

	return c.Status(fiber.StatusCreated).JSON(req)
}

// GetWithdrawals lists the caller's withdrawal requests.
func GetWithdrawals(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	reqs, err := database.GetUserWithdrawals(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching withdrawals for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve withdrawal requests"})
	}
	return c.Status(fiber.StatusOK).JSON(reqs)
}

// ReviewWithdrawalBody defines the admin's decision.
type ReviewWithdrawalBody struct {
	Status string `json:"status"` // "approved" or "not-approved"
}

// AdminReviewWithdrawal approves or rejects a pending withdrawal. The
// pending-only status flip is the idempotency guard: a second review
// returns 409 and refunds nothing. Rejection refunds the reserved
// balance and exactly the earned amount debited at request time.
func AdminReviewWithdrawal(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID format"})
	}

	body := new(ReviewWithdrawalBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	newStatus := strings.ToLower(strings.TrimSpace(body.Status))
	if newStatus != "approved" && newStatus != "not-approved" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Status must be 'approved' or 'not-approved'"})
	}

	tx, err := database.DB.Begin(c.Context())
	if err != nil {
		log.Printf("ReviewWithdrawal: failed to begin transaction for request %s: %v", requestID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	req, err := database.UpdateWithdrawalStatus(c.Context(), tx, requestID, newStatus)
	if err != nil {
		log.Printf("ReviewWithdrawal: status update failed for request %s: %v", requestID, err)
		return ledgerError(c, err, "Failed to update withdrawal request")
	}

	if newStatus == "not-approved" {
		refund := ledger.Deltas{Balance: req.Amount, EarnedTotal: req.EarnedDebited}
		if err := database.ApplyDeltas(c.Context(), tx, req.UserID, refund); err != nil {
			log.Printf("ReviewWithdrawal: refund failed for request %s: %v", requestID, err)
			return ledgerError(c, err, "Failed to refund withdrawal")
		}
	}
	// Approved: funds were already debited at request time.

	if err := tx.Commit(c.Context()); err != nil {
		log.Printf("ReviewWithdrawal: failed to commit for request %s: %v", requestID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing review"})
	}

	log.Printf("Withdrawal request %s marked %s for user %s", req.ID, newStatus, req.UserID)

	message := fmt.Sprintf("Your withdrawal of %.2f was approved.", req.Amount)
	if newStatus == "not-approved" {
		message = fmt.Sprintf("Your withdrawal of %.2f was declined and the funds were returned.", req.Amount)
	}
	notify.Publish(c.Context(), notify.Event{
		UserID: req.UserID, From: "admin", Icon: "withdrawal",
		Title: "Withdrawal reviewed", Message: message, Route: "/withdrawals",
	})

	return c.Status(fiber.StatusOK).JSON(req)
}

// AdminListWithdrawals returns every withdrawal request.
func AdminListWithdrawals(c *fiber.Ctx) error {
	reqs, err := database.ListWithdrawals(c.Context())
	if err != nil {
		log.Printf("Error listing withdrawals: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve withdrawal requests"})
	}
	return c.Status(fiber.StatusOK).JSON(reqs)
}
