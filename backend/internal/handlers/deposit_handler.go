package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/user/tradedesk/backend/internal/database"
	"github.com/user/tradedesk/backend/internal/models"
	"github.com/user/tradedesk/backend/internal/notify"
)

// DepositRequestBody defines the JSON body for requesting a deposit.
type DepositRequestBody struct {
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	DepositType string  `json:"deposit_type"` // "trade" or "wallet"
	ProofImage  string  `json:"proof_image"`  // reference returned by the upload service
}

// RequestDeposit records a pending deposit. No funds move until an
// admin approves. The proof-of-payment image reference is mandatory.
func RequestDeposit(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	body := new(DepositRequestBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if body.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Positive amount is required"})
	}
	body.Method = strings.TrimSpace(body.Method)
	if body.Method == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Deposit method is required"})
	}
	body.ProofImage = strings.TrimSpace(body.ProofImage)
	if body.ProofImage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Proof of payment image is required"})
	}
	depositType := strings.ToLower(strings.TrimSpace(body.DepositType))
	if depositType != "trade" && depositType != "wallet" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Deposit type must be 'trade' or 'wallet'"})
	}

	req := &models.DepositRequest{
		UserID:      userID,
		Amount:      body.Amount,
		Method:      body.Method,
		DepositType: depositType,
		ProofImage:  body.ProofImage,
	}

	if err := database.CreateDeposit(c.Context(), req); err != nil {
		log.Printf("RequestDeposit: create failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create deposit request"})
	}

	log.Printf("Deposit request %s created for user %s (%.2f via %s, type %s)", req.ID, userID, req.Amount, req.Method, req.DepositType)

	notify.PublishToAdmins(c.Context(), notify.Event{
		From: "system", Icon: "deposit",
		Title:   "Deposit requested",
		Message: fmt.Sprintf("User %s submitted a %s deposit of %.2f via %s.", userID, req.DepositType, req.Amount, req.Method),
		Route:   "/admin/deposits",
	},
		"Deposit request pending review",
		fmt.Sprintf("User %s submitted a %s deposit of %.2f.", userID, req.DepositType, req.Amount))

	return c.Status(fiber.StatusCreated).JSON(req)
}

// GetDeposits lists the caller's deposit requests.
func GetDeposits(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	reqs, err := database.GetUserDeposits(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching deposits for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve deposit requests"})
	}
	return c.Status(fiber.StatusOK).JSON(reqs)
}

// ReviewDepositBody defines the admin's decision on a deposit.
type ReviewDepositBody struct {
	Decision string `json:"decision"` // "approve-with-balance", "approve", "reject"
}

// AdminReviewDeposit settles a pending deposit. Only
// "approve-with-balance" moves money: trade deposits credit the
// balance, wallet deposits only bump the running deposit total. The
// pending-only guard makes a duplicate review a 409 no-op.
func AdminReviewDeposit(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID format"})
	}

	body := new(ReviewDepositBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	decision := strings.ToLower(strings.TrimSpace(body.Decision))
	var newStatus string
	switch decision {
	case "approve-with-balance", "approve":
		newStatus = "approved"
	case "reject":
		newStatus = "not-approved"
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Decision must be 'approve-with-balance', 'approve' or 'reject'"})
	}

	tx, err := database.DB.Begin(c.Context())
	if err != nil {
		log.Printf("ReviewDeposit: failed to begin transaction for request %s: %v", requestID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	req, err := database.UpdateDepositStatus(c.Context(), tx, requestID, newStatus)
	if err != nil {
		log.Printf("ReviewDeposit: status update failed for request %s: %v", requestID, err)
		return ledgerError(c, err, "Failed to update deposit request")
	}

	if decision == "approve-with-balance" {
		if err := database.CreditApprovedDeposit(c.Context(), tx, req); err != nil {
			log.Printf("ReviewDeposit: credit failed for request %s: %v", requestID, err)
			return ledgerError(c, err, "Failed to credit deposit")
		}
	}

	if err := tx.Commit(c.Context()); err != nil {
		log.Printf("ReviewDeposit: failed to commit for request %s: %v", requestID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing review"})
	}

	log.Printf("Deposit request %s marked %s (decision %s) for user %s", req.ID, newStatus, decision, req.UserID)

	message := fmt.Sprintf("Your deposit of %.2f was %s.", req.Amount, newStatus)
	notify.Publish(c.Context(), notify.Event{
		UserID: req.UserID, From: "admin", Icon: "deposit",
		Title: "Deposit reviewed", Message: message, Route: "/deposits",
	})

	return c.Status(fiber.StatusOK).JSON(req)
}

// AdminListDeposits returns every deposit request.
func AdminListDeposits(c *fiber.Ctx) error {
	reqs, err := database.ListDeposits(c.Context())
	if err != nil {
		log.Printf("Error listing deposits: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve deposit requests"})
	}
	return c.Status(fiber.StatusOK).JSON(reqs)
}
