package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/user/tradedesk/backend/internal/database"
	"github.com/user/tradedesk/backend/internal/ledger"
	"github.com/user/tradedesk/backend/internal/ticker"
)

// GetAccount returns the caller's ledger balances.
func GetAccount(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	acct, err := database.GetAccount(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching account for user %s: %v", userID, err)
		return ledgerError(c, err, "Failed to retrieve account")
	}
	return c.Status(fiber.StatusOK).JSON(acct)
}

// GetHoldings returns the caller's per-asset wallet balances.
func GetHoldings(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	holdings, err := database.GetUserHoldings(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching holdings for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve holdings"})
	}
	return c.Status(fiber.StatusOK).JSON(holdings)
}

// GetNotifications returns the caller's notification inbox.
func GetNotifications(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	notifications, err := database.GetUserNotifications(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching notifications for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve notifications"})
	}
	return c.Status(fiber.StatusOK).JSON(notifications)
}

// MarkNotificationsRead marks the caller's inbox as read.
func MarkNotificationsRead(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	if err := database.MarkNotificationsRead(c.Context(), userID); err != nil {
		log.Printf("Error marking notifications read for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Notifications marked read"})
}

// GetPrices returns the current simulated market quotes.
func GetPrices(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(ticker.GetCurrentPrices())
}

// AdminListUsers returns every registered user.
func AdminListUsers(c *fiber.Ctx) error {
	users, err := database.ListUsers(c.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

// FundAccountRequest defines the admin body for crediting or debiting
// a user's live or demo balance.
type FundAccountRequest struct {
	TradingMode string  `json:"trading_mode"` // "live" or "demo"
	Delta       float64 `json:"delta"`        // positive credits, negative debits
}

// AdminFundAccount directly adjusts a user's balance. Debits fail
// rather than drive the balance negative.
func AdminFundAccount(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	req := new(FundAccountRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	mode, err := ledger.ParseMode(req.TradingMode)
	if err != nil {
		return ledgerError(c, err, "Invalid trading mode")
	}

	if err := database.AdjustBalance(c.Context(), userID, mode, req.Delta); err != nil {
		log.Printf("FundAccount: failed for user %s (%s %+.2f): %v", userID, mode, req.Delta, err)
		return ledgerError(c, err, "Failed to adjust balance")
	}

	log.Printf("Account adjusted: user %s %s %+.2f", userID, mode, req.Delta)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Balance adjusted"})
}

// SetAssetModeRequest toggles manual asset mode for a user.
type SetAssetModeRequest struct {
	Manual bool `json:"manual"`
}

// AdminSetAssetMode switches which holding fields the user's wallet
// transfers debit.
func AdminSetAssetMode(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	req := new(SetAssetModeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	if err := database.SetManualAssetMode(c.Context(), userID, req.Manual); err != nil {
		log.Printf("SetAssetMode: failed for user %s: %v", userID, err)
		return ledgerError(c, err, "Failed to update asset mode")
	}

	mode := "automatic"
	if req.Manual {
		mode = "manual"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Asset mode set to " + mode})
}
