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

// SendAssetRequest defines the JSON body for an outbound asset transfer.
type SendAssetRequest struct {
	Symbol        string  `json:"symbol"`
	Amount        float64 `json:"amount"`
	AmountFiat    float64 `json:"amount_fiat"`
	WalletAddress string  `json:"wallet_address"`
}

// SendAsset transfers from a wallet holding. The account's asset mode
// picks the debited field; sending to "Trade Balance" converts the
// fiat value into live trading funds. Debit, optional credit, and the
// transaction log are one transaction.
func SendAsset(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(SendAssetRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Symbol is required"})
	}
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.WalletAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Wallet address is required"})
	}

	txn := &models.WalletTransaction{
		UserID:        userID,
		Symbol:        req.Symbol,
		Amount:        req.Amount,
		AmountFiat:    req.AmountFiat,
		WalletAddress: req.WalletAddress,
	}

	tx, err := database.DB.Begin(c.Context())
	if err != nil {
		log.Printf("SendAsset: failed to begin transaction for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	if err := database.TransferAsset(c.Context(), tx, txn); err != nil {
		log.Printf("SendAsset: transfer failed for user %s (%s to %s): %v", userID, req.Symbol, req.WalletAddress, err)
		return ledgerError(c, err, "Failed to send asset")
	}

	if err := tx.Commit(c.Context()); err != nil {
		log.Printf("SendAsset: failed to commit for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing transfer"})
	}

	log.Printf("Wallet transaction %s: user %s sent %.8f %s to %s", txn.ID, userID, txn.Amount, txn.Symbol, txn.WalletAddress)

	notify.PublishToAdmins(c.Context(), notify.Event{
		From: "system", Icon: "wallet",
		Title:   "Asset transfer",
		Message: fmt.Sprintf("User %s sent %.8f %s to %s.", userID, txn.Amount, txn.Symbol, txn.WalletAddress),
		Route:   "/admin/wallet",
	},
		"Asset transfer executed",
		fmt.Sprintf("User %s sent %.8f %s to %s.", userID, txn.Amount, txn.Symbol, txn.WalletAddress))

	return c.Status(fiber.StatusCreated).JSON(txn)
}

// GetWalletTransactions lists the caller's transfer history.
func GetWalletTransactions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	txns, err := database.GetUserWalletTransactions(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching wallet transactions for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve wallet transactions"})
	}
	return c.Status(fiber.StatusOK).JSON(txns)
}

// AdjustHoldingRequest defines the admin body for funding or debiting
// an asset balance.
type AdjustHoldingRequest struct {
	Symbol string  `json:"symbol"`
	Field  string  `json:"field"` // balance, manual_balance, manual_fiat_balance
	Delta  float64 `json:"delta"` // positive credits, negative debits
}

// AdminAdjustHolding funds or debits a user's named asset balance.
// Debits fail rather than drive the holding negative.
func AdminAdjustHolding(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	req := new(AdjustHoldingRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Symbol is required"})
	}
	if req.Field == "" {
		req.Field = "balance"
	}

	if err := database.AdjustHolding(c.Context(), userID, req.Symbol, req.Field, req.Delta); err != nil {
		log.Printf("AdjustHolding: failed for user %s (%s %s %+.8f): %v", userID, req.Symbol, req.Field, req.Delta, err)
		return ledgerError(c, err, "Failed to adjust holding")
	}

	log.Printf("Holding adjusted: user %s %s %s %+.8f", userID, req.Symbol, req.Field, req.Delta)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Holding adjusted"})
}
