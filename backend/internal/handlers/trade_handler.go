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

// PlaceTradeRequest defines the expected JSON body for placing a trade.
type PlaceTradeRequest struct {
	Symbol        string  `json:"symbol"`
	TradingMode   string  `json:"trading_mode"` // "live" or "demo"
	Amount        float64 `json:"amount"`
	ExpireSeconds int64   `json:"expire_seconds"`
}

// PlaceTrade opens a trade: the stake debit and the trade insert are
// one transaction, so a failed debit leaves no trade behind.
func PlaceTrade(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}
	role, _ := c.Locals("role").(string)

	req := new(PlaceTradeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Symbol is required"})
	}

	mode, err := ledger.ParseMode(req.TradingMode)
	if err != nil {
		return ledgerError(c, err, "Invalid trading mode")
	}
	if err := ledger.PlaceCheck(mode, req.Amount); err != nil {
		return ledgerError(c, err, "Invalid trade")
	}
	// Negative expiry is the already-expired sentinel; only settlement
	// may write it.
	if req.ExpireSeconds < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Expire seconds must not be negative"})
	}

	tradeFrom := "user"
	if role == "admin" {
		tradeFrom = "admin"
	}
	trade := &models.Trade{
		UserID:        userID,
		Symbol:        req.Symbol,
		TradingMode:   string(mode),
		Amount:        req.Amount,
		TradeFrom:     tradeFrom,
		ExpireSeconds: req.ExpireSeconds,
	}

	tx, err := database.DB.Begin(c.Context())
	if err != nil {
		log.Printf("PlaceTrade: failed to begin transaction for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	if err := database.DebitBalance(c.Context(), tx, userID, mode, req.Amount); err != nil {
		log.Printf("PlaceTrade: failed to debit %.2f (%s) for user %s: %v", req.Amount, mode, userID, err)
		return ledgerError(c, err, "Failed to reserve trade stake")
	}

	if err := database.CreateTrade(c.Context(), tx, trade); err != nil {
		log.Printf("PlaceTrade: failed to create trade for user %s (after debit): %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save trade after debiting stake"})
	}

	if err := tx.Commit(c.Context()); err != nil {
		log.Printf("PlaceTrade: failed to commit for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing trade"})
	}

	log.Printf("Trade %s placed for user %s (%s %s, stake %.2f)", trade.ID, userID, trade.TradingMode, trade.Symbol, trade.Amount)

	// Notification direction depends on who placed the trade.
	title := "Trade placed"
	message := fmt.Sprintf("Your %s trade on %s for %.2f is open.", trade.TradingMode, trade.Symbol, trade.Amount)
	if tradeFrom == "admin" {
		title = "Trade opened for you"
		message = fmt.Sprintf("An account manager opened a %s trade on %s for %.2f.", trade.TradingMode, trade.Symbol, trade.Amount)
	}
	notify.Publish(c.Context(), notify.Event{
		UserID: userID, From: tradeFrom, Icon: "trade",
		Title: title, Message: message, Route: "/trades",
	})

	return c.Status(fiber.StatusCreated).JSON(trade)
}

// ResolveTradeRequest defines the JSON body for resolving a trade.
type ResolveTradeRequest struct {
	Status       string  `json:"status"` // won, lost, rejected
	ProfitOrLoss float64 `json:"profit_or_loss"`
}

// resolveTrade settles one trade for one user. Shared by the admin
// approval route and the user's auto-resolve acknowledgement; both go
// through the same processed=false gate, so settlement is exactly-once
// no matter which path wins the race.
func resolveTrade(c *fiber.Ctx, userID, tradeID uuid.UUID) error {
	req := new(ResolveTradeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	res, err := ledger.ParseResolution(req.Status)
	if err != nil {
		return ledgerError(c, err, "Invalid status")
	}
	if res == ledger.Cancelled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Use the cancel endpoint to cancel a trade"})
	}

	tx, err := database.DB.Begin(c.Context())
	if err != nil {
		log.Printf("ResolveTrade: failed to begin transaction for trade %s: %v", tradeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	trade, err := database.SettleTrade(c.Context(), tx, userID, tradeID, res, req.ProfitOrLoss)
	if err != nil {
		log.Printf("ResolveTrade: settle failed for trade %s: %v", tradeID, err)
		return ledgerError(c, err, "Failed to resolve trade")
	}

	mode, err := ledger.ParseMode(trade.TradingMode)
	if err != nil {
		log.Printf("ResolveTrade: trade %s has invalid mode %q: %v", tradeID, trade.TradingMode, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Trade record is inconsistent"})
	}

	deltas, err := ledger.Settle(res, mode, trade.Amount, req.ProfitOrLoss)
	if err != nil {
		return ledgerError(c, err, "Invalid settlement")
	}
	if err := database.ApplyDeltas(c.Context(), tx, userID, deltas); err != nil {
		log.Printf("ResolveTrade: ledger apply failed for trade %s: %v", tradeID, err)
		return ledgerError(c, err, "Failed to settle trade")
	}

	if err := tx.Commit(c.Context()); err != nil {
		log.Printf("ResolveTrade: failed to commit for trade %s: %v", tradeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing settlement"})
	}

	log.Printf("Trade %s resolved %s for user %s (stake %.2f, p/l %.2f)", trade.ID, res, userID, trade.Amount, req.ProfitOrLoss)

	notify.Publish(c.Context(), notify.Event{
		UserID: userID, From: "system", Icon: "trade",
		Title:   fmt.Sprintf("Trade %s", res),
		Message: fmt.Sprintf("Your %s trade on %s settled as %s.", trade.TradingMode, trade.Symbol, res),
		Route:   "/trades",
	})

	return c.Status(fiber.StatusOK).JSON(trade)
}

// ResolveOwnTrade is the user-facing acknowledgement of an expired
// auto-trade.
func ResolveOwnTrade(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trade ID format"})
	}
	return resolveTrade(c, userID, tradeID)
}

// AdminResolveTrade settles any user's trade. The target user comes
// from the trade record itself.
func AdminResolveTrade(c *fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trade ID format"})
	}

	trade, err := database.GetTradeByID(c.Context(), tradeID)
	if err != nil {
		log.Printf("AdminResolveTrade: lookup failed for trade %s: %v", tradeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trade"})
	}
	if trade == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trade not found"})
	}
	return resolveTrade(c, trade.UserID, tradeID)
}

// CancelTradeRequest carries the refund credited on cancellation.
type CancelTradeRequest struct {
	Amount float64 `json:"amount"`
}

// CancelTrade forces an open trade to cancelled and refunds the
// supplied amount to the mode's balance, in one transaction.
func CancelTrade(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trade ID format"})
	}

	req := new(CancelTradeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if req.Amount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Refund amount must not be negative"})
	}

	tx, err := database.DB.Begin(c.Context())
	if err != nil {
		log.Printf("CancelTrade: failed to begin transaction for trade %s: %v", tradeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	trade, err := database.SettleTrade(c.Context(), tx, userID, tradeID, ledger.Cancelled, req.Amount)
	if err != nil {
		log.Printf("CancelTrade: settle failed for trade %s: %v", tradeID, err)
		return ledgerError(c, err, "Failed to cancel trade")
	}

	mode, err := ledger.ParseMode(trade.TradingMode)
	if err != nil {
		log.Printf("CancelTrade: trade %s has invalid mode %q: %v", tradeID, trade.TradingMode, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Trade record is inconsistent"})
	}

	deltas, err := ledger.Settle(ledger.Cancelled, mode, trade.Amount, req.Amount)
	if err != nil {
		return ledgerError(c, err, "Invalid cancellation")
	}
	if err := database.ApplyDeltas(c.Context(), tx, userID, deltas); err != nil {
		log.Printf("CancelTrade: refund failed for trade %s: %v", tradeID, err)
		return ledgerError(c, err, "Failed to refund cancelled trade")
	}

	if err := tx.Commit(c.Context()); err != nil {
		log.Printf("CancelTrade: failed to commit for trade %s: %v", tradeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing cancellation"})
	}

	log.Printf("Trade %s cancelled for user %s (refund %.2f)", trade.ID, userID, req.Amount)
	return c.Status(fiber.StatusOK).JSON(trade)
}

// GetTrades retrieves the authenticated user's trades.
func GetTrades(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	trades, err := database.GetUserTrades(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching trades for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trades"})
	}
	return c.Status(fiber.StatusOK).JSON(trades)
}

// GetTradeByID retrieves a specific trade owned by the caller.
func GetTradeByID(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trade ID format"})
	}

	trade, err := database.GetTradeByID(c.Context(), tradeID)
	if err != nil {
		log.Printf("Error fetching trade %s: %v", tradeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trade details"})
	}
	if trade == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trade not found"})
	}
	if trade.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not have permission to view this trade"})
	}
	return c.Status(fiber.StatusOK).JSON(trade)
}

// AdminListTrades returns every trade across all users.
func AdminListTrades(c *fiber.Ctx) error {
	trades, err := database.ListAllTrades(c.Context())
	if err != nil {
		log.Printf("Error listing trades: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trades"})
	}
	return c.Status(fiber.StatusOK).JSON(trades)
}

// AdminDeleteTrade removes a trade record. No ledger effect.
func AdminDeleteTrade(c *fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trade ID format"})
	}

	if err := database.DeleteTrade(c.Context(), tradeID); err != nil {
		log.Printf("Error deleting trade %s: %v", tradeID, err)
		return ledgerError(c, err, "Failed to delete trade")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Trade deleted"})
}
