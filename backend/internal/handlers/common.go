package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/user/tradedesk/backend/internal/ledger"
)

// ledgerError maps the store error taxonomy onto HTTP responses.
// Unrecognized errors get a generic 500; the caller logs the detail.
func ledgerError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrAlreadyProcessed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
