package handlers

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/user/tradedesk/backend/internal/ledger"
)

func TestLedgerErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: fmt.Errorf("%w: bad amount", ledger.ErrValidation), wantStatus: fiber.StatusBadRequest},
		{name: "insufficient funds", err: fmt.Errorf("%w: balance has 10, need 20", ledger.ErrInsufficientFunds), wantStatus: fiber.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("trade x: %w", ledger.ErrNotFound), wantStatus: fiber.StatusNotFound},
		{name: "already processed", err: fmt.Errorf("request y: %w", ledger.ErrAlreadyProcessed), wantStatus: fiber.StatusConflict},
		{name: "unknown error", err: errors.New("connection reset"), wantStatus: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return ledgerError(c, tt.err, "something went wrong")
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
