package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// newTradeTestApp mounts PlaceTrade behind a stub of the auth
// middleware's locals.
func newTradeTestApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uuid.New())
		c.Locals("role", "user")
		return c.Next()
	})
	app.Post("/trades", PlaceTrade)
	return app
}

func TestPlaceTradeRejectsNegativeExpiry(t *testing.T) {
	app := newTradeTestApp()

	body := strings.NewReader(`{"symbol":"BTC-USD","trading_mode":"live","amount":25,"expire_seconds":-5}`)
	req := httptest.NewRequest("POST", "/trades", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want %d for a pre-expired placement", resp.StatusCode, fiber.StatusBadRequest)
	}
}

func TestPlaceTradeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing symbol", body: `{"trading_mode":"live","amount":25}`},
		{name: "unknown mode", body: `{"symbol":"BTC-USD","trading_mode":"paper","amount":25}`},
		{name: "zero amount", body: `{"symbol":"BTC-USD","trading_mode":"live","amount":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTradeTestApp()

			req := httptest.NewRequest("POST", "/trades", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
			}
		})
	}
}
