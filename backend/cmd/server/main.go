package main

import (
	"context"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/user/tradedesk/backend/internal/config"
	"github.com/user/tradedesk/backend/internal/database"
	"github.com/user/tradedesk/backend/internal/handlers"
	"github.com/user/tradedesk/backend/internal/middleware"
	"github.com/user/tradedesk/backend/internal/seed"
	"github.com/user/tradedesk/backend/internal/ticker"
	internalws "github.com/user/tradedesk/backend/internal/websocket"
)

func main() {
	config.Load()

	// Initialize Database (also applies the schema)
	database.InitDB()
	defer database.CloseDB()

	// Bootstrap admin account (no-op when already present)
	seed.EnsureAdmin(context.Background())

	// Initialize WebSocket Hub
	internalws.InitializeGlobalHub()

	// Initialize Price Ticker (starts broadcasting to the hub)
	ticker.InitTicker()

	app := fiber.New()

	// --- WebSocket Routes ---
	// Defined before the /api group so they don't inherit its middleware
	wsGroup := app.Group("/ws")
	wsGroup.Use("/", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	// Combined price + notification stream; auth via ?token=
	wsGroup.Get("/stream", websocket.New(handlers.StreamWSEndpoint))

	// --- API Routes ---
	api := app.Group("/api")

	// Health check (Public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("TradeDesk API is healthy!")
	})

	// Market quotes (Public)
	api.Get("/prices", handlers.GetPrices)

	// Auth routes (Public)
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", handlers.Signup)
	authGroup.Post("/login", handlers.Login)

	// --- Protected Routes ---
	api.Use(middleware.Protected())

	// Account
	api.Get("/account", handlers.GetAccount)
	api.Get("/account/holdings", handlers.GetHoldings)
	api.Get("/notifications", handlers.GetNotifications)
	api.Patch("/notifications/read", handlers.MarkNotificationsRead)

	// Trades
	tradesGroup := api.Group("/trades")
	tradesGroup.Post("/", handlers.PlaceTrade)
	tradesGroup.Get("/", handlers.GetTrades)
	tradesGroup.Get("/:id", handlers.GetTradeByID)
	tradesGroup.Patch("/:id/cancel", handlers.CancelTrade)
	tradesGroup.Patch("/:id/resolve", handlers.ResolveOwnTrade) // expired auto-trade ack

	// Withdrawals
	withdrawalsGroup := api.Group("/withdrawals")
	withdrawalsGroup.Post("/", handlers.RequestWithdrawal)
	withdrawalsGroup.Get("/", handlers.GetWithdrawals)

	// Deposits
	depositsGroup := api.Group("/deposits")
	depositsGroup.Post("/", handlers.RequestDeposit)
	depositsGroup.Get("/", handlers.GetDeposits)

	// Wallet
	walletGroup := api.Group("/wallet")
	walletGroup.Post("/send", handlers.SendAsset)
	walletGroup.Get("/transactions", handlers.GetWalletTransactions)

	// Rewards
	rewardsGroup := api.Group("/rewards")
	rewardsGroup.Get("/", handlers.GetRewards)
	rewardsGroup.Patch("/:id/claim", handlers.ClaimReward)

	// --- Admin Routes ---
	admin := api.Group("/admin", middleware.AdminOnly())
	admin.Get("/users", handlers.AdminListUsers)
	admin.Patch("/users/:id/fund", handlers.AdminFundAccount)
	admin.Patch("/users/:id/asset-mode", handlers.AdminSetAssetMode)
	admin.Get("/trades", handlers.AdminListTrades)
	admin.Patch("/trades/:id/resolve", handlers.AdminResolveTrade)
	admin.Delete("/trades/:id", handlers.AdminDeleteTrade)
	admin.Get("/withdrawals", handlers.AdminListWithdrawals)
	admin.Patch("/withdrawals/:id", handlers.AdminReviewWithdrawal)
	admin.Get("/deposits", handlers.AdminListDeposits)
	admin.Patch("/deposits/:id", handlers.AdminReviewDeposit)
	admin.Patch("/assets/:id/adjust", handlers.AdminAdjustHolding)
	admin.Post("/rewards", handlers.AdminGrantReward)

	addr := config.ListenAddr()
	log.Println("Starting server on", addr)
	log.Fatal(app.Listen(addr))
}
