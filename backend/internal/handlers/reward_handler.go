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

// GetRewards lists the caller's unclaimed gift rewards.
func GetRewards(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	rewards, err := database.GetUserRewards(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching rewards for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve rewards"})
	}
	return c.Status(fiber.StatusOK).JSON(rewards)
}

// ClaimReward credits the reward amount and removes the reward in one
// transaction; a concurrent duplicate claim gets a 404 and no credit.
func ClaimReward(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}
	rewardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reward ID format"})
	}

	amount, err := database.ClaimReward(c.Context(), userID, rewardID)
	if err != nil {
		log.Printf("ClaimReward: failed for user %s reward %s: %v", userID, rewardID, err)
		return ledgerError(c, err, "Failed to claim reward")
	}

	log.Printf("Reward %s claimed by user %s (%.2f)", rewardID, userID, amount)

	notify.Publish(c.Context(), notify.Event{
		UserID: userID, From: "system", Icon: "gift",
		Title:   "Reward claimed",
		Message: fmt.Sprintf("%.2f was added to your trade balance.", amount),
		Route:   "/account",
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"amount": amount})
}

// GrantRewardRequest defines the admin body for granting a reward.
type GrantRewardRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Amount float64   `json:"amount"`
}

// AdminGrantReward creates a single-use gift reward for a user.
func AdminGrantReward(c *fiber.Ctx) error {
	req := new(GrantRewardRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Positive amount is required"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = "Gift reward"
	}

	reward := &models.GiftReward{
		UserID: req.UserID,
		Title:  req.Title,
		Amount: req.Amount,
	}
	if err := database.CreateReward(c.Context(), reward); err != nil {
		log.Printf("GrantReward: failed for user %s: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to grant reward"})
	}

	notify.Publish(c.Context(), notify.Event{
		UserID: reward.UserID, From: "admin", Icon: "gift",
		Title:   "You received a reward",
		Message: fmt.Sprintf("%s: %.2f. Claim it from your account page.", reward.Title, reward.Amount),
		Route:   "/account",
	})

	return c.Status(fiber.StatusCreated).JSON(reward)
}
