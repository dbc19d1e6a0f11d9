// Package seed ensures a bootstrap admin account exists so a fresh
// deployment has someone who can review requests and resolve trades.
package seed

import (
	"context"
	"log"
	"os"

	"github.com/user/tradedesk/backend/internal/auth"
	"github.com/user/tradedesk/backend/internal/database"
)

// EnsureAdmin creates the admin user named by ADMIN_USERNAME and
// ADMIN_PASSWORD if it does not exist yet. Skipped when the variables
// are unset.
func EnsureAdmin(ctx context.Context) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Println("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	existing, err := database.GetUserByUsername(ctx, username)
	if err != nil {
		log.Fatalf("Admin seed check failed: %v", err)
	}
	if existing != nil {
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	if _, err := database.CreateUser(ctx, username, hash, "admin", 0); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	log.Printf("Seeded admin user %q", username)
}
