package database

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/tradedesk/backend/internal/config"
)

var DB *pgxpool.Pool

// InitDB initializes the database connection pool and applies the schema.
func InitDB() {
	dbURL := config.DatabaseURL()

	var err error
	DB, err = pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}

	if err := DB.Ping(context.Background()); err != nil {
		log.Fatalf("Database ping failed: %v", err)
	}

	if err := InitSchema(context.Background()); err != nil {
		log.Fatalf("Schema init failed: %v", err)
	}

	log.Println("Successfully connected to the database")
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("Database connection closed")
	}
}
