package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform login.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`    // Store hash, exclude from JSON responses
	Role      string    `json:"role"` // "user" or "admin"
	CreatedAt time.Time `json:"created_at"`
}

// Account holds a user's ledger balances. Every mutation goes through
// a conditional update in the database package; no field may go negative.
type Account struct {
	UserID          uuid.UUID `json:"user_id"`
	Balance         float64   `json:"balance"`      // live trading funds
	DemoBalance     float64   `json:"demo_balance"` // simulated funds
	EarnedTotal     float64   `json:"earned_total"` // cumulative realized profit, floor 0
	TotalDeposit    float64   `json:"total_deposit"`
	ManualAssetMode bool      `json:"manual_asset_mode"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AssetHolding is a per-symbol wallet balance. Automatic mode transfers
// debit Balance; manual mode transfers debit ManualFiatBalance.
type AssetHolding struct {
	UserID            uuid.UUID `json:"user_id"`
	Symbol            string    `json:"symbol"` // e.g., "BTC", "ETH"
	Balance           float64   `json:"balance"`
	ManualBalance     float64   `json:"manual_balance"`
	ManualFiatBalance float64   `json:"manual_fiat_balance"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Trade lifecycle: created "open" with Processed=false, then exactly one
// terminal transition (won/lost/rejected/cancelled) settles the ledger
// and sets Processed=true.
type Trade struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Symbol        string    `json:"symbol"`       // e.g., "BTC-USD", "EUR-USD"
	TradingMode   string    `json:"trading_mode"` // "live" or "demo"
	Amount        float64   `json:"amount"`       // stake, debited on placement
	ProfitOrLoss  float64   `json:"profit_or_loss"`
	Status        string    `json:"status"`     // "open", "won", "lost", "rejected", "cancelled"
	TradeFrom     string    `json:"trade_from"` // "user" or "admin"
	Processed     bool      `json:"processed"`
	ExpireSeconds int64     `json:"expire_seconds"` // negative means already expired
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WithdrawalRequest reserves funds at request time: Amount is debited
// from the balance immediately and EarnedDebited records how much of
// earned_total was actually removed, so a rejection refunds exactly.
type WithdrawalRequest struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        float64   `json:"amount"`
	EarnedDebited float64   `json:"earned_debited"`
	Method        string    `json:"method"`
	Address       string    `json:"address"`
	Status        string    `json:"status"` // "pending", "approved", "not-approved"
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DepositRequest credits the account only when an admin approves it.
type DepositRequest struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	DepositType string    `json:"deposit_type"` // "trade" or "wallet"
	ProofImage  string    `json:"proof_image"`  // reference into external image storage
	Status      string    `json:"status"`       // "pending", "approved", "not-approved"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WalletTransaction logs an outbound asset transfer. AmountFiat carries
// the fiat value; for manual-mode accounts it is also the debited amount.
type WalletTransaction struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Symbol        string    `json:"symbol"`
	Amount        float64   `json:"amount"`
	AmountFiat    float64   `json:"amount_fiat"`
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
}

// GiftReward is a single-use credit; claiming removes the row and adds
// Amount to the account balance in one transaction.
type GiftReward struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a per-user inbox entry, also pushed over WebSocket.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FromName  string    `json:"from_name"`
	Icon      string    `json:"icon"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Route     string    `json:"route"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
