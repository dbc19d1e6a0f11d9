// Package ledger holds the settlement rules for the trading platform:
// which account fields a trade resolution credits or debits, the mode
// and resolution tags, and the error taxonomy shared by the stores and
// handlers. It is pure; the database package applies the resulting
// deltas as conditional SQL updates.
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Stores wrap these with detail; handlers map them to
// HTTP statuses with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyProcessed  = errors.New("already processed")
)

// Mode selects which balance field a trade touches.
type Mode string

const (
	Live Mode = "live"
	Demo Mode = "demo"
)

// ParseMode normalizes a client-supplied trading mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Live:
		return Live, nil
	case Demo:
		return Demo, nil
	default:
		return "", fmt.Errorf("%w: trading mode must be 'live' or 'demo'", ErrValidation)
	}
}

// Resolution is a terminal trade state.
type Resolution string

const (
	Won       Resolution = "won"
	Lost      Resolution = "lost"
	Rejected  Resolution = "rejected"
	Cancelled Resolution = "cancelled"
)

// ParseResolution normalizes a client-supplied resolution.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(strings.ToLower(strings.TrimSpace(s))) {
	case Won:
		return Won, nil
	case Lost:
		return Lost, nil
	case Rejected:
		return Rejected, nil
	case Cancelled:
		return Cancelled, nil
	default:
		return "", fmt.Errorf("%w: status must be one of won, lost, rejected, cancelled", ErrValidation)
	}
}

// Deltas is the ledger effect of one settlement on one account. All
// deltas are credits (non-negative) except EarnedTotal, which may be a
// debit; ClampEarned means earned_total floors at zero rather than
// failing when the debit exceeds it.
type Deltas struct {
	Balance     float64
	DemoBalance float64
	EarnedTotal float64
	ClampEarned bool
}

// Zero reports whether the settlement touches no balance field.
func (d Deltas) Zero() bool {
	return d.Balance == 0 && d.DemoBalance == 0 && d.EarnedTotal == 0
}

// Settle returns the account deltas for resolving a trade. stake is the
// amount debited at placement; profit is the profit-or-loss amount
// (for Cancelled it is the caller-supplied refund).
//
//	won/live:   balance += stake + profit; earned += profit
//	won/demo:   demo += stake + profit
//	lost/live:  earned = max(0, earned - stake)
//	lost/demo:  no effect
//	rejected:   stake refunded to the mode's balance
//	cancelled:  refund credited to the mode's balance
func Settle(res Resolution, mode Mode, stake, profit float64) (Deltas, error) {
	if stake < 0 {
		return Deltas{}, fmt.Errorf("%w: stake must not be negative", ErrValidation)
	}

	switch res {
	case Won:
		if profit < 0 {
			return Deltas{}, fmt.Errorf("%w: won trade requires a non-negative profit amount", ErrValidation)
		}
		if mode == Demo {
			return Deltas{DemoBalance: stake + profit}, nil
		}
		return Deltas{Balance: stake + profit, EarnedTotal: profit}, nil

	case Lost:
		if mode == Demo {
			return Deltas{}, nil
		}
		return Deltas{EarnedTotal: -stake, ClampEarned: true}, nil

	case Rejected:
		if mode == Demo {
			return Deltas{DemoBalance: stake}, nil
		}
		return Deltas{Balance: stake}, nil

	case Cancelled:
		if profit < 0 {
			return Deltas{}, fmt.Errorf("%w: cancellation refund must not be negative", ErrValidation)
		}
		if mode == Demo {
			return Deltas{DemoBalance: profit}, nil
		}
		return Deltas{Balance: profit}, nil
	}

	return Deltas{}, fmt.Errorf("%w: unknown resolution %q", ErrValidation, res)
}

// PlaceCheck validates a trade placement before any balance is touched.
func PlaceCheck(mode Mode, amount float64) error {
	if mode != Live && mode != Demo {
		return fmt.Errorf("%w: trading mode must be 'live' or 'demo'", ErrValidation)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: trade amount must be positive", ErrValidation)
	}
	return nil
}

// ExpiredSentinel is written to a cancelled trade's expire_seconds so
// clients treat it as already expired.
const ExpiredSentinel int64 = -30
