package ledger

import (
	"errors"
	"testing"
)

func TestSettleEffectTable(t *testing.T) {
	tests := []struct {
		name    string
		res     Resolution
		mode    Mode
		stake   float64
		profit  float64
		want    Deltas
		wantErr error
	}{
		{
			name: "won live credits stake plus profit and earned",
			res:  Won, mode: Live, stake: 40, profit: 10,
			want: Deltas{Balance: 50, EarnedTotal: 10},
		},
		{
			name: "won demo credits demo balance only",
			res:  Won, mode: Demo, stake: 40, profit: 10,
			want: Deltas{DemoBalance: 50},
		},
		{
			name: "lost live debits earned with clamp",
			res:  Lost, mode: Live, stake: 20,
			want: Deltas{EarnedTotal: -20, ClampEarned: true},
		},
		{
			name: "lost demo has no ledger effect",
			res:  Lost, mode: Demo, stake: 20,
			want: Deltas{},
		},
		{
			name: "rejected live refunds stake",
			res:  Rejected, mode: Live, stake: 25,
			want: Deltas{Balance: 25},
		},
		{
			name: "rejected demo refunds stake to demo",
			res:  Rejected, mode: Demo, stake: 25,
			want: Deltas{DemoBalance: 25},
		},
		{
			name: "cancelled live credits the supplied refund",
			res:  Cancelled, mode: Live, stake: 25, profit: 25,
			want: Deltas{Balance: 25},
		},
		{
			name: "cancelled demo credits the supplied refund to demo",
			res:  Cancelled, mode: Demo, stake: 25, profit: 25,
			want: Deltas{DemoBalance: 25},
		},
		{
			name: "negative stake rejected",
			res:  Won, mode: Live, stake: -1, profit: 1,
			wantErr: ErrValidation,
		},
		{
			name: "won with negative profit rejected",
			res:  Won, mode: Live, stake: 10, profit: -5,
			wantErr: ErrValidation,
		},
		{
			name: "negative cancellation refund rejected",
			res:  Cancelled, mode: Live, stake: 10, profit: -5,
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Settle(tt.res, tt.mode, tt.stake, tt.profit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Settle error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Settle returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Settle = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// account mirrors how the store applies deltas: credits add, the earned
// debit clamps at zero when ClampEarned is set.
type account struct {
	balance     float64
	demoBalance float64
	earnedTotal float64
}

func (a *account) apply(d Deltas) {
	a.balance += d.Balance
	a.demoBalance += d.DemoBalance
	a.earnedTotal += d.EarnedTotal
	if d.ClampEarned && a.earnedTotal < 0 {
		a.earnedTotal = 0
	}
}

func TestPlacementInsufficientFunds(t *testing.T) {
	// Account with balance=100, stake 150: the conditional debit matches
	// zero rows, the whole placement fails, and the balance is untouched.
	acct := account{balance: 100}
	const stake = 150.0

	if err := PlaceCheck(Live, stake); err != nil {
		t.Fatalf("PlaceCheck rejected a well-formed placement: %v", err)
	}
	if debited := acct.balance >= stake; debited {
		t.Fatal("debit should not match with insufficient balance")
	}
	if acct.balance != 100 {
		t.Errorf("balance changed on failed placement: %v", acct.balance)
	}
}

func TestWinSettlement(t *testing.T) {
	acct := account{balance: 100}

	// Place: balance 100 -> 60.
	acct.balance -= 40

	d, err := Settle(Won, Live, 40, 10)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	acct.apply(d)

	if acct.balance != 110 {
		t.Errorf("balance after win = %v, want 110", acct.balance)
	}
	if acct.earnedTotal != 10 {
		t.Errorf("earnedTotal after win = %v, want 10", acct.earnedTotal)
	}
}

func TestLossClampsEarnedTotal(t *testing.T) {
	acct := account{earnedTotal: 5}

	d, err := Settle(Lost, Live, 20, 0)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	acct.apply(d)

	if acct.earnedTotal != 0 {
		t.Errorf("earnedTotal = %v, want clamp to 0", acct.earnedTotal)
	}
}

func TestWithdrawalReservationRoundTrip(t *testing.T) {
	// Request reserves funds immediately; a rejection restores both
	// fields exactly, including when earned_total was smaller than the
	// requested amount (the store records the actual earned debit).
	tests := []struct {
		name    string
		balance float64
		earned  float64
		amount  float64
	}{
		{name: "earned covers the amount", balance: 100, earned: 50, amount: 30},
		{name: "earned smaller than amount", balance: 100, earned: 5, amount: 30},
		{name: "earned zero", balance: 100, earned: 0, amount: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := account{balance: tt.balance, earnedTotal: tt.earned}

			// Request: debit balance, clamp-debit earned, remember the
			// actual earned debit.
			earnedDebited := tt.amount
			if earnedDebited > acct.earnedTotal {
				earnedDebited = acct.earnedTotal
			}
			acct.balance -= tt.amount
			acct.earnedTotal -= earnedDebited

			if acct.balance != tt.balance-tt.amount {
				t.Fatalf("balance after request = %v", acct.balance)
			}
			if acct.earnedTotal < 0 {
				t.Fatalf("earnedTotal went negative: %v", acct.earnedTotal)
			}

			// Reject: refund the amount and the recorded earned debit.
			acct.balance += tt.amount
			acct.earnedTotal += earnedDebited

			if acct.balance != tt.balance {
				t.Errorf("balance after refund = %v, want %v", acct.balance, tt.balance)
			}
			if acct.earnedTotal != tt.earned {
				t.Errorf("earnedTotal after refund = %v, want %v", acct.earnedTotal, tt.earned)
			}
		})
	}
}

func TestPlaceCheck(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		amount  float64
		wantErr bool
	}{
		{name: "live positive", mode: Live, amount: 10},
		{name: "demo positive", mode: Demo, amount: 0.5},
		{name: "zero amount", mode: Live, amount: 0, wantErr: true},
		{name: "negative amount", mode: Demo, amount: -3, wantErr: true},
		{name: "unknown mode", mode: Mode("paper"), amount: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PlaceCheck(tt.mode, tt.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("PlaceCheck(%q, %v) error = %v, wantErr %v", tt.mode, tt.amount, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("PlaceCheck error is not ErrValidation: %v", err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Live "); err != nil || m != Live {
		t.Errorf("ParseMode(Live) = %v, %v", m, err)
	}
	if m, err := ParseMode("DEMO"); err != nil || m != Demo {
		t.Errorf("ParseMode(DEMO) = %v, %v", m, err)
	}
	if _, err := ParseMode("sandbox"); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseMode(sandbox) error = %v, want ErrValidation", err)
	}
}

func TestParseResolution(t *testing.T) {
	for _, s := range []string{"won", "Lost", "REJECTED", " cancelled "} {
		if _, err := ParseResolution(s); err != nil {
			t.Errorf("ParseResolution(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseResolution("open"); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseResolution(open) error = %v, want ErrValidation", err)
	}
}
