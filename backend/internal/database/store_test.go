package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/tradedesk/backend/internal/ledger"
	"github.com/user/tradedesk/backend/internal/models"
)

// scriptedRow returns canned values (or an error) for one QueryRow call.
type scriptedRow struct {
	scan func(dest ...any) error
}

func (r scriptedRow) Scan(dest ...any) error { return r.scan(dest...) }

type recordedCall struct {
	sql  string
	args []any
}

// fakeTx records every statement a store runs and feeds scripted rows
// back to QueryRow. Methods of the embedded interface beyond Exec and
// QueryRow are never reached by these tests.
type fakeTx struct {
	pgx.Tx
	rows    []pgx.Row
	execs   []recordedCall
	queries []recordedCall
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, recordedCall{sql: sql, args: args})
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, recordedCall{sql: sql, args: args})
	if len(f.rows) == 0 {
		return scriptedRow{scan: func(...any) error { return pgx.ErrNoRows }}
	}
	row := f.rows[0]
	f.rows = f.rows[1:]
	return row
}

func tradeRow(tradeID, userID uuid.UUID) pgx.Row {
	now := time.Now()
	return scriptedRow{scan: func(dest ...any) error {
		*(dest[0].(*uuid.UUID)) = tradeID
		*(dest[1].(*uuid.UUID)) = userID
		*(dest[2].(*string)) = "BTC-USD"
		*(dest[3].(*string)) = "live"
		*(dest[4].(*float64)) = 40
		*(dest[5].(*float64)) = 10
		*(dest[6].(*string)) = "won"
		*(dest[7].(*string)) = "user"
		*(dest[8].(*bool)) = true
		*(dest[9].(*int64)) = 0
		*(dest[10].(*time.Time)) = now
		*(dest[11].(*time.Time)) = now
		return nil
	}}
}

func TestSettleTradeGuardsOnProcessed(t *testing.T) {
	tradeID, userID := uuid.New(), uuid.New()
	tx := &fakeTx{rows: []pgx.Row{tradeRow(tradeID, userID)}}

	trade, err := SettleTrade(context.Background(), tx, userID, tradeID, ledger.Won, 10)
	if err != nil {
		t.Fatalf("SettleTrade: %v", err)
	}
	if trade.ID != tradeID || trade.Amount != 40 {
		t.Errorf("settled trade = %+v", trade)
	}

	if len(tx.queries) != 1 {
		t.Fatalf("SettleTrade ran %d queries, want 1", len(tx.queries))
	}
	guard := tx.queries[0].sql
	if !strings.Contains(guard, "processed = false") {
		t.Errorf("settle statement lost its unprocessed-only match:\n%s", guard)
	}
	if !strings.Contains(guard, "user_id") {
		t.Errorf("settle statement lost its owner match:\n%s", guard)
	}
}

func TestSettleTradeSecondResolutionIsGatedOut(t *testing.T) {
	// No scripted rows: the guarded UPDATE matches nothing, which is what
	// the second of two racing resolutions observes.
	tx := &fakeTx{}

	_, err := SettleTrade(context.Background(), tx, uuid.New(), uuid.New(), ledger.Won, 10)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("SettleTrade error = %v, want ErrNotFound", err)
	}
	if len(tx.execs) != 0 {
		t.Errorf("settle ran %d further statements after the guard matched zero rows", len(tx.execs))
	}
}

func TestTransferAssetManualModeDebitsFiatField(t *testing.T) {
	userID := uuid.New()
	txn := &models.WalletTransaction{
		UserID:        userID,
		Symbol:        "BTC",
		Amount:        0.5,
		AmountFiat:    300,
		WalletAddress: "bc1qexternal",
	}
	tx := &fakeTx{rows: []pgx.Row{
		scriptedRow{scan: func(dest ...any) error { *(dest[0].(*bool)) = true; return nil }},
		scriptedRow{scan: func(dest ...any) error {
			*(dest[0].(*uuid.UUID)) = uuid.New()
			*(dest[1].(*time.Time)) = time.Now()
			return nil
		}},
	}}

	if err := TransferAsset(context.Background(), tx, txn); err != nil {
		t.Fatalf("TransferAsset: %v", err)
	}

	if len(tx.execs) != 1 {
		t.Fatalf("manual-mode transfer ran %d updates, want only the holding debit", len(tx.execs))
	}
	debit := tx.execs[0]
	if !strings.Contains(debit.sql, "manual_fiat_balance") {
		t.Errorf("manual-mode debit hit the wrong column:\n%s", debit.sql)
	}
	if debit.args[0] != 300.0 {
		t.Errorf("manual-mode debit amount = %v, want the fiat amount 300", debit.args[0])
	}
	if txn.Amount != 300 {
		t.Errorf("logged amount = %v, want the fiat amount in manual mode", txn.Amount)
	}
}

func TestTransferAssetAutomaticModeToTradeBalance(t *testing.T) {
	userID := uuid.New()
	txn := &models.WalletTransaction{
		UserID:        userID,
		Symbol:        "BTC",
		Amount:        0.5,
		AmountFiat:    30000,
		WalletAddress: TradeBalanceAddress,
	}
	tx := &fakeTx{rows: []pgx.Row{
		scriptedRow{scan: func(dest ...any) error { *(dest[0].(*bool)) = false; return nil }},
		scriptedRow{scan: func(dest ...any) error {
			*(dest[0].(*uuid.UUID)) = uuid.New()
			*(dest[1].(*time.Time)) = time.Now()
			return nil
		}},
	}}

	if err := TransferAsset(context.Background(), tx, txn); err != nil {
		t.Fatalf("TransferAsset: %v", err)
	}

	if len(tx.execs) != 2 {
		t.Fatalf("trade-balance transfer ran %d updates, want debit + credit", len(tx.execs))
	}
	debit := tx.execs[0]
	if !strings.Contains(debit.sql, "asset_holdings") || strings.Contains(debit.sql, "manual_fiat_balance") {
		t.Errorf("automatic-mode debit hit the wrong column:\n%s", debit.sql)
	}
	if debit.args[0] != 0.5 {
		t.Errorf("automatic-mode debit amount = %v, want the asset amount 0.5", debit.args[0])
	}
	credit := tx.execs[1]
	if !strings.Contains(credit.sql, "accounts") {
		t.Errorf("trade-balance credit hit the wrong table:\n%s", credit.sql)
	}
	if credit.args[0] != 30000.0 {
		t.Errorf("trade-balance credit = %v, want the fiat amount 30000", credit.args[0])
	}
	if txn.Amount != 0.5 {
		t.Errorf("logged amount = %v, want the asset amount in automatic mode", txn.Amount)
	}
}
