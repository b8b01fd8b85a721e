package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
	"github.com/mcdev12/dynasty-ledger/go/internal/store/memory"
)

func TestInTxDiscardsFailedWork(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	franchiseID := uuid.New()

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Budgets().CreateIfMissing(ctx, &models.Budget{FranchiseID: franchiseID, Season: 2024, BaseAmount: 1000, Available: 1000})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := s.Snapshot()

	boom := errors.New("boom")
	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		key := models.BudgetKey{FranchiseID: franchiseID, Season: 2024}
		if err := tx.Budgets().ApplyDelta(ctx, key, models.PayrollDelta(50, 20)); err != nil {
			return err
		}
		if err := tx.Contracts().Create(ctx, &models.Contract{PlayerID: uuid.New(), FranchiseID: franchiseID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("failed unit of work leaked changes (-before +after):\n%s", diff)
	}
}

func TestContractUniquePerPlayer(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	playerID := uuid.New()

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Contracts().Create(ctx, &models.Contract{PlayerID: playerID, FranchiseID: uuid.New()}); err != nil {
			return err
		}
		return tx.Contracts().Create(ctx, &models.Contract{PlayerID: playerID, FranchiseID: uuid.New()})
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestTransactionListFilter(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	a, b := uuid.New(), uuid.New()
	base := time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC)

	entries := []models.Entry{
		&models.FAEntry{FranchiseID: a, Drop: &models.FAMove{PlayerID: uuid.New()}},
		&models.TradeEntry{TradeNumber: 7, Parties: []models.TradeReceipt{{FranchiseID: a}, {FranchiseID: b}}},
		&models.FAEntry{FranchiseID: b, Add: &models.FAMove{PlayerID: uuid.New()}},
	}
	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for i, e := range entries {
			txn := models.NewTransaction(e, 2024, base.Add(time.Duration(i)*time.Hour), models.SourceManual)
			if err := tx.Transactions().Append(ctx, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	var got []models.Transaction
	var next int
	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		got, err = tx.Transactions().List(ctx, store.TransactionFilter{FranchiseID: &a})
		if err != nil {
			return err
		}
		next, err = tx.Transactions().NextTradeNumber(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d transactions for franchise a, want 2", len(got))
	}
	if got[0].Type != models.TransactionTypeTrade {
		t.Errorf("newest first: got %s first", got[0].Type)
	}
	if next != 8 {
		t.Errorf("NextTradeNumber = %d, want 8", next)
	}
}
