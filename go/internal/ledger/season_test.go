package ledger_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/ledgertest"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
	"github.com/mcdev12/dynasty-ledger/go/internal/store/memory"
)

func TestConfirmSeason(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	clock := l.Clock(t, models.PhasePreseason)

	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		return ledger.ConfirmSeason(ctx, tx, clock)
	})

	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		league, err := tx.League().Get(ctx)
		if err != nil {
			return err
		}
		league.CurrentSeason = 2025
		return tx.League().Save(ctx, league)
	})

	err := l.Store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return ledger.ConfirmSeason(ctx, tx, clock)
	})
	if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), "the league is in season 2025, not 2024") {
		t.Errorf("expected stale season error, got %v", err)
	}

	err = memory.New().InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return ledger.ConfirmSeason(ctx, tx, clock)
	})
	if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), "league is not initialized") {
		t.Errorf("expected uninitialized league error, got %v", err)
	}
}
