package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/lock"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rules"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

// App validates and applies multi-party trades.
type App struct {
	store  store.Store
	locker lock.Locker
	rules  *rules.Rules
	calc   *ledger.Calculator
}

// NewApp creates a new trade App
func NewApp(s store.Store, locker lock.Locker, r *rules.Rules) *App {
	return &App{
		store:  s,
		locker: locker,
		rules:  r,
		calc:   ledger.NewCalculator(r.BuyOutTable()),
	}
}

// ProcessTrade validates every party of a trade and, if all of it is legal, applies it
// in one unit of work. A validation failure is a *ledger.ValidationError and nothing
// is written.
func (a *App) ProcessTrade(ctx context.Context, clock models.LeagueClock, parties []Party, opts Options) (*Result, error) {
	if len(parties) < 2 {
		return nil, &ledger.ValidationError{Problems: []string{"a trade needs at least two parties"}}
	}

	ids := make([]uuid.UUID, len(parties))
	for i, p := range parties {
		ids[i] = p.FranchiseID
	}
	unlock, err := a.locker.Lock(ctx, lock.FranchiseKeys(ids...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock franchises: %w", err)
	}
	defer unlock()

	source := opts.Source
	if source == "" {
		source = models.SourceManual
	}

	var result *Result
	err = a.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := ledger.ConfirmSeason(ctx, tx, clock); err != nil {
			return err
		}
		plan, err := a.validate(ctx, tx, clock, parties)
		if err != nil {
			return err
		}
		if opts.ValidateOnly {
			result = &Result{Warnings: plan.warnings}
			return nil
		}

		txn, err := a.apply(ctx, tx, clock, source, plan)
		if err != nil {
			return err
		}
		result = &Result{Transaction: txn, Warnings: plan.warnings}
		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			log.Debug().Err(err).Msg("trade rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to process trade: %w", err)
	}
	return result, nil
}

// apply writes a validated plan. Contracts were loaded before any write, so every
// receipt records the terms and owner the player had going into the trade.
func (a *App) apply(ctx context.Context, tx store.Tx, clock models.LeagueClock, source models.Source, plan *plan) (*models.Transaction, error) {
	for _, mv := range plan.players {
		moved := mv.contract
		moved.FranchiseID = mv.to
		if err := tx.Contracts().Update(ctx, &moved); err != nil {
			return nil, fmt.Errorf("failed to reassign player %s: %w", mv.contract.PlayerID, err)
		}
	}

	for _, mv := range plan.picks {
		if err := tx.Picks().UpdateOwner(ctx, mv.pick.ID, mv.to); err != nil {
			return nil, fmt.Errorf("failed to reassign pick %s: %w", mv.pick.ID, err)
		}
	}

	for _, key := range plan.deltas.Keys() {
		if err := tx.Budgets().ApplyDelta(ctx, key, plan.deltas[key]); err != nil {
			return nil, fmt.Errorf("failed to update budget: %w", err)
		}
	}

	number, err := tx.Transactions().NextTradeNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assign trade number: %w", err)
	}

	entry := &models.TradeEntry{TradeNumber: number, Parties: plan.receipts()}
	txn := models.NewTransaction(entry, clock.Season, clock.Now, source)
	if err := tx.Transactions().Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record trade: %w", err)
	}

	log.Info().
		Int("trade_number", number).
		Int("parties", len(plan.parties)).
		Int("players", len(plan.players)).
		Int("picks", len(plan.picks)).
		Int("warnings", len(plan.warnings)).
		Msg("trade processed")
	return txn, nil
}
