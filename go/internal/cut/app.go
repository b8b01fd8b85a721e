package cut

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

// Result is an applied cut.
type Result struct {
	Transaction *models.Transaction
	BuyOuts     []models.BuyOut
}

// App releases rostered players and charges their buy-outs.
type App struct {
	store  store.Store
	locker lock.Locker
	calc   *ledger.Calculator
}

// NewApp creates a new cut App
func NewApp(s store.Store, locker lock.Locker, r *rules.Rules) *App {
	return &App{
		store:  s,
		locker: locker,
		calc:   ledger.NewCalculator(r.BuyOutTable()),
	}
}

// ProcessCut releases playerID from franchiseID. For every season the contract has left
// the salary comes off payroll and the buy-out for that season goes on the cap.
func (a *App) ProcessCut(ctx context.Context, clock models.LeagueClock, franchiseID, playerID uuid.UUID, source models.Source) (*Result, error) {
	if source == "" {
		source = models.SourceManual
	}

	unlock, err := a.locker.Lock(ctx, lock.FranchiseKey(franchiseID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock franchise: %w", err)
	}
	defer unlock()

	var result *Result
	err = a.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := ledger.ConfirmSeason(ctx, tx, clock); err != nil {
			return err
		}
		f, c, err := a.validate(ctx, tx, clock, franchiseID, playerID, source)
		if err != nil {
			return err
		}

		schedule := a.calc.Schedule(*c, clock.Season)
		deltas := a.deltas(*c, clock.Season, schedule)

		var problems ledger.Problems
		for _, key := range deltas.Keys() {
			_, err := tx.Budgets().Get(ctx, key.FranchiseID, key.Season)
			if errors.Is(err, store.ErrNotFound) {
				problems.Addf("%s has no budget for %d", f.Name, key.Season)
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to load budget: %w", err)
			}
		}
		if err := problems.Err(); err != nil {
			return err
		}

		for _, key := range deltas.Keys() {
			if err := tx.Budgets().ApplyDelta(ctx, key, deltas[key]); err != nil {
				return fmt.Errorf("failed to update budget: %w", err)
			}
		}
		if err := tx.Contracts().Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("failed to delete contract: %w", err)
		}

		entry := &models.FAEntry{
			FranchiseID: franchiseID,
			Drop: &models.FAMove{
				PlayerID:   c.PlayerID,
				PlayerName: c.PlayerName,
				Terms:      c.Terms(),
				BuyOuts:    schedule,
			},
		}
		txn := models.NewTransaction(entry, clock.Season, clock.Now, source)
		if err := tx.Transactions().Append(ctx, txn); err != nil {
			return fmt.Errorf("failed to record cut: %w", err)
		}

		result = &Result{Transaction: txn, BuyOuts: schedule}
		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			log.Debug().Err(err).Str("franchise_id", franchiseID.String()).Msg("cut rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to process cut: %w", err)
	}

	total := 0
	for _, b := range result.BuyOuts {
		total += b.Amount
	}
	log.Info().
		Str("franchise_id", franchiseID.String()).
		Str("player_id", playerID.String()).
		Int("buy_out_total", total).
		Str("source", string(source)).
		Msg("player cut")
	return result, nil
}

func (a *App) validate(ctx context.Context, tx store.Tx, clock models.LeagueClock, franchiseID, playerID uuid.UUID, source models.Source) (*models.Franchise, *models.Contract, error) {
	f, err := tx.Franchises().Get(ctx, franchiseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, &ledger.ValidationError{Problems: []string{fmt.Sprintf("franchise %s not found", franchiseID)}}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load franchise: %w", err)
	}

	c, err := tx.Contracts().GetByPlayer(ctx, playerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to load contract: %w", err)
	}

	var problems ledger.Problems
	switch {
	case c == nil || c.FranchiseID != franchiseID:
		problems.Addf("player %s is not rostered by %s", playerID, f.Name)
	case c.IsRFARights():
		problems.Addf("%s holds only RFA rights to %s, there is no contract to cut", f.Name, c.PlayerName)
	case *c.EndYear < clock.Season:
		problems.Addf("%s's contract with %s expired after %d", c.PlayerName, f.Name, *c.EndYear)
	}
	if !source.IsOverride() && !clock.CutsAllowed(franchiseID) {
		if clock.Phase() == models.PhasePlayoffs {
			problems.Addf("%s is out of the playoffs and cannot cut players until the season ends", f.Name)
		} else {
			problems.Addf("cuts are not allowed during %s", clock.Phase())
		}
	}
	if err := problems.Err(); err != nil {
		return nil, nil, err
	}
	return f, c, nil
}

// deltas frees the salary and recoverable share for each remaining season and charges
// the buy-out owed in its place.
func (a *App) deltas(c models.Contract, season int, schedule []models.BuyOut) ledger.Deltas {
	owed := make(map[int]int, len(schedule))
	for _, b := range schedule {
		owed[b.Season] = b.Amount
	}

	ds := ledger.Deltas{}
	for s := season; s <= *c.EndYear; s++ {
		if !c.ActiveIn(s) {
			continue
		}
		ds.Add(c.FranchiseID, s, models.PayrollDelta(-*c.Salary, -a.calc.RecoverableShare(c, s)))
		ds.Add(c.FranchiseID, s, models.BuyOutDelta(owed[s]))
	}
	return ds
}
