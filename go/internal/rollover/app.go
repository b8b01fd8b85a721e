package rollover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/lock"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rules"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

// Request describes one season boundary.
type Request struct {
	DraftOrder DraftOrder
	// KeyDates overrides the calendar defaults for the new season. Zero dates keep the default.
	KeyDates models.KeyDates
	// Season is the season being opened. Zero means the season after the current one.
	// Naming it explicitly makes a retried rollover converge instead of advancing twice.
	Season int
}

// Result summarizes an applied rollover.
type Result struct {
	Season         int
	PicksCreated   int
	BudgetsCreated int
	Converted      int
	Expired        int
	Lapsed         int
	PicksNumbered  int
	Transactions   []models.Transaction
}

// App advances the league from one season to the next.
type App struct {
	store  store.Store
	locker lock.Locker
	rules  *rules.Rules
}

// NewApp creates a new rollover App
func NewApp(s store.Store, locker lock.Locker, r *rules.Rules) *App {
	return &App{store: s, locker: locker, rules: r}
}

// Bootstrap opens the league at season: the league row with default key dates, plus
// picks and budgets for season through season+2 for every franchise.
func (a *App) Bootstrap(ctx context.Context, now time.Time, season int) (*Result, error) {
	unlock, err := a.locker.Lock(ctx, lock.LeagueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to lock league: %w", err)
	}
	defer unlock()

	result := &Result{Season: season}
	err = a.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.League().Get(ctx)
		if err == nil {
			return &ledger.ValidationError{Problems: []string{"league is already initialized"}}
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to load league: %w", err)
		}

		franchises, err := tx.Franchises().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list franchises: %w", err)
		}
		if len(franchises) == 0 {
			return &ledger.ValidationError{Problems: []string{"no franchises to open the league with"}}
		}

		for s := season; s <= season+2; s++ {
			picks, budgets, err := a.open(ctx, tx, franchises, s)
			if err != nil {
				return err
			}
			result.PicksCreated += picks
			result.BudgetsCreated += budgets
		}

		return tx.League().Save(ctx, &models.League{
			CurrentSeason: season,
			KeyDates:      map[int]models.KeyDates{season: a.rules.DefaultKeyDates(season)},
			UpdatedAt:     now,
		})
	})
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to bootstrap league: %w", err)
	}

	log.Info().
		Int("season", season).
		Int("picks_created", result.PicksCreated).
		Int("budgets_created", result.BudgetsCreated).
		Msg("league bootstrapped")
	return result, nil
}

// ProcessSeasonRollover closes the current season and opens the next. A malformed
// draft order is rejected before anything is written. Every step is idempotent, so
// running the same request twice leaves the same state as running it once.
func (a *App) ProcessSeasonRollover(ctx context.Context, now time.Time, req Request) (*Result, error) {
	unlock, err := a.lockAll(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *Result
	err = a.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		league, err := tx.League().Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to load league: %w", err)
		}
		franchises, err := tx.Franchises().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list franchises: %w", err)
		}

		season := req.Season
		if season == 0 {
			season = league.CurrentSeason + 1
		}
		if season != league.CurrentSeason && season != league.CurrentSeason+1 {
			return &ledger.ValidationError{Problems: []string{
				fmt.Sprintf("cannot roll over to %d while the league is in %d", season, league.CurrentSeason),
			}}
		}
		if err := validateOrder(req.DraftOrder, franchises); err != nil {
			return err
		}

		result = &Result{Season: season}
		if result.PicksCreated, result.BudgetsCreated, err = a.open(ctx, tx, franchises, season+2); err != nil {
			return err
		}
		if err := a.lapseRights(ctx, tx, now, season, result); err != nil {
			return err
		}
		if err := a.resolveExpiring(ctx, tx, now, season, result); err != nil {
			return err
		}
		if result.PicksNumbered, err = a.numberPicks(ctx, tx, req.DraftOrder, season); err != nil {
			return err
		}

		if league.KeyDates == nil {
			league.KeyDates = make(map[int]models.KeyDates)
		}
		dates, ok := league.KeyDates[season]
		if !ok {
			dates = a.rules.DefaultKeyDates(season)
		}
		league.KeyDates[season] = dates.Merge(req.KeyDates)
		league.CurrentSeason = season
		league.PlayoffAlive = nil
		league.UpdatedAt = now
		if err := tx.League().Save(ctx, league); err != nil {
			return fmt.Errorf("failed to save league: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			log.Debug().Err(err).Msg("season rollover rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to roll over season: %w", err)
	}

	log.Info().
		Int("season", result.Season).
		Int("picks_created", result.PicksCreated).
		Int("budgets_created", result.BudgetsCreated).
		Int("converted", result.Converted).
		Int("expired", result.Expired).
		Int("lapsed", result.Lapsed).
		Msg("season rolled over")
	return result, nil
}

// lockAll takes the league key plus every franchise so no other mutation interleaves.
func (a *App) lockAll(ctx context.Context) (lock.Unlock, error) {
	var ids []uuid.UUID
	err := a.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		franchises, err := tx.Franchises().List(ctx)
		if err != nil {
			return err
		}
		for _, f := range franchises {
			ids = append(ids, f.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list franchises: %w", err)
	}

	unlock, err := a.locker.Lock(ctx, append(lock.FranchiseKeys(ids...), lock.LeagueKey)...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock league: %w", err)
	}
	return unlock, nil
}

// open mints the picks and budget rows for season that do not exist yet.
func (a *App) open(ctx context.Context, tx store.Tx, franchises []models.Franchise, season int) (int, int, error) {
	picks, budgets := 0, 0
	for _, f := range franchises {
		for round := 1; round <= a.rules.DraftRounds; round++ {
			created, err := tx.Picks().CreateIfMissing(ctx, &models.Pick{
				ID:                  uuid.New(),
				Season:              season,
				Round:               round,
				OriginalFranchiseID: f.ID,
				CurrentFranchiseID:  f.ID,
				Status:              models.PickStatusAvailable,
			})
			if err != nil {
				return 0, 0, fmt.Errorf("failed to create pick: %w", err)
			}
			if created {
				picks++
			}
		}

		created, err := tx.Budgets().CreateIfMissing(ctx, &models.Budget{
			FranchiseID: f.ID,
			Season:      season,
			BaseAmount:  a.rules.BaseAmount,
			Available:   a.rules.BaseAmount,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("failed to create budget: %w", err)
		}
		if created {
			budgets++
		}
	}
	return picks, budgets, nil
}

// OpenFranchise gives a franchise that joined after the league opened the picks and
// budgets every other franchise holds: the current season and the two after it.
// Before Bootstrap there is nothing to open.
func (a *App) OpenFranchise(ctx context.Context, tx store.Tx, f models.Franchise) error {
	league, err := tx.League().Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load league: %w", err)
	}

	picks, budgets := 0, 0
	for s := league.CurrentSeason; s <= league.CurrentSeason+2; s++ {
		p, b, err := a.open(ctx, tx, []models.Franchise{f}, s)
		if err != nil {
			return err
		}
		picks += p
		budgets += b
	}

	log.Info().
		Str("franchise_id", f.ID.String()).
		Int("season", league.CurrentSeason).
		Int("picks_created", picks).
		Int("budgets_created", budgets).
		Msg("franchise opened")
	return nil
}

// lapseRights drops RFA rights that were not exercised in the season they were granted for.
func (a *App) lapseRights(ctx context.Context, tx store.Tx, now time.Time, season int, result *Result) error {
	rights, err := tx.Contracts().ListRights(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rfa rights: %w", err)
	}
	for _, c := range rights {
		if c.RightsSeason != nil && *c.RightsSeason >= season {
			continue
		}
		if err := tx.Contracts().Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("failed to delete lapsed rights: %w", err)
		}
		txn, err := a.record(ctx, tx, models.TransactionTypeRFALapsed, c, season, now)
		if err != nil {
			return err
		}
		result.Lapsed++
		result.Transactions = append(result.Transactions, *txn)
	}
	return nil
}

// resolveExpiring converts or releases every salaried contract that ended in the
// outgoing season, per the RFA policy in force for that season.
func (a *App) resolveExpiring(ctx context.Context, tx store.Tx, now time.Time, season int, result *Result) error {
	outgoing := season - 1
	policy := a.rules.RFAPolicyFor(outgoing)

	expiring, err := tx.Contracts().ListExpiring(ctx, outgoing)
	if err != nil {
		return fmt.Errorf("failed to list expiring contracts: %w", err)
	}
	for _, c := range expiring {
		kind := models.TransactionTypeExpiry
		if policy.Converts(c.Length()) {
			kind = models.TransactionTypeRFAConversion
			rights := c
			rights.Salary, rights.StartYear, rights.EndYear = nil, nil, nil
			rights.RightsSeason = models.IntPtr(season)
			if err := tx.Contracts().Update(ctx, &rights); err != nil {
				return fmt.Errorf("failed to convert contract to rfa rights: %w", err)
			}
			result.Converted++
		} else {
			if err := tx.Contracts().Delete(ctx, c.ID); err != nil {
				return fmt.Errorf("failed to delete expired contract: %w", err)
			}
			result.Expired++
		}

		txn, err := a.record(ctx, tx, kind, c, outgoing, now)
		if err != nil {
			return err
		}
		result.Transactions = append(result.Transactions, *txn)
	}
	return nil
}

func (a *App) record(ctx context.Context, tx store.Tx, kind models.TransactionType, c models.Contract, season int, now time.Time) (*models.Transaction, error) {
	entry := &models.ContractResolutionEntry{
		Kind:        kind,
		FranchiseID: c.FranchiseID,
		PlayerID:    c.PlayerID,
		PlayerName:  c.PlayerName,
		Terms:       c.Terms(),
	}
	txn := models.NewTransaction(entry, season, now, models.SourceSystem)
	if err := tx.Transactions().Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", kind, err)
	}
	return txn, nil
}

// numberPicks stamps the overall pick number on every pick of the season being drafted.
func (a *App) numberPicks(ctx context.Context, tx store.Tx, order DraftOrder, season int) (int, error) {
	picks, err := tx.Picks().ListBySeason(ctx, season)
	if err != nil {
		return 0, fmt.Errorf("failed to list picks: %w", err)
	}
	numbered := 0
	for _, p := range picks {
		slot, ok := order[p.OriginalFranchiseID]
		if !ok {
			continue
		}
		if err := tx.Picks().SetPickNumber(ctx, p.ID, PickNumber(p.Round, slot, len(order))); err != nil {
			return 0, fmt.Errorf("failed to number pick: %w", err)
		}
		numbered++
	}
	return numbered, nil
}
