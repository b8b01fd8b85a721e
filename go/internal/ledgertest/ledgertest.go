// Package ledgertest builds small leagues on the in-memory store for tests.
package ledgertest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rules"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
	"github.com/mcdev12/dynasty-ledger/go/internal/store/memory"
)

// League is a seeded league: franchises, budgets for the current and next two
// seasons, and the league row with default key dates.
type League struct {
	Store      *memory.Store
	Rules      *rules.Rules
	Franchises []models.Franchise
	Season     int

	calc *ledger.Calculator
}

// New seeds a league of n franchises named "Franchise 1".."Franchise n".
func New(t testing.TB, n, season int) *League {
	t.Helper()
	r := rules.Default()
	l := &League{
		Store:  memory.New(),
		Rules:  r,
		Season: season,
		calc:   ledger.NewCalculator(r.BuyOutTable()),
	}

	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		for i := 1; i <= n; i++ {
			f := models.Franchise{
				ID:        uuid.New(),
				Name:      fmt.Sprintf("Franchise %d", i),
				CreatedAt: time.Date(season, time.January, 1, 0, 0, 0, 0, time.UTC),
			}
			if err := tx.Franchises().Create(ctx, &f); err != nil {
				return err
			}
			l.Franchises = append(l.Franchises, f)

			for s := season; s <= season+2; s++ {
				_, err := tx.Budgets().CreateIfMissing(ctx, &models.Budget{
					FranchiseID: f.ID,
					Season:      s,
					BaseAmount:  r.BaseAmount,
					Available:   r.BaseAmount,
				})
				if err != nil {
					return err
				}
			}
		}
		return tx.League().Save(ctx, &models.League{
			CurrentSeason: season,
			KeyDates:      map[int]models.KeyDates{season: r.DefaultKeyDates(season)},
		})
	})
	return l
}

// Do runs fn in a unit of work and fails the test on error.
func (l *League) Do(t testing.TB, fn func(ctx context.Context, tx store.Tx) error) {
	t.Helper()
	if err := l.Store.InTx(context.Background(), fn); err != nil {
		t.Fatalf("ledgertest: %v", err)
	}
}

// ID returns the id of the i-th franchise, counting from 1.
func (l *League) ID(i int) uuid.UUID {
	return l.Franchises[i-1].ID
}

// ClockAt returns the league clock at now.
func (l *League) ClockAt(t testing.TB, now time.Time) models.LeagueClock {
	t.Helper()
	var clock models.LeagueClock
	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		league, err := tx.League().Get(ctx)
		if err != nil {
			return err
		}
		clock = league.ClockAt(now)
		return nil
	})
	return clock
}

// Clock returns the league clock one day into phase of the current season.
func (l *League) Clock(t testing.TB, phase models.Phase) models.LeagueClock {
	t.Helper()
	kd := l.Rules.DefaultKeyDates(l.Season)
	var at time.Time
	switch phase {
	case models.PhaseEarlyOffseason:
		at = kd.Auction.AddDate(0, -1, 0)
	case models.PhasePreseason:
		at = kd.Auction
	case models.PhaseRegularSeason:
		at = kd.CutDay
	case models.PhasePostDeadline:
		at = kd.TradeDeadline
	case models.PhasePlayoffs:
		at = kd.PlayoffStart
	case models.PhaseDeadPeriod:
		at = kd.SeasonEnd
	default:
		t.Fatalf("ledgertest: unknown phase %q", phase)
	}
	return l.ClockAt(t, at.Add(24*time.Hour))
}

// Sign gives franchise i a contract and charges its payroll to every budget it covers.
// A zero start makes a single-season deal ending at end.
func (l *League) Sign(t testing.TB, i int, name string, salary, start, end int) models.Contract {
	t.Helper()
	c := models.Contract{
		ID:          uuid.New(),
		PlayerID:    uuid.New(),
		PlayerName:  name,
		FranchiseID: l.ID(i),
		Salary:      models.IntPtr(salary),
		EndYear:     models.IntPtr(end),
	}
	if start != 0 {
		c.StartYear = models.IntPtr(start)
	}

	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Contracts().Create(ctx, &c); err != nil {
			return err
		}
		for s := c.FirstYear(); s <= end; s++ {
			key := models.BudgetKey{FranchiseID: c.FranchiseID, Season: s}
			if _, err := tx.Budgets().Get(ctx, key.FranchiseID, s); err != nil {
				continue
			}
			delta := models.PayrollDelta(salary, l.calc.RecoverableShare(c, s))
			if err := tx.Budgets().ApplyDelta(ctx, key, delta); err != nil {
				return err
			}
		}
		return nil
	})
	return c
}

// Rights gives franchise i RFA rights to a new player, exercisable in season.
func (l *League) Rights(t testing.TB, i int, name string, season int) models.Contract {
	t.Helper()
	c := models.Contract{
		ID:           uuid.New(),
		PlayerID:     uuid.New(),
		PlayerName:   name,
		FranchiseID:  l.ID(i),
		RightsSeason: models.IntPtr(season),
	}
	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		return tx.Contracts().Create(ctx, &c)
	})
	return c
}

// Pick mints a pick for franchise i.
func (l *League) Pick(t testing.TB, i, season, round int) models.Pick {
	t.Helper()
	p := models.Pick{
		ID:                  uuid.New(),
		Season:              season,
		Round:               round,
		OriginalFranchiseID: l.ID(i),
		CurrentFranchiseID:  l.ID(i),
		Status:              models.PickStatusAvailable,
	}
	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Picks().CreateIfMissing(ctx, &p)
		return err
	})
	return p
}

// Adjust applies a raw delta to a budget row.
func (l *League) Adjust(t testing.TB, i, season int, d models.BudgetDelta) {
	t.Helper()
	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		return tx.Budgets().ApplyDelta(ctx, models.BudgetKey{FranchiseID: l.ID(i), Season: season}, d)
	})
}

// Budget returns franchise i's budget row for season.
func (l *League) Budget(t testing.TB, i, season int) models.Budget {
	t.Helper()
	var b *models.Budget
	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		var err error
		b, err = tx.Budgets().Get(ctx, l.ID(i), season)
		return err
	})
	return *b
}

// Contract returns the current contract for a player, or nil.
func (l *League) Contract(t testing.TB, playerID uuid.UUID) *models.Contract {
	t.Helper()
	for _, c := range l.Store.Snapshot().Contracts {
		if c.PlayerID == playerID {
			return &c
		}
	}
	return nil
}

// AssertBalanced fails the test if any budget row breaks the available formula.
func (l *League) AssertBalanced(t testing.TB) {
	t.Helper()
	for _, b := range l.Store.Snapshot().Budgets {
		if b.Available != b.ExpectedAvailable() {
			t.Errorf("budget %s/%d: available %d, formula gives %d",
				b.FranchiseID, b.Season, b.Available, b.ExpectedAvailable())
		}
	}
}
