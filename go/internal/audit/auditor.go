// Package audit recomputes the budget ledger from contracts and transaction history and
// reports every row that has drifted from what is stored.
package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rules"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

// Drift is one ledger field whose stored value disagrees with the recomputed one.
type Drift struct {
	FranchiseID uuid.UUID `json:"franchise_id"`
	Season      int       `json:"season"`
	Field       string    `json:"field"`
	Stored      int       `json:"stored"`
	Expected    int       `json:"expected"`
}

func (d Drift) String() string {
	return fmt.Sprintf("%s/%d %s: stored %d, expected %d", d.FranchiseID, d.Season, d.Field, d.Stored, d.Expected)
}

// Report is the outcome of one sweep.
type Report struct {
	Season  int     `json:"season"`
	Checked int     `json:"checked"`
	Drift   []Drift `json:"drift"`
}

// Clean reports whether the sweep found nothing.
func (r *Report) Clean() bool {
	return len(r.Drift) == 0
}

// Auditor verifies the budget ledger. It only reads.
type Auditor struct {
	store store.Store
	rules *rules.Rules
	calc  *ledger.Calculator
}

func NewAuditor(s store.Store, r *rules.Rules) *Auditor {
	return &Auditor{store: s, rules: r, calc: ledger.NewCalculator(r.BuyOutTable())}
}

// VerifyBudgets rebuilds every budget row for season and later. Payroll and recoverable
// come from current contracts, buy-outs from logged cuts, and cash from logged trades.
// Each stored row is also checked against the available formula on its own.
func (a *Auditor) VerifyBudgets(ctx context.Context, season int) (*Report, error) {
	var (
		budgets   []models.Budget
		contracts []models.Contract
		history   []models.Transaction
	)
	err := a.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if budgets, err = tx.Budgets().ListFrom(ctx, season); err != nil {
			return fmt.Errorf("failed to list budgets: %w", err)
		}
		if contracts, err = tx.Contracts().List(ctx); err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		history, err = tx.Transactions().List(ctx, store.TransactionFilter{
			Types: []models.TransactionType{models.TransactionTypeFA, models.TransactionTypeTrade},
		})
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	expected := a.rebuild(budgets, contracts, history, season)

	report := &Report{Season: season, Checked: len(budgets)}
	for _, stored := range budgets {
		key := models.BudgetKey{FranchiseID: stored.FranchiseID, Season: stored.Season}
		want := expected[key]
		report.Drift = append(report.Drift, compare(stored, want)...)
	}
	sort.SliceStable(report.Drift, func(i, j int) bool {
		if report.Drift[i].Season != report.Drift[j].Season {
			return report.Drift[i].Season < report.Drift[j].Season
		}
		return report.Drift[i].FranchiseID.String() < report.Drift[j].FranchiseID.String()
	})

	if report.Clean() {
		log.Info().Int("season", season).Int("checked", report.Checked).Msg("budget ledger verified")
	} else {
		log.Error().
			Int("season", season).
			Int("checked", report.Checked).
			Int("drift", len(report.Drift)).
			Msg("budget ledger drift detected")
	}
	return report, nil
}

// rebuild derives what every budget row should hold.
func (a *Auditor) rebuild(budgets []models.Budget, contracts []models.Contract, history []models.Transaction, from int) map[models.BudgetKey]models.Budget {
	out := make(map[models.BudgetKey]models.Budget, len(budgets))
	for _, b := range budgets {
		out[models.BudgetKey{FranchiseID: b.FranchiseID, Season: b.Season}] = models.Budget{
			FranchiseID: b.FranchiseID,
			Season:      b.Season,
			BaseAmount:  b.BaseAmount,
		}
	}
	touch := func(franchiseID uuid.UUID, season int, fn func(*models.Budget)) {
		key := models.BudgetKey{FranchiseID: franchiseID, Season: season}
		b, ok := out[key]
		if !ok {
			return
		}
		fn(&b)
		out[key] = b
	}

	for _, c := range contracts {
		if c.IsRFARights() {
			continue
		}
		for s := max(from, c.FirstYear()); s <= *c.EndYear; s++ {
			salary, share := *c.Salary, a.calc.RecoverableShare(c, s)
			touch(c.FranchiseID, s, func(b *models.Budget) {
				b.Payroll += salary
				b.Recoverable += share
			})
		}
	}

	for _, t := range history {
		switch e := t.Entry.(type) {
		case *models.FAEntry:
			if e.Drop == nil {
				continue
			}
			for _, bo := range e.Drop.BuyOuts {
				amount := bo.Amount
				touch(e.FranchiseID, bo.Season, func(b *models.Budget) { b.BuyOuts += amount })
			}
		case *models.TradeEntry:
			for _, r := range e.Parties {
				for _, c := range r.Cash {
					amount, to := c.Amount, r.FranchiseID
					touch(to, c.Season, func(b *models.Budget) { b.CashIn += amount })
					touch(c.FromFranchiseID, c.Season, func(b *models.Budget) { b.CashOut += amount })
				}
			}
		}
	}

	for key, b := range out {
		b.Available = b.ExpectedAvailable()
		out[key] = b
	}
	return out
}

func compare(stored, want models.Budget) []Drift {
	var drift []Drift
	check := func(field string, s, w int) {
		if s != w {
			drift = append(drift, Drift{
				FranchiseID: stored.FranchiseID,
				Season:      stored.Season,
				Field:       field,
				Stored:      s,
				Expected:    w,
			})
		}
	}
	check("payroll", stored.Payroll, want.Payroll)
	check("buy_outs", stored.BuyOuts, want.BuyOuts)
	check("cash_in", stored.CashIn, want.CashIn)
	check("cash_out", stored.CashOut, want.CashOut)
	check("recoverable", stored.Recoverable, want.Recoverable)
	check("available", stored.Available, want.Available)
	// A row can be internally inconsistent even when every input agrees.
	check("available_formula", stored.Available, stored.ExpectedAvailable())
	return drift
}
