package trade_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/ledgertest"
	"github.com/mcdev12/dynasty-ledger/go/internal/lock"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rollover"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
	"github.com/mcdev12/dynasty-ledger/go/internal/trade"
)

func newApp(l *ledgertest.League) *trade.App {
	return trade.NewApp(l.Store, lock.NewLocalLocker(), l.Rules)
}

func held(c models.Contract) trade.PlayerAsset {
	return trade.PlayerAsset{PlayerID: c.PlayerID, Terms: c.Terms()}
}

// Franchise 1 sends X ($50, 2024-2025) to Franchise 2 for Franchise 2's 2026 first.
func TestProcessTradeTwoTeams(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	x := l.Sign(t, 1, "Player X", 50, 2024, 2025)
	first := l.Pick(t, 2, 2026, 1)
	clock := l.Clock(t, models.PhasePreseason)

	a24, b24 := l.Budget(t, 1, 2024), l.Budget(t, 2, 2024)
	a25, b25 := l.Budget(t, 1, 2025), l.Budget(t, 2, 2025)

	res, err := newApp(l).ProcessTrade(context.Background(), clock, []trade.Party{
		{FranchiseID: l.ID(1), Picks: []uuid.UUID{first.ID}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
	}, trade.Options{})
	if err != nil {
		t.Fatalf("ProcessTrade: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	if got := l.Contract(t, x.PlayerID); got == nil || got.FranchiseID != l.ID(2) {
		t.Fatalf("Player X contract = %+v, want owned by Franchise 2", got)
	}
	snap := l.Store.Snapshot()
	for _, p := range snap.Picks {
		if p.ID == first.ID && p.CurrentFranchiseID != l.ID(1) {
			t.Errorf("2026 first owned by %s, want Franchise 1", p.CurrentFranchiseID)
		}
	}

	checks := []struct {
		name        string
		before      models.Budget
		after       models.Budget
		wantPayroll int
	}{
		{"Franchise 1 2024", a24, l.Budget(t, 1, 2024), -50},
		{"Franchise 2 2024", b24, l.Budget(t, 2, 2024), 50},
		{"Franchise 1 2025", a25, l.Budget(t, 1, 2025), -50},
		{"Franchise 2 2025", b25, l.Budget(t, 2, 2025), 50},
	}
	for _, c := range checks {
		if got := c.after.Payroll - c.before.Payroll; got != c.wantPayroll {
			t.Errorf("%s payroll moved %d, want %d", c.name, got, c.wantPayroll)
		}
		if got := c.after.Available - c.before.Available; got != -c.wantPayroll {
			t.Errorf("%s available moved %d, want %d", c.name, got, -c.wantPayroll)
		}
	}
	l.AssertBalanced(t)

	want := &models.TradeEntry{
		TradeNumber: 1,
		Parties: []models.TradeReceipt{
			{
				FranchiseID: l.ID(1),
				Picks: []models.TradedPick{{
					PickID:              first.ID,
					Season:              2026,
					Round:               1,
					OriginalFranchiseID: l.ID(2),
					FromFranchiseID:     l.ID(2),
				}},
			},
			{
				FranchiseID: l.ID(2),
				Players: []models.TradedPlayer{{
					PlayerID:        x.PlayerID,
					PlayerName:      "Player X",
					FromFranchiseID: l.ID(1),
					Terms:           x.Terms(),
				}},
			},
		},
	}
	if diff := cmp.Diff(want, res.Transaction.Entry); diff != "" {
		t.Errorf("trade entry mismatch (-want +got):\n%s", diff)
	}
	if len(snap.Transactions) != 1 || snap.Transactions[0].Type != models.TransactionTypeTrade {
		t.Errorf("expected one trade in the log, got %v", snap.Transactions)
	}
}

func TestProcessTradeRejectsWithoutWriting(t *testing.T) {
	l := ledgertest.New(t, 3, 2024)
	x := l.Sign(t, 1, "Player X", 50, 2024, 2025)
	outsider := l.Sign(t, 3, "Outsider", 10, 2024, 2024)
	used := l.Pick(t, 2, 2025, 1)
	l.Do(t, func(ctx context.Context, tx store.Tx) error {
		return tx.Picks().UpdateStatus(ctx, used.ID, models.PickStatusUsed)
	})
	big := l.Sign(t, 2, "Big Contract", 1100, 2024, 2024)
	preseason := l.Clock(t, models.PhasePreseason)
	regular := l.Clock(t, models.PhaseRegularSeason)

	tests := []struct {
		name    string
		clock   models.LeagueClock
		parties []trade.Party
		want    string
	}{
		{
			name:  "single party",
			clock: preseason,
			parties: []trade.Party{
				{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
			},
			want: "at least two parties",
		},
		{
			name:  "player held outside the trade",
			clock: preseason,
			parties: []trade.Party{
				{FranchiseID: l.ID(1), Players: []trade.PlayerAsset{held(outsider)}},
				{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
			},
			want: "Outsider is not held by another party",
		},
		{
			name:  "pick already used",
			clock: preseason,
			parties: []trade.Party{
				{FranchiseID: l.ID(1), Picks: []uuid.UUID{used.ID}},
				{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
			},
			want: "is used",
		},
		{
			name:  "stale terms",
			clock: preseason,
			parties: []trade.Party{
				{FranchiseID: l.ID(1), Picks: []uuid.UUID{}},
				{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{{
					PlayerID: x.PlayerID,
					Terms:    models.ContractTerms{Salary: models.IntPtr(40), StartYear: x.StartYear, EndYear: x.EndYear},
				}}},
			},
			want: "not $40 for 2024-2025",
		},
		{
			name:  "hard cap after cut day",
			clock: regular,
			parties: []trade.Party{
				{FranchiseID: l.ID(1), Players: []trade.PlayerAsset{held(big)}},
				{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
			},
			want: "over the hard cap for 2024",
		},
		{
			name:  "unknown franchise",
			clock: preseason,
			parties: []trade.Party{
				{FranchiseID: uuid.New(), Players: []trade.PlayerAsset{held(x)}},
				{FranchiseID: l.ID(2)},
			},
			want: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := l.Store.Snapshot()

			_, err := newApp(l).ProcessTrade(context.Background(), tt.clock, tt.parties, trade.Options{})
			if !errors.Is(err, ledger.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if diff := cmp.Diff(before, l.Store.Snapshot()); diff != "" {
				t.Errorf("rejected trade changed state (-before +after):\n%s", diff)
			}
		})
	}
}

func TestProcessTradeSoftCap(t *testing.T) {
	tests := []struct {
		name              string
		recoverableBefore int
		wantWarning       string
		wantError         string
	}{
		{name: "curable by cuts", recoverableBefore: 80, wantWarning: "$40 over the soft cap for 2025"},
		{name: "shortfall", recoverableBefore: 0, wantError: "$20 shortfall"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledgertest.New(t, 2, 2024)
			// A one-season $50 deal frees $20 if cut: a 60% buy-out of $30.
			y := l.Sign(t, 2, "Player Y", 50, 0, 2025)
			l.Adjust(t, 1, 2025, models.BuyOutDelta(990))
			l.Adjust(t, 1, 2025, models.BudgetDelta{Recoverable: tt.recoverableBefore})

			res, err := newApp(l).ProcessTrade(context.Background(), l.Clock(t, models.PhasePreseason), []trade.Party{
				{FranchiseID: l.ID(1), Players: []trade.PlayerAsset{held(y)}},
				{FranchiseID: l.ID(2)},
			}, trade.Options{})

			if tt.wantError != "" {
				if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), tt.wantError) {
					t.Fatalf("expected error mentioning %q, got %v", tt.wantError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ProcessTrade: %v", err)
			}
			if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], tt.wantWarning) {
				t.Errorf("warnings = %v, want one mentioning %q", res.Warnings, tt.wantWarning)
			}
			if got := l.Budget(t, 1, 2025).Available; got != -40 {
				t.Errorf("available = %d, want -40", got)
			}
			l.AssertBalanced(t)
		})
	}
}

func TestProcessTradeRosterLimit(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	l.Rules.RosterLimit = 2
	l.Sign(t, 2, "Keeper 1", 5, 2024, 2024)
	l.Sign(t, 2, "Keeper 2", 5, 2024, 2024)
	x := l.Sign(t, 1, "Player X", 5, 2024, 2024)
	pick := l.Pick(t, 2, 2025, 1)
	clock := l.Clock(t, models.PhasePreseason)

	before := l.Store.Snapshot()
	_, err := newApp(l).ProcessTrade(context.Background(), clock, []trade.Party{
		{FranchiseID: l.ID(1), Picks: []uuid.UUID{pick.ID}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
	}, trade.Options{})
	if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), "3 salaried players, over the limit of 2") {
		t.Fatalf("expected roster limit error, got %v", err)
	}
	if diff := cmp.Diff(before, l.Store.Snapshot()); diff != "" {
		t.Errorf("rejected trade changed state (-before +after):\n%s", diff)
	}

	// RFA rights take no roster spot.
	rights := l.Rights(t, 1, "Rights Guy", 2025)
	_, err = newApp(l).ProcessTrade(context.Background(), clock, []trade.Party{
		{FranchiseID: l.ID(1), Picks: []uuid.UUID{pick.ID}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(rights)}},
	}, trade.Options{})
	if err != nil {
		t.Fatalf("rights-only trade: %v", err)
	}
}

func TestProcessTradeCash(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	x := l.Sign(t, 1, "Player X", 20, 2024, 2024)
	clock := l.Clock(t, models.PhasePreseason)

	for _, season := range []int{2023, 2027} {
		_, err := newApp(l).ProcessTrade(context.Background(), clock, []trade.Party{
			{FranchiseID: l.ID(1), Cash: []trade.CashAsset{{Amount: 10, Season: season, FromFranchiseID: l.ID(2)}}},
			{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
		}, trade.Options{})
		if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), "outside the tradable seasons 2024-2026") {
			t.Errorf("cash for %d: expected season error, got %v", season, err)
		}
	}

	res, err := newApp(l).ProcessTrade(context.Background(), clock, []trade.Party{
		{FranchiseID: l.ID(1), Cash: []trade.CashAsset{{Amount: 15, Season: 2026, FromFranchiseID: l.ID(2)}}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
	}, trade.Options{})
	if err != nil {
		t.Fatalf("ProcessTrade: %v", err)
	}
	if got := l.Budget(t, 1, 2026); got.CashIn != 15 || got.Available != 1015 {
		t.Errorf("receiver 2026 budget = %+v", got)
	}
	if got := l.Budget(t, 2, 2026); got.CashOut != 15 || got.Available != 985 {
		t.Errorf("sender 2026 budget = %+v", got)
	}
	entry := res.Transaction.Entry.(*models.TradeEntry)
	if len(entry.Parties[0].Cash) != 1 || entry.Parties[0].Cash[0].Amount != 15 {
		t.Errorf("cash receipt = %+v", entry.Parties[0].Cash)
	}
	l.AssertBalanced(t)
}

func TestProcessTradeValidateOnlyAndNumbering(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	x := l.Sign(t, 1, "Player X", 20, 2024, 2025)
	y := l.Sign(t, 2, "Player Y", 20, 2024, 2025)
	app := newApp(l)
	clock := l.Clock(t, models.PhasePostDeadline)

	parties := []trade.Party{
		{FranchiseID: l.ID(1), Players: []trade.PlayerAsset{held(y)}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
	}

	before := l.Store.Snapshot()
	res, err := app.ProcessTrade(context.Background(), clock, parties, trade.Options{ValidateOnly: true})
	if err != nil {
		t.Fatalf("validate only: %v", err)
	}
	if res.Transaction != nil {
		t.Error("validate only should not record a transaction")
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "outside the normal trading window") {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if diff := cmp.Diff(before, l.Store.Snapshot()); diff != "" {
		t.Errorf("validate only changed state (-before +after):\n%s", diff)
	}

	first, err := app.ProcessTrade(context.Background(), clock, parties, trade.Options{})
	if err != nil {
		t.Fatalf("first trade: %v", err)
	}
	back := []trade.Party{
		{FranchiseID: l.ID(1), Players: []trade.PlayerAsset{held(x)}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(y)}},
	}
	second, err := app.ProcessTrade(context.Background(), clock, back, trade.Options{Source: models.SourceCommissioner})
	if err != nil {
		t.Fatalf("second trade: %v", err)
	}

	n1 := first.Transaction.Entry.(*models.TradeEntry).TradeNumber
	n2 := second.Transaction.Entry.(*models.TradeEntry).TradeNumber
	if n1 != 1 || n2 != 2 {
		t.Errorf("trade numbers = %d, %d, want 1, 2", n1, n2)
	}
	if second.Transaction.Source != models.SourceCommissioner {
		t.Errorf("source = %s", second.Transaction.Source)
	}
	if got := l.Contract(t, x.PlayerID).FranchiseID; got != l.ID(1) {
		t.Errorf("Player X back with %s, want Franchise 1", got)
	}
	l.AssertBalanced(t)
}

func TestProcessTradeCapAppliesToImprovedBalances(t *testing.T) {
	tests := []struct {
		name  string
		phase models.Phase
		want  string
	}{
		{name: "hard cap", phase: models.PhaseRegularSeason, want: "Franchise 1 would be $80 over the hard cap for 2024"},
		{name: "soft cap shortfall", phase: models.PhasePreseason, want: "a $80 shortfall"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledgertest.New(t, 2, 2024)
			l.Adjust(t, 1, 2024, models.BuyOutDelta(1100))
			pick := l.Pick(t, 1, 2025, 2)

			before := l.Store.Snapshot()
			_, err := newApp(l).ProcessTrade(context.Background(), l.Clock(t, tt.phase), []trade.Party{
				{FranchiseID: l.ID(1), Cash: []trade.CashAsset{{Amount: 20, Season: 2024, FromFranchiseID: l.ID(2)}}},
				{FranchiseID: l.ID(2), Picks: []uuid.UUID{pick.ID}},
			}, trade.Options{})
			if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
			if diff := cmp.Diff(before, l.Store.Snapshot()); diff != "" {
				t.Errorf("rejected trade changed state (-before +after):\n%s", diff)
			}
		})
	}
}

func TestProcessTradeRosterLimitOnEvenSwap(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	l.Rules.RosterLimit = 1
	x := l.Sign(t, 1, "Player X", 5, 2024, 2024)
	l.Sign(t, 1, "Player Z", 5, 2024, 2024)
	y := l.Sign(t, 2, "Player Y", 5, 2024, 2024)

	before := l.Store.Snapshot()
	_, err := newApp(l).ProcessTrade(context.Background(), l.Clock(t, models.PhasePreseason), []trade.Party{
		{FranchiseID: l.ID(1), Players: []trade.PlayerAsset{held(y)}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
	}, trade.Options{})
	if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), "Franchise 1 would roster 2 salaried players, over the limit of 1") {
		t.Fatalf("expected roster limit error, got %v", err)
	}
	if strings.Contains(err.Error(), "Franchise 2 would roster") {
		t.Errorf("Franchise 2 is within the limit: %v", err)
	}
	if diff := cmp.Diff(before, l.Store.Snapshot()); diff != "" {
		t.Errorf("rejected trade changed state (-before +after):\n%s", diff)
	}
}

// Salary follows the contract for every season it has left, however far cash may be traded.
func TestProcessTradeSalaryBeyondCashHorizon(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	l.Rules.TradeCashHorizon = 0
	x := l.Sign(t, 1, "Player X", 30, 2024, 2026)
	pick := l.Pick(t, 2, 2025, 1)

	_, err := newApp(l).ProcessTrade(context.Background(), l.Clock(t, models.PhasePreseason), []trade.Party{
		{FranchiseID: l.ID(1), Picks: []uuid.UUID{pick.ID}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
	}, trade.Options{})
	if err != nil {
		t.Fatalf("ProcessTrade: %v", err)
	}
	for _, season := range []int{2024, 2025, 2026} {
		if got := l.Budget(t, 1, season).Payroll; got != 0 {
			t.Errorf("Franchise 1 %d payroll = %d, want 0", season, got)
		}
		if got := l.Budget(t, 2, season).Payroll; got != 30 {
			t.Errorf("Franchise 2 %d payroll = %d, want 30", season, got)
		}
	}
	l.AssertBalanced(t)
}

func TestProcessTradeRejectsClockFromEarlierSeason(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	x := l.Sign(t, 1, "Player X", 20, 2024, 2025)
	stale := l.Clock(t, models.PhasePreseason)

	order := rollover.DraftOrder{l.ID(1): 1, l.ID(2): 2}
	roll := rollover.NewApp(l.Store, lock.NewLocalLocker(), l.Rules)
	if _, err := roll.ProcessSeasonRollover(context.Background(), stale.Now, rollover.Request{DraftOrder: order}); err != nil {
		t.Fatalf("ProcessSeasonRollover: %v", err)
	}

	before := l.Store.Snapshot()
	_, err := newApp(l).ProcessTrade(context.Background(), stale, []trade.Party{
		{FranchiseID: l.ID(1), Cash: []trade.CashAsset{{Amount: 30, Season: 2024, FromFranchiseID: l.ID(2)}}},
		{FranchiseID: l.ID(2), Players: []trade.PlayerAsset{held(x)}},
	}, trade.Options{})
	if !errors.Is(err, ledger.ErrValidation) || !strings.Contains(err.Error(), "the league is in season 2025, not 2024") {
		t.Fatalf("expected stale season error, got %v", err)
	}
	if diff := cmp.Diff(before, l.Store.Snapshot()); diff != "" {
		t.Errorf("rejected trade changed state (-before +after):\n%s", diff)
	}
}
