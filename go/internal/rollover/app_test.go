package rollover_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/ledgertest"
	"github.com/mcdev12/dynasty-ledger/go/internal/lock"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rollover"
	"github.com/mcdev12/dynasty-ledger/go/internal/store/memory"
)

var rolloverTime = time.Date(2025, time.February, 1, 12, 0, 0, 0, time.UTC)

func newApp(l *ledgertest.League) *rollover.App {
	return rollover.NewApp(l.Store, lock.NewLocalLocker(), l.Rules)
}

// reverseOrder gives the first franchise the last slot.
func reverseOrder(l *ledgertest.League) rollover.DraftOrder {
	n := len(l.Franchises)
	order := rollover.DraftOrder{}
	for i := 1; i <= n; i++ {
		order[l.ID(i)] = n - i + 1
	}
	return order
}

func countPicks(snap memory.Snapshot, season int) int {
	n := 0
	for _, p := range snap.Picks {
		if p.Season == season {
			n++
		}
	}
	return n
}

func countBudgets(snap memory.Snapshot, season int) int {
	n := 0
	for _, b := range snap.Budgets {
		if b.Season == season {
			n++
		}
	}
	return n
}

func TestProcessSeasonRolloverTwelveFranchises(t *testing.T) {
	l := ledgertest.New(t, 12, 2024)
	firstsRound2 := l.Pick(t, 1, 2025, 2)

	res, err := newApp(l).ProcessSeasonRollover(context.Background(), rolloverTime, rollover.Request{
		DraftOrder: reverseOrder(l),
	})
	if err != nil {
		t.Fatalf("ProcessSeasonRollover: %v", err)
	}
	if res.Season != 2025 || res.PicksCreated != 120 || res.BudgetsCreated != 12 {
		t.Errorf("result = %+v, want season 2025 with 120 picks and 12 budgets", res)
	}

	snap := l.Store.Snapshot()
	if got := countPicks(snap, 2027); got != 120 {
		t.Errorf("2027 picks = %d, want 120", got)
	}
	if got := countBudgets(snap, 2027); got != 12 {
		t.Errorf("2027 budgets = %d, want 12", got)
	}
	for _, b := range snap.Budgets {
		if b.Season == 2027 && (b.BaseAmount != 1000 || b.Available != 1000) {
			t.Errorf("2027 budget opened at %+v", b)
		}
	}
	for _, p := range snap.Picks {
		if p.ID == firstsRound2.ID {
			if p.PickNumber == nil || *p.PickNumber != 24 {
				t.Errorf("Franchise 1's 2025 second-rounder numbered %v, want 24", p.PickNumber)
			}
		}
	}
	if snap.League.CurrentSeason != 2025 {
		t.Errorf("current season = %d, want 2025", snap.League.CurrentSeason)
	}
	if diff := cmp.Diff(l.Rules.DefaultKeyDates(2025), snap.League.KeyDates[2025]); diff != "" {
		t.Errorf("2025 key dates mismatch (-want +got):\n%s", diff)
	}
	l.AssertBalanced(t)
}

func TestProcessSeasonRolloverRejectsBadOrder(t *testing.T) {
	l := ledgertest.New(t, 12, 2024)

	thirteen := reverseOrder(l)
	thirteen[l.ID(1)] = 13

	duplicate := reverseOrder(l)
	duplicate[l.ID(1)] = 5 // Franchise 8 also holds slot 5

	short := reverseOrder(l)
	delete(short, l.ID(3))

	tests := []struct {
		name  string
		order rollover.DraftOrder
		want  string
	}{
		{"slot out of range", thirteen, "slot 13, outside 1-12"},
		{"duplicate slot", duplicate, "slot 5 is assigned to both Franchise 1 and Franchise 8"},
		{"missing franchise", short, "Franchise 3 has no draft slot"},
		{"empty", nil, "draft order has 0 entries for 12 franchises"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := l.Store.Snapshot()
			_, err := newApp(l).ProcessSeasonRollover(context.Background(), rolloverTime, rollover.Request{DraftOrder: tt.order})
			if !errors.Is(err, ledger.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if diff := cmp.Diff(before, l.Store.Snapshot()); diff != "" {
				t.Errorf("rejected rollover changed state (-before +after):\n%s", diff)
			}
		})
	}
}

func TestProcessSeasonRolloverContracts(t *testing.T) {
	l := ledgertest.New(t, 2, 2024)
	twoYear := l.Sign(t, 1, "Two Year", 40, 2023, 2024)
	oneYear := l.Sign(t, 1, "One Year", 10, 0, 2024)
	fourYear := l.Sign(t, 2, "Four Year", 30, 2021, 2024)
	ongoing := l.Sign(t, 2, "Ongoing", 20, 2024, 2025)
	stale := l.Rights(t, 1, "Stale Rights", 2024)
	fresh := l.Rights(t, 2, "Fresh Rights", 2025)

	res, err := newApp(l).ProcessSeasonRollover(context.Background(), rolloverTime, rollover.Request{
		DraftOrder: reverseOrder(l),
	})
	if err != nil {
		t.Fatalf("ProcessSeasonRollover: %v", err)
	}
	if res.Converted != 1 || res.Expired != 2 || res.Lapsed != 1 {
		t.Errorf("converted %d, expired %d, lapsed %d; want 1, 2, 1", res.Converted, res.Expired, res.Lapsed)
	}

	want := &models.Contract{
		ID:           twoYear.ID,
		PlayerID:     twoYear.PlayerID,
		PlayerName:   "Two Year",
		FranchiseID:  l.ID(1),
		RightsSeason: models.IntPtr(2025),
	}
	if diff := cmp.Diff(want, l.Contract(t, twoYear.PlayerID)); diff != "" {
		t.Errorf("converted contract mismatch (-want +got):\n%s", diff)
	}
	for _, gone := range []models.Contract{oneYear, fourYear, stale} {
		if got := l.Contract(t, gone.PlayerID); got != nil {
			t.Errorf("%s should be gone, still %+v", gone.PlayerName, got)
		}
	}
	for _, kept := range []models.Contract{ongoing, fresh} {
		if diff := cmp.Diff(&kept, l.Contract(t, kept.PlayerID)); diff != "" {
			t.Errorf("%s changed (-want +got):\n%s", kept.PlayerName, diff)
		}
	}

	kinds := map[models.TransactionType]int{}
	for _, txn := range res.Transactions {
		kinds[txn.Type]++
		if txn.Source != models.SourceSystem {
			t.Errorf("%s logged with source %s", txn.Type, txn.Source)
		}
	}
	wantKinds := map[models.TransactionType]int{
		models.TransactionTypeRFAConversion: 1,
		models.TransactionTypeExpiry:        2,
		models.TransactionTypeRFALapsed:     1,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Errorf("logged kinds mismatch (-want +got):\n%s", diff)
	}
	if got := len(l.Store.Snapshot().Transactions); got != 4 {
		t.Errorf("transaction log holds %d entries, want 4", got)
	}
}

func TestProcessSeasonRolloverEarlyPolicy(t *testing.T) {
	l := ledgertest.New(t, 2, 2017)
	oneYear := l.Sign(t, 1, "One Year", 10, 0, 2017)
	fourYear := l.Sign(t, 2, "Four Year", 30, 2014, 2017)

	res, err := newApp(l).ProcessSeasonRollover(context.Background(), rolloverTime, rollover.Request{
		DraftOrder: reverseOrder(l),
	})
	if err != nil {
		t.Fatalf("ProcessSeasonRollover: %v", err)
	}
	if res.Converted != 2 || res.Expired != 0 {
		t.Errorf("converted %d, expired %d; want every contract converted", res.Converted, res.Expired)
	}
	for _, c := range []models.Contract{oneYear, fourYear} {
		got := l.Contract(t, c.PlayerID)
		if got == nil || !got.IsRFARights() || *got.RightsSeason != 2018 {
			t.Errorf("%s = %+v, want RFA rights for 2018", c.PlayerName, got)
		}
	}
}

func TestProcessSeasonRolloverIsIdempotent(t *testing.T) {
	l := ledgertest.New(t, 4, 2024)
	l.Sign(t, 1, "Two Year", 40, 2023, 2024)
	l.Pick(t, 2, 2025, 1)
	cutDay := time.Date(2025, time.September, 8, 0, 0, 0, 0, time.UTC)

	req := rollover.Request{
		DraftOrder: reverseOrder(l),
		KeyDates:   models.KeyDates{CutDay: cutDay},
		Season:     2025,
	}
	if _, err := newApp(l).ProcessSeasonRollover(context.Background(), rolloverTime, req); err != nil {
		t.Fatalf("first rollover: %v", err)
	}
	first := l.Store.Snapshot()

	res, err := newApp(l).ProcessSeasonRollover(context.Background(), rolloverTime, req)
	if err != nil {
		t.Fatalf("second rollover: %v", err)
	}
	if res.PicksCreated != 0 || res.BudgetsCreated != 0 || len(res.Transactions) != 0 {
		t.Errorf("second rollover did work: %+v", res)
	}
	if diff := cmp.Diff(first, l.Store.Snapshot()); diff != "" {
		t.Errorf("second rollover changed state (-first +second):\n%s", diff)
	}

	dates := first.League.KeyDates[2025]
	if !dates.CutDay.Equal(cutDay) {
		t.Errorf("cut day = %v, want override %v", dates.CutDay, cutDay)
	}
	if !dates.Auction.Equal(l.Rules.DefaultKeyDates(2025).Auction) {
		t.Errorf("auction = %v, want the default", dates.Auction)
	}

	_, err = newApp(l).ProcessSeasonRollover(context.Background(), rolloverTime, rollover.Request{
		DraftOrder: reverseOrder(l),
		Season:     2027,
	})
	if !errors.Is(err, ledger.ErrValidation) {
		t.Errorf("skipping a season should be rejected, got %v", err)
	}
}

func TestBootstrap(t *testing.T) {
	l := ledgertest.New(t, 3, 2024)
	_, err := newApp(l).Bootstrap(context.Background(), rolloverTime, 2024)
	if !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("bootstrapping a running league should fail, got %v", err)
	}
}

func TestPickNumber(t *testing.T) {
	tests := []struct {
		round, slot, franchises, want int
	}{
		{1, 1, 12, 1},
		{1, 12, 12, 12},
		{2, 1, 12, 13},
		{10, 12, 12, 120},
	}
	for _, tt := range tests {
		if got := rollover.PickNumber(tt.round, tt.slot, tt.franchises); got != tt.want {
			t.Errorf("PickNumber(%d, %d, %d) = %d, want %d", tt.round, tt.slot, tt.franchises, got, tt.want)
		}
	}
}
