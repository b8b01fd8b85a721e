package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-ledger/go/internal/models"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func TestPhaseAt(t *testing.T) {
	k := models.KeyDates{
		Auction:       date(time.August, 20),
		CutDay:        date(time.September, 1),
		TradeDeadline: date(time.November, 15),
		PlayoffStart:  date(time.December, 10),
		SeasonEnd:     date(time.December, 31),
	}

	tests := []struct {
		at   time.Time
		want models.Phase
	}{
		{date(time.March, 1), models.PhaseEarlyOffseason},
		{date(time.August, 20), models.PhasePreseason},
		{date(time.September, 1).Add(-time.Second), models.PhasePreseason},
		{date(time.September, 1), models.PhaseRegularSeason},
		{date(time.November, 20), models.PhasePostDeadline},
		{date(time.December, 10), models.PhasePlayoffs},
		{date(time.December, 31), models.PhaseDeadPeriod},
	}
	for _, tt := range tests {
		if got := k.PhaseAt(tt.at); got != tt.want {
			t.Errorf("PhaseAt(%s) = %s, want %s", tt.at.Format(time.DateTime), got, tt.want)
		}
	}
}

func TestKeyDatesMergeKeepsUnsetDates(t *testing.T) {
	base := models.KeyDates{Auction: date(time.August, 20), CutDay: date(time.September, 1)}
	merged := base.Merge(models.KeyDates{CutDay: date(time.September, 8)})

	if !merged.Auction.Equal(base.Auction) {
		t.Errorf("auction = %s, want it kept", merged.Auction)
	}
	if !merged.CutDay.Equal(date(time.September, 8)) {
		t.Errorf("cut day = %s, want the override", merged.CutDay)
	}
}

func TestLeagueClock(t *testing.T) {
	alive, eliminated := uuid.New(), uuid.New()
	league := models.League{
		CurrentSeason: 2024,
		KeyDates: map[int]models.KeyDates{
			2024: {
				CutDay:       date(time.September, 1),
				PlayoffStart: date(time.December, 10),
				SeasonEnd:    date(time.December, 31),
			},
		},
		PlayoffAlive: []uuid.UUID{alive},
	}

	preseason := league.ClockAt(date(time.August, 25))
	if preseason.HardCapActive() {
		t.Error("hard cap active before cut day")
	}
	if !preseason.TradeWindowOpen() {
		t.Error("trade window closed before cut day")
	}

	playoffs := league.ClockAt(date(time.December, 12))
	if !playoffs.HardCapActive() || playoffs.TradeWindowOpen() {
		t.Errorf("playoffs: hard cap %v, trade window %v", playoffs.HardCapActive(), playoffs.TradeWindowOpen())
	}
	if !playoffs.CutsAllowed(alive) || playoffs.CutsAllowed(eliminated) {
		t.Error("only franchises still alive may cut during the playoffs")
	}

	if league.ClockAt(date(time.December, 31)).CutsAllowed(alive) {
		t.Error("cuts allowed in the dead period")
	}
}

func TestBudgetDeltaConstructorsBalance(t *testing.T) {
	deltas := []models.BudgetDelta{
		models.PayrollDelta(40, 16),
		models.CashDelta(15),
		models.CashDelta(-15),
		models.BuyOutDelta(24),
		models.PayrollDelta(-40, -16).Add(models.BuyOutDelta(24)),
	}
	for _, d := range deltas {
		if !d.Balanced() {
			t.Errorf("%+v is not balanced", d)
		}
	}

	b := models.Budget{BaseAmount: 1000, Available: 1000}
	for _, d := range deltas {
		b = b.Apply(d)
	}
	if b.Available != b.ExpectedAvailable() {
		t.Errorf("available %d drifted from %d", b.Available, b.ExpectedAvailable())
	}
	if (models.BudgetDelta{Available: 1}).Balanced() {
		t.Error("a bare available change must not balance")
	}
}
