package rules_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rules"
)

func TestDefaultRules(t *testing.T) {
	r := rules.Default()

	if r.BaseAmount != 1000 {
		t.Errorf("BaseAmount = %d, want 1000", r.BaseAmount)
	}
	if r.DraftRounds != 10 {
		t.Errorf("DraftRounds = %d, want 10", r.DraftRounds)
	}

	table := r.BuyOutTable()
	want := []string{"0.6", "0.3", "0.15"}
	if len(table) != len(want) {
		t.Fatalf("buy-out table has %d entries, want %d", len(table), len(want))
	}
	for i, w := range want {
		if table[i].String() != w {
			t.Errorf("table[%d] = %s, want %s", i, table[i], w)
		}
	}

	first, last := r.TradeCashSeasons(2024)
	if first != 2024 || last != 2026 {
		t.Errorf("TradeCashSeasons(2024) = %d..%d, want 2024..2026", first, last)
	}
}

func TestRFAPolicyFor(t *testing.T) {
	r := rules.Default()

	tests := []struct {
		season int
		length int
		want   bool
	}{
		{season: 2018, length: 1, want: true},
		{season: 2018, length: 4, want: true},
		{season: 2019, length: 1, want: false},
		{season: 2019, length: 2, want: true},
		{season: 2024, length: 3, want: true},
		{season: 2024, length: 4, want: false},
	}
	for _, tt := range tests {
		got := r.RFAPolicyFor(tt.season).Converts(tt.length)
		if got != tt.want {
			t.Errorf("season %d length %d: Converts = %v, want %v", tt.season, tt.length, got, tt.want)
		}
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	r, err := rules.Parse([]byte(`
roster_limit: 30
rfa_policies:
  - from_season: 2030
    min_length: 3
    max_length: 3
  - from_season: 0
    min_length: 2
    max_length: 3
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.RosterLimit != 30 {
		t.Errorf("RosterLimit = %d, want 30", r.RosterLimit)
	}
	if r.BaseAmount != 1000 {
		t.Errorf("BaseAmount = %d, want default 1000", r.BaseAmount)
	}
	if r.RFAPolicyFor(2031).Converts(2) {
		t.Error("2031 policy should not convert 2-year contracts")
	}
	if !r.RFAPolicyFor(2029).Converts(2) {
		t.Error("2029 policy should convert 2-year contracts")
	}
}

func TestParseRejectsBadPercentages(t *testing.T) {
	_, err := rules.Parse([]byte(`buy_out_percentages: ["0.6", "abc"]`))
	if err == nil || !strings.Contains(err.Error(), "abc") {
		t.Fatalf("expected error naming bad percentage, got %v", err)
	}

	_, err = rules.Parse([]byte(`buy_out_percentages: ["1.5"]`))
	if err == nil {
		t.Fatal("expected error for percentage above 1")
	}
}

func TestDefaultKeyDates(t *testing.T) {
	r, err := rules.Parse([]byte(`
calendar:
  timezone: UTC
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	kd := r.DefaultKeyDates(2024)
	if got := kd.Auction; !got.Equal(time.Date(2024, time.August, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Auction = %v", got)
	}
	if got := kd.SeasonEnd; !got.Equal(time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SeasonEnd = %v, want January of the following year", got)
	}

	if phase := kd.PhaseAt(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)); phase != models.PhaseRegularSeason {
		t.Errorf("October phase = %s, want %s", phase, models.PhaseRegularSeason)
	}
	if phase := kd.PhaseAt(time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC)); phase != models.PhasePlayoffs {
		t.Errorf("December phase = %s, want %s", phase, models.PhasePlayoffs)
	}
}
