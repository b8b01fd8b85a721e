package ledger_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
)

func TestEvaluateCap(t *testing.T) {
	tests := []struct {
		name        string
		check       ledger.CapCheck
		wantOutcome ledger.Outcome
		wantText    string
	}{
		{
			name:        "non-negative passes",
			check:       ledger.CapCheck{Franchise: "Gophers", Season: 2025, Available: 0},
			wantOutcome: ledger.Pass,
		},
		{
			name:        "soft cap curable by cuts",
			check:       ledger.CapCheck{Franchise: "Gophers", Season: 2025, Available: -40, Recoverable: 100},
			wantOutcome: ledger.Warn,
			wantText:    "$40",
		},
		{
			name:        "soft cap shortfall",
			check:       ledger.CapCheck{Franchise: "Gophers", Season: 2025, Available: -40, Recoverable: 20},
			wantOutcome: ledger.Reject,
			wantText:    "$20 shortfall",
		},
		{
			name:        "hard cap has no escape",
			check:       ledger.CapCheck{Franchise: "Gophers", Season: 2024, Available: -1, Recoverable: 500, HardCap: true},
			wantOutcome: ledger.Reject,
			wantText:    "hard cap",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ledger.EvaluateCap(tt.check)
			if v.Outcome != tt.wantOutcome {
				t.Fatalf("Outcome = %s, want %s", v.Outcome, tt.wantOutcome)
			}
			if !strings.Contains(v.Message, tt.wantText) {
				t.Errorf("Message %q does not mention %q", v.Message, tt.wantText)
			}
			if tt.wantOutcome != ledger.Pass && !strings.Contains(v.Message, "Gophers") {
				t.Errorf("Message %q does not name the franchise", v.Message)
			}
		})
	}
}

func TestHardCapApplies(t *testing.T) {
	cutDay := time.Date(2024, time.September, 4, 0, 0, 0, 0, time.UTC)
	clock := models.LeagueClock{
		Season:   2024,
		Now:      cutDay.Add(time.Hour),
		KeyDates: models.KeyDates{CutDay: cutDay},
	}
	if !ledger.HardCapApplies(clock, 2024) {
		t.Error("current season after cut day should be under the hard cap")
	}
	if ledger.HardCapApplies(clock, 2025) {
		t.Error("future seasons stay under the soft cap")
	}
	clock.Now = cutDay.Add(-time.Hour)
	if ledger.HardCapApplies(clock, 2024) {
		t.Error("current season before cut day stays under the soft cap")
	}
}

func TestValidateBudgetImpact(t *testing.T) {
	budget := models.Budget{
		FranchiseID: uuid.New(),
		Season:      2025,
		BaseAmount:  1000,
		Payroll:     980,
		Recoverable: 500,
		Available:   20,
	}

	v := ledger.ValidateBudgetImpact("Gophers", budget, models.PayrollDelta(60, 24), false)
	if v.Outcome != ledger.Warn {
		t.Fatalf("Outcome = %s, want warn: %s", v.Outcome, v.Message)
	}
	v = ledger.ValidateBudgetImpact("Gophers", budget, models.PayrollDelta(60, 24), true)
	if v.Outcome != ledger.Reject {
		t.Fatalf("Outcome = %s, want reject under hard cap", v.Outcome)
	}
	v = ledger.ValidateBudgetImpact("Gophers", budget, models.PayrollDelta(-60, -24), true)
	if v.Outcome != ledger.Pass {
		t.Fatalf("freeing salary should pass, got %s", v.Outcome)
	}
}

func TestProblems(t *testing.T) {
	var p ledger.Problems
	if err := p.Err(); err != nil {
		t.Fatalf("empty problems returned %v", err)
	}
	p.Addf("franchise %s not found", "X")
	p.Addf("pick %d already used", 3)

	err := p.Err()
	if !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	problems, ok := ledger.AsValidation(err)
	if !ok || len(problems) != 2 {
		t.Fatalf("AsValidation = %v, %v", problems, ok)
	}
}

func TestDeltasKeysStable(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ds := ledger.Deltas{}
	ds.Add(a, 2025, models.CashDelta(10))
	ds.Add(b, 2024, models.PayrollDelta(5, 2))
	ds.Add(a, 2025, models.CashDelta(-4))

	keys := ds.Keys()
	if len(keys) != 2 || keys[0].Season != 2024 {
		t.Fatalf("Keys = %v", keys)
	}
	d := ds[models.BudgetKey{FranchiseID: a, Season: 2025}]
	if d.CashIn != 10 || d.CashOut != 4 || d.Available != 6 || !d.Balanced() {
		t.Errorf("merged delta = %+v", d)
	}
}

func TestDeltasKeysSkipCancelled(t *testing.T) {
	a := uuid.New()
	ds := ledger.Deltas{}
	ds.Add(a, 2025, models.CashDelta(10))
	ds.Add(a, 2025, models.CashDelta(-10))
	ds.Add(a, 2025, models.BudgetDelta{CashIn: -10, CashOut: -10})

	if keys := ds.Keys(); len(keys) != 0 {
		t.Errorf("cancelled delta should not be listed, got %v", keys)
	}
}
