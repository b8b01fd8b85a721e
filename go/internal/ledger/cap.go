package ledger

import (
	"fmt"

	"github.com/mcdev12/dynasty-ledger/go/internal/models"
)

// Outcome is the verdict of a cap check.
type Outcome int

const (
	Pass Outcome = iota
	Warn
	Reject
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// CapCheck is the resulting balance of one franchise in one season.
type CapCheck struct {
	Franchise   string
	Season      int
	Available   int
	Recoverable int
	// HardCap is set when Season is the current season and cut day has passed.
	HardCap bool
}

// Verdict is the outcome of a cap check plus the message to show for it.
type Verdict struct {
	Outcome Outcome
	Message string
}

// HardCapApplies reports whether a balance for season is judged under the hard cap.
func HardCapApplies(clock models.LeagueClock, season int) bool {
	return season == clock.Season && clock.HardCapActive()
}

// EvaluateCap decides whether a resulting balance passes, passes with a warning, or is rejected.
// Under the soft cap a negative balance is tolerated when cutting the whole roster would cover it.
func EvaluateCap(c CapCheck) Verdict {
	if c.Available >= 0 {
		return Verdict{Outcome: Pass}
	}
	over := -c.Available
	if c.HardCap {
		return Verdict{
			Outcome: Reject,
			Message: fmt.Sprintf("%s would be $%d over the hard cap for %d", c.Franchise, over, c.Season),
		}
	}
	if c.Available+c.Recoverable >= 0 {
		return Verdict{
			Outcome: Warn,
			Message: fmt.Sprintf("%s would be $%d over the soft cap for %d ($%d recoverable by cuts)", c.Franchise, over, c.Season, c.Recoverable),
		}
	}
	shortfall := -(c.Available + c.Recoverable)
	return Verdict{
		Outcome: Reject,
		Message: fmt.Sprintf("%s would be $%d over the cap for %d, a $%d shortfall even after cutting every rostered player", c.Franchise, over, c.Season, shortfall),
	}
}

// ValidateBudgetImpact judges what applying delta would do to budget.
func ValidateBudgetImpact(franchise string, budget models.Budget, delta models.BudgetDelta, hardCap bool) Verdict {
	after := budget.Apply(delta)
	return EvaluateCap(CapCheck{
		Franchise:   franchise,
		Season:      budget.Season,
		Available:   after.Available,
		Recoverable: after.Recoverable,
		HardCap:     hardCap,
	})
}
