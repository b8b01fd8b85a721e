package models

import (
	"github.com/google/uuid"
)

// Budget is the ledger row for one franchise in one season.
type Budget struct {
	FranchiseID uuid.UUID `json:"franchise_id"`
	Season      int       `json:"season"`
	BaseAmount  int       `json:"base_amount"`
	Payroll     int       `json:"payroll"`
	BuyOuts     int       `json:"buy_outs"`
	CashIn      int       `json:"cash_in"`
	CashOut     int       `json:"cash_out"`
	Recoverable int       `json:"recoverable"`
	Available   int       `json:"available"`
}

// ExpectedAvailable derives available from the other ledger fields.
func (b Budget) ExpectedAvailable() int {
	return b.BaseAmount - b.Payroll - b.BuyOuts + b.CashIn - b.CashOut
}

// Apply returns a copy of the budget with delta applied.
func (b Budget) Apply(d BudgetDelta) Budget {
	b.Payroll += d.Payroll
	b.BuyOuts += d.BuyOuts
	b.CashIn += d.CashIn
	b.CashOut += d.CashOut
	b.Recoverable += d.Recoverable
	b.Available += d.Available
	return b
}

// BudgetKey identifies a budget row.
type BudgetKey struct {
	FranchiseID uuid.UUID
	Season      int
}

// BudgetDelta is an increment applied atomically to every field of a budget row.
// Available must always equal -Payroll -BuyOuts +CashIn -CashOut; use the
// constructors to keep the two in step.
type BudgetDelta struct {
	Payroll     int `json:"payroll"`
	BuyOuts     int `json:"buy_outs"`
	CashIn      int `json:"cash_in"`
	CashOut     int `json:"cash_out"`
	Recoverable int `json:"recoverable"`
	Available   int `json:"available"`
}

// Add combines two deltas.
func (d BudgetDelta) Add(o BudgetDelta) BudgetDelta {
	return BudgetDelta{
		Payroll:     d.Payroll + o.Payroll,
		BuyOuts:     d.BuyOuts + o.BuyOuts,
		CashIn:      d.CashIn + o.CashIn,
		CashOut:     d.CashOut + o.CashOut,
		Recoverable: d.Recoverable + o.Recoverable,
		Available:   d.Available + o.Available,
	}
}

// IsZero reports whether the delta changes nothing.
func (d BudgetDelta) IsZero() bool {
	return d == BudgetDelta{}
}

// Balanced reports whether Available moves in step with the other fields.
func (d BudgetDelta) Balanced() bool {
	return d.Available == -d.Payroll-d.BuyOuts+d.CashIn-d.CashOut
}

// PayrollDelta adds salary to payroll along with its recoverable share.
func PayrollDelta(salary, recoverable int) BudgetDelta {
	return BudgetDelta{Payroll: salary, Recoverable: recoverable, Available: -salary}
}

// CashDelta moves traded cash. Positive amounts are received, negative are sent.
func CashDelta(amount int) BudgetDelta {
	if amount >= 0 {
		return BudgetDelta{CashIn: amount, Available: amount}
	}
	return BudgetDelta{CashOut: -amount, Available: amount}
}

// BuyOutDelta charges a buy-out against the cap.
func BuyOutDelta(amount int) BudgetDelta {
	return BudgetDelta{BuyOuts: amount, Available: -amount}
}
