package ledger

import (
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/shopspring/decimal"
)

// Calculator prices cuts against a buy-out percentage table indexed by contract year.
type Calculator struct {
	table []decimal.Decimal
}

// NewCalculator creates a Calculator. Contract years past the end of table carry no buy-out.
func NewCalculator(table []decimal.Decimal) *Calculator {
	return &Calculator{table: table}
}

// BuyOut returns the cap charge in targetSeason for a contract cut in cutSeason.
// A nil startYear is a single-season deal ending at endYear.
func (c *Calculator) BuyOut(salary int, startYear *int, endYear, cutSeason, targetSeason int) int {
	first := endYear
	if startYear != nil {
		first = *startYear
	}
	if targetSeason < cutSeason || targetSeason < first || targetSeason > endYear {
		return 0
	}
	idx := targetSeason - first
	if idx >= len(c.table) {
		return 0
	}
	amount := decimal.NewFromInt(int64(salary)).Mul(c.table[idx]).Ceil()
	return int(amount.IntPart())
}

// Schedule returns the non-zero buy-outs owed for every remaining season of a
// contract cut in cutSeason.
func (c *Calculator) Schedule(contract models.Contract, cutSeason int) []models.BuyOut {
	if contract.Salary == nil || contract.EndYear == nil {
		return nil
	}
	var schedule []models.BuyOut
	for season := cutSeason; season <= *contract.EndYear; season++ {
		amount := c.BuyOut(*contract.Salary, contract.StartYear, *contract.EndYear, cutSeason, season)
		if amount > 0 {
			schedule = append(schedule, models.BuyOut{Season: season, Amount: amount})
		}
	}
	return schedule
}

// RecoverableShare is the cap space freed in season by cutting contract during that season.
func (c *Calculator) RecoverableShare(contract models.Contract, season int) int {
	if !contract.ActiveIn(season) {
		return 0
	}
	return *contract.Salary - c.BuyOut(*contract.Salary, contract.StartYear, *contract.EndYear, season, season)
}

// Recoverable sums RecoverableShare over contracts, which should all belong to one franchise.
func (c *Calculator) Recoverable(contracts []models.Contract, season int) int {
	total := 0
	for _, contract := range contracts {
		total += c.RecoverableShare(contract, season)
	}
	return total
}

// RosterSize counts the salaried contracts still running in season. RFA rights take no roster spot.
func RosterSize(contracts []models.Contract, season int) int {
	n := 0
	for _, c := range contracts {
		if !c.IsRFARights() && c.EndYear != nil && *c.EndYear >= season {
			n++
		}
	}
	return n
}
