package models

import (
	"github.com/google/uuid"
)

// Contract ties a player to a franchise. A nil Salary means the franchise only holds
// RFA rights for the player and the contract takes no roster spot.
type Contract struct {
	ID          uuid.UUID `json:"id"`
	PlayerID    uuid.UUID `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	FranchiseID uuid.UUID `json:"franchise_id"`
	Salary      *int      `json:"salary,omitempty"`
	StartYear   *int      `json:"start_year,omitempty"` // nil for single-season free agent deals
	EndYear     *int      `json:"end_year,omitempty"`
	// RightsSeason is the season in which RFA rights may be exercised. Only set on
	// rights-only contracts.
	RightsSeason *int `json:"rights_season,omitempty"`
}

// IsRFARights reports whether the contract carries only RFA rights.
func (c Contract) IsRFARights() bool {
	return c.Salary == nil
}

// FirstYear returns the first season the contract pays salary. Contracts without a
// start year are treated as a single season ending at EndYear.
func (c Contract) FirstYear() int {
	if c.StartYear != nil {
		return *c.StartYear
	}
	if c.EndYear != nil {
		return *c.EndYear
	}
	return 0
}

// ActiveIn reports whether the contract pays salary in season.
func (c Contract) ActiveIn(season int) bool {
	if c.Salary == nil || c.EndYear == nil {
		return false
	}
	return c.FirstYear() <= season && season <= *c.EndYear
}

// Length returns the number of seasons covered by the contract, 1 when no start year is set.
func (c Contract) Length() int {
	if c.EndYear == nil {
		return 0
	}
	if c.StartYear == nil {
		return 1
	}
	return *c.EndYear - *c.StartYear + 1
}

// Terms returns the salary terms as a comparable value.
func (c Contract) Terms() ContractTerms {
	return ContractTerms{Salary: c.Salary, StartYear: c.StartYear, EndYear: c.EndYear}
}

// ContractTerms are the salary terms a player is held at.
type ContractTerms struct {
	Salary    *int `json:"salary,omitempty"`
	StartYear *int `json:"start_year,omitempty"`
	EndYear   *int `json:"end_year,omitempty"`
}

// Equal compares two sets of terms field by field.
func (t ContractTerms) Equal(o ContractTerms) bool {
	return intPtrEqual(t.Salary, o.Salary) &&
		intPtrEqual(t.StartYear, o.StartYear) &&
		intPtrEqual(t.EndYear, o.EndYear)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
