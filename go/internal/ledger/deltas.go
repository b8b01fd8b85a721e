package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
)

// Deltas accumulates budget changes per (franchise, season) before they are applied.
type Deltas map[models.BudgetKey]models.BudgetDelta

// Add merges d into the delta for franchiseID in season.
func (ds Deltas) Add(franchiseID uuid.UUID, season int, d models.BudgetDelta) {
	key := models.BudgetKey{FranchiseID: franchiseID, Season: season}
	ds[key] = ds[key].Add(d)
}

// Keys returns the budget rows with a non-zero change in a stable order.
func (ds Deltas) Keys() []models.BudgetKey {
	keys := make([]models.BudgetKey, 0, len(ds))
	for k, d := range ds {
		if !d.IsZero() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Season != keys[j].Season {
			return keys[i].Season < keys[j].Season
		}
		return keys[i].FranchiseID.String() < keys[j].FranchiseID.String()
	})
	return keys
}
