package rollover

import (
	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
)

// DraftOrder maps each franchise to its draft slot, 1 through the number of franchises.
type DraftOrder map[uuid.UUID]int

// PickNumber is the overall selection number for a round and slot.
func PickNumber(round, slot, franchises int) int {
	return (round-1)*franchises + slot
}

// validateOrder requires exactly one slot per franchise with no gaps or repeats.
func validateOrder(order DraftOrder, franchises []models.Franchise) error {
	var problems ledger.Problems
	n := len(franchises)

	known := make(map[uuid.UUID]string, n)
	for _, f := range franchises {
		known[f.ID] = f.Name
	}

	if len(order) != n {
		problems.Addf("draft order has %d entries for %d franchises", len(order), n)
	}

	bySlot := make(map[int]uuid.UUID, len(order))
	for id, slot := range order {
		name, ok := known[id]
		if !ok {
			problems.Addf("draft order names unknown franchise %s", id)
			continue
		}
		if slot < 1 || slot > n {
			problems.Addf("%s has slot %d, outside 1-%d", name, slot, n)
			continue
		}
		if other, taken := bySlot[slot]; taken {
			first, second := known[other], name
			if first > second {
				first, second = second, first
			}
			problems.Addf("slot %d is assigned to both %s and %s", slot, first, second)
			continue
		}
		bySlot[slot] = id
	}

	for _, f := range franchises {
		if _, ok := order[f.ID]; !ok {
			problems.Addf("%s has no draft slot", f.Name)
		}
	}
	for slot := 1; slot <= n; slot++ {
		if _, ok := bySlot[slot]; !ok && len(problems) == 0 {
			problems.Addf("slot %d is unassigned", slot)
		}
	}

	return problems.Err()
}
