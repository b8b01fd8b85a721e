package models

import (
	"github.com/google/uuid"
)

// PickStatus defines the lifecycle of a draft pick.
type PickStatus string

const (
	PickStatusAvailable PickStatus = "available"
	PickStatusUsed      PickStatus = "used"
	PickStatusPassed    PickStatus = "passed"
)

// Pick represents a single future draft slot.
type Pick struct {
	ID                  uuid.UUID  `json:"id"`
	Season              int        `json:"season"`
	Round               int        `json:"round"`
	OriginalFranchiseID uuid.UUID  `json:"original_franchise_id"`
	CurrentFranchiseID  uuid.UUID  `json:"current_franchise_id"`
	Status              PickStatus `json:"status"`
	PickNumber          *int       `json:"pick_number,omitempty"` // set once draft order is known
}
