package models

import (
	"time"

	"github.com/google/uuid"
)

// Franchise is a league member slot. Ownership is tracked by regimes outside the ledger.
type Franchise struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
