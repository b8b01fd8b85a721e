package trade

import (
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
)

// Party is one franchise in a trade and everything it receives.
type Party struct {
	FranchiseID uuid.UUID     `json:"franchise_id"`
	Players     []PlayerAsset `json:"players,omitempty"`
	Picks       []uuid.UUID   `json:"picks,omitempty"`
	Cash        []CashAsset   `json:"cash,omitempty"`
}

// PlayerAsset names a player and the terms the sending franchise holds them at.
// Rights-only contracts travel as RFA rights.
type PlayerAsset struct {
	PlayerID uuid.UUID            `json:"player_id"`
	Terms    models.ContractTerms `json:"terms"`
}

// CashAsset is cap cash received for one season.
type CashAsset struct {
	Amount          int       `json:"amount"`
	Season          int       `json:"season"`
	FromFranchiseID uuid.UUID `json:"from_franchise_id"`
}

// Options tune how a trade is processed.
type Options struct {
	// ValidateOnly stops after validation and returns warnings without writing anything.
	ValidateOnly bool
	Source       models.Source
}

// Result is a processed (or validated) trade.
type Result struct {
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}
