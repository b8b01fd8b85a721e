package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-ledger/go/internal/audit"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/trade"
)

type ProcessTradeRequest struct {
	Parties      []trade.Party `json:"parties"`
	ValidateOnly bool          `json:"validate_only,omitempty"`
	Source       models.Source `json:"source,omitempty"`
}

type ProcessTradeResponse struct {
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}

type ProcessCutRequest struct {
	FranchiseID uuid.UUID     `json:"franchise_id"`
	PlayerID    uuid.UUID     `json:"player_id"`
	Source      models.Source `json:"source,omitempty"`
}

type ProcessCutResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	BuyOuts     []models.BuyOut     `json:"buy_outs"`
}

type ProcessSigningRequest struct {
	Kind        models.TransactionType `json:"kind"`
	FranchiseID uuid.UUID              `json:"franchise_id"`
	PlayerID    uuid.UUID              `json:"player_id,omitempty"`
	PlayerName  string                 `json:"player_name,omitempty"`
	Salary      int                    `json:"salary"`
	StartYear   *int                   `json:"start_year,omitempty"`
	EndYear     int                    `json:"end_year"`
	PickID      *uuid.UUID             `json:"pick_id,omitempty"`
	Source      models.Source          `json:"source,omitempty"`
}

type ProcessSigningResponse struct {
	Contract    *models.Contract    `json:"contract"`
	Transaction *models.Transaction `json:"transaction"`
	Warnings    []string            `json:"warnings,omitempty"`
}

type ProcessSeasonRolloverRequest struct {
	// DraftOrder maps franchise id to draft slot.
	DraftOrder map[uuid.UUID]int `json:"draft_order"`
	KeyDates   models.KeyDates   `json:"key_dates,omitempty"`
	Season     int               `json:"season,omitempty"`
}

type ProcessSeasonRolloverResponse struct {
	Season         int                  `json:"season"`
	PicksCreated   int                  `json:"picks_created"`
	BudgetsCreated int                  `json:"budgets_created"`
	Converted      int                  `json:"converted"`
	Expired        int                  `json:"expired"`
	Lapsed         int                  `json:"lapsed"`
	PicksNumbered  int                  `json:"picks_numbered"`
	Transactions   []models.Transaction `json:"transactions,omitempty"`
}

type BootstrapLeagueRequest struct {
	Season int `json:"season"`
}

type ValidateBudgetImpactRequest struct {
	FranchiseID uuid.UUID          `json:"franchise_id"`
	Season      int                `json:"season"`
	Delta       models.BudgetDelta `json:"delta"`
}

type ValidateBudgetImpactResponse struct {
	Outcome string        `json:"outcome"`
	Message string        `json:"message,omitempty"`
	Before  models.Budget `json:"before"`
	After   models.Budget `json:"after"`
	HardCap bool          `json:"hard_cap"`
}

type VerifyBudgetsRequest struct {
	// Season is the first season checked. Zero means the current season.
	Season int `json:"season,omitempty"`
}

type VerifyBudgetsResponse struct {
	Report *audit.Report `json:"report"`
}

type ListTransactionsRequest struct {
	Types       []models.TransactionType `json:"types,omitempty"`
	FranchiseID *uuid.UUID               `json:"franchise_id,omitempty"`
	PlayerID    *uuid.UUID               `json:"player_id,omitempty"`
	Since       time.Time                `json:"since,omitempty"`
	Until       time.Time                `json:"until,omitempty"`
	Limit       int                      `json:"limit,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

type GetLeagueClockRequest struct{}

type GetLeagueClockResponse struct {
	Season          int             `json:"season"`
	Now             time.Time       `json:"now"`
	Phase           models.Phase    `json:"phase"`
	KeyDates        models.KeyDates `json:"key_dates"`
	HardCapActive   bool            `json:"hard_cap_active"`
	TradeWindowOpen bool            `json:"trade_window_open"`
}

type CreateFranchiseRequest struct {
	Name string `json:"name"`
}

type CreateFranchiseResponse struct {
	Franchise *models.Franchise `json:"franchise"`
}

type ListFranchisesRequest struct{}

type ListFranchisesResponse struct {
	Franchises []models.Franchise `json:"franchises"`
}

type ListBudgetsRequest struct {
	FranchiseID uuid.UUID `json:"franchise_id"`
}

type ListBudgetsResponse struct {
	Budgets []models.Budget `json:"budgets"`
}
