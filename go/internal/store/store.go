package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Store runs units of work against the ledger. Everything done through the Tx handed
// to fn commits together or not at all.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx groups the repositories available inside one unit of work.
type Tx interface {
	Franchises() FranchiseRepository
	Contracts() ContractRepository
	Picks() PickRepository
	Budgets() BudgetRepository
	Transactions() TransactionLog
	League() LeagueRepository
}

type FranchiseRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Franchise, error)
	List(ctx context.Context) ([]models.Franchise, error)
	Create(ctx context.Context, f *models.Franchise) error
}

// ContractRepository stores at most one contract per player.
type ContractRepository interface {
	GetByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Contract, error)
	List(ctx context.Context) ([]models.Contract, error)
	ListByFranchise(ctx context.Context, franchiseID uuid.UUID) ([]models.Contract, error)
	// ListExpiring returns salaried contracts whose last season is season.
	ListExpiring(ctx context.Context, season int) ([]models.Contract, error)
	// ListRights returns rights-only contracts.
	ListRights(ctx context.Context) ([]models.Contract, error)
	Create(ctx context.Context, c *models.Contract) error
	Update(ctx context.Context, c *models.Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PickRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Pick, error)
	ListBySeason(ctx context.Context, season int) ([]models.Pick, error)
	ListByFranchise(ctx context.Context, franchiseID uuid.UUID) ([]models.Pick, error)
	// CreateIfMissing inserts p unless a pick for its (season, round, original franchise)
	// already exists. It reports whether a row was created.
	CreateIfMissing(ctx context.Context, p *models.Pick) (bool, error)
	UpdateOwner(ctx context.Context, id, franchiseID uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PickStatus) error
	SetPickNumber(ctx context.Context, id uuid.UUID, number int) error
}

type BudgetRepository interface {
	Get(ctx context.Context, franchiseID uuid.UUID, season int) (*models.Budget, error)
	// ListFrom returns every budget row for season and later.
	ListFrom(ctx context.Context, season int) ([]models.Budget, error)
	// CreateIfMissing inserts b unless a row for its key already exists.
	CreateIfMissing(ctx context.Context, b *models.Budget) (bool, error)
	// ApplyDelta increments every ledger field of one row at once.
	ApplyDelta(ctx context.Context, key models.BudgetKey, delta models.BudgetDelta) error
}

// TransactionFilter narrows a history query. Zero fields do not filter.
type TransactionFilter struct {
	Types       []models.TransactionType
	FranchiseID *uuid.UUID
	PlayerID    *uuid.UUID
	Since       time.Time
	Until       time.Time
	Limit       int
}

// TransactionLog is append-only.
type TransactionLog interface {
	Append(ctx context.Context, t *models.Transaction) error
	// List returns matching transactions, newest first.
	List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	// NextTradeNumber atomically reserves the next human-facing trade number.
	NextTradeNumber(ctx context.Context) (int, error)
}

type LeagueRepository interface {
	Get(ctx context.Context) (*models.League, error)
	Save(ctx context.Context, l *models.League) error
}
