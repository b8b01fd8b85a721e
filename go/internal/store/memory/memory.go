// Package memory is an in-process Store. Each unit of work runs against a private copy
// of the state which replaces the shared state only when the work succeeds.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

type state struct {
	franchises   map[uuid.UUID]models.Franchise
	contracts    map[uuid.UUID]models.Contract
	picks        map[uuid.UUID]models.Pick
	budgets      map[models.BudgetKey]models.Budget
	transactions []models.Transaction
	league       *models.League
	tradeNumber  int
}

func newState() *state {
	return &state{
		franchises: make(map[uuid.UUID]models.Franchise),
		contracts:  make(map[uuid.UUID]models.Contract),
		picks:      make(map[uuid.UUID]models.Pick),
		budgets:    make(map[models.BudgetKey]models.Budget),
	}
}

func (s *state) clone() *state {
	c := &state{
		franchises:   maps.Clone(s.franchises),
		contracts:    make(map[uuid.UUID]models.Contract, len(s.contracts)),
		picks:        make(map[uuid.UUID]models.Pick, len(s.picks)),
		budgets:      maps.Clone(s.budgets),
		transactions: slices.Clone(s.transactions),
		tradeNumber:  s.tradeNumber,
	}
	for id, contract := range s.contracts {
		c.contracts[id] = cloneContract(contract)
	}
	for id, pick := range s.picks {
		c.picks[id] = clonePick(pick)
	}
	if s.league != nil {
		l := cloneLeague(*s.league)
		c.league = &l
	}
	return c
}

// Store keeps the whole ledger in memory. Units of work are serialized.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New returns an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

var _ store.Store = (*Store)(nil)

// InTx runs fn against a copy of the state and keeps the copy only if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, &tx{s: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Snapshot is a sorted copy of everything in the store.
type Snapshot struct {
	Franchises   []models.Franchise
	Contracts    []models.Contract
	Picks        []models.Pick
	Budgets      []models.Budget
	Transactions []models.Transaction
	League       *models.League
}

// Snapshot returns the committed state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	snap := Snapshot{
		Franchises:   slices.Collect(maps.Values(st.franchises)),
		Contracts:    slices.Collect(maps.Values(st.contracts)),
		Picks:        slices.Collect(maps.Values(st.picks)),
		Budgets:      slices.Collect(maps.Values(st.budgets)),
		Transactions: st.transactions,
		League:       st.league,
	}
	sort.Slice(snap.Franchises, func(i, j int) bool { return snap.Franchises[i].ID.String() < snap.Franchises[j].ID.String() })
	sortContracts(snap.Contracts)
	sortPicks(snap.Picks)
	sortBudgets(snap.Budgets)
	return snap
}

type tx struct {
	s *state
}

func (t *tx) Franchises() store.FranchiseRepository { return franchiseRepo{t.s} }
func (t *tx) Contracts() store.ContractRepository   { return contractRepo{t.s} }
func (t *tx) Picks() store.PickRepository           { return pickRepo{t.s} }
func (t *tx) Budgets() store.BudgetRepository       { return budgetRepo{t.s} }
func (t *tx) Transactions() store.TransactionLog    { return transactionLog{t.s} }
func (t *tx) League() store.LeagueRepository        { return leagueRepo{t.s} }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneContract(c models.Contract) models.Contract {
	c.Salary = cloneInt(c.Salary)
	c.StartYear = cloneInt(c.StartYear)
	c.EndYear = cloneInt(c.EndYear)
	c.RightsSeason = cloneInt(c.RightsSeason)
	return c
}

func clonePick(p models.Pick) models.Pick {
	p.PickNumber = cloneInt(p.PickNumber)
	return p
}

func cloneLeague(l models.League) models.League {
	l.KeyDates = maps.Clone(l.KeyDates)
	l.PlayoffAlive = slices.Clone(l.PlayoffAlive)
	return l
}

func sortContracts(cs []models.Contract) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].PlayerID.String() < cs[j].PlayerID.String() })
}

func sortPicks(ps []models.Pick) {
	sort.Slice(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.OriginalFranchiseID.String() < b.OriginalFranchiseID.String()
	})
}

func sortBudgets(bs []models.Budget) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Season != bs[j].Season {
			return bs[i].Season < bs[j].Season
		}
		return bs[i].FranchiseID.String() < bs[j].FranchiseID.String()
	})
}
