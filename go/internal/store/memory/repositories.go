package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

type franchiseRepo struct{ s *state }

func (r franchiseRepo) Get(_ context.Context, id uuid.UUID) (*models.Franchise, error) {
	f, ok := r.s.franchises[id]
	if !ok {
		return nil, fmt.Errorf("franchise %s: %w", id, store.ErrNotFound)
	}
	return &f, nil
}

func (r franchiseRepo) List(_ context.Context) ([]models.Franchise, error) {
	out := make([]models.Franchise, 0, len(r.s.franchises))
	for _, f := range r.s.franchises {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r franchiseRepo) Create(_ context.Context, f *models.Franchise) error {
	if _, ok := r.s.franchises[f.ID]; ok {
		return fmt.Errorf("franchise %s: %w", f.ID, store.ErrConflict)
	}
	r.s.franchises[f.ID] = *f
	return nil
}

type contractRepo struct{ s *state }

func (r contractRepo) GetByPlayer(_ context.Context, playerID uuid.UUID) (*models.Contract, error) {
	for _, c := range r.s.contracts {
		if c.PlayerID == playerID {
			out := cloneContract(c)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("contract for player %s: %w", playerID, store.ErrNotFound)
}

func (r contractRepo) filter(keep func(models.Contract) bool) []models.Contract {
	var out []models.Contract
	for _, c := range r.s.contracts {
		if keep(c) {
			out = append(out, cloneContract(c))
		}
	}
	sortContracts(out)
	return out
}

func (r contractRepo) List(_ context.Context) ([]models.Contract, error) {
	return r.filter(func(models.Contract) bool { return true }), nil
}

func (r contractRepo) ListByFranchise(_ context.Context, franchiseID uuid.UUID) ([]models.Contract, error) {
	return r.filter(func(c models.Contract) bool { return c.FranchiseID == franchiseID }), nil
}

func (r contractRepo) ListExpiring(_ context.Context, season int) ([]models.Contract, error) {
	return r.filter(func(c models.Contract) bool {
		return c.Salary != nil && c.EndYear != nil && *c.EndYear == season
	}), nil
}

func (r contractRepo) ListRights(_ context.Context) ([]models.Contract, error) {
	return r.filter(func(c models.Contract) bool { return c.IsRFARights() }), nil
}

func (r contractRepo) Create(_ context.Context, c *models.Contract) error {
	for _, existing := range r.s.contracts {
		if existing.PlayerID == c.PlayerID {
			return fmt.Errorf("contract for player %s: %w", c.PlayerID, store.ErrConflict)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.s.contracts[c.ID] = cloneContract(*c)
	return nil
}

func (r contractRepo) Update(_ context.Context, c *models.Contract) error {
	if _, ok := r.s.contracts[c.ID]; !ok {
		return fmt.Errorf("contract %s: %w", c.ID, store.ErrNotFound)
	}
	r.s.contracts[c.ID] = cloneContract(*c)
	return nil
}

func (r contractRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.contracts[id]; !ok {
		return fmt.Errorf("contract %s: %w", id, store.ErrNotFound)
	}
	delete(r.s.contracts, id)
	return nil
}

type pickRepo struct{ s *state }

func (r pickRepo) Get(_ context.Context, id uuid.UUID) (*models.Pick, error) {
	p, ok := r.s.picks[id]
	if !ok {
		return nil, fmt.Errorf("pick %s: %w", id, store.ErrNotFound)
	}
	out := clonePick(p)
	return &out, nil
}

func (r pickRepo) filter(keep func(models.Pick) bool) []models.Pick {
	var out []models.Pick
	for _, p := range r.s.picks {
		if keep(p) {
			out = append(out, clonePick(p))
		}
	}
	sortPicks(out)
	return out
}

func (r pickRepo) ListBySeason(_ context.Context, season int) ([]models.Pick, error) {
	return r.filter(func(p models.Pick) bool { return p.Season == season }), nil
}

func (r pickRepo) ListByFranchise(_ context.Context, franchiseID uuid.UUID) ([]models.Pick, error) {
	return r.filter(func(p models.Pick) bool { return p.CurrentFranchiseID == franchiseID }), nil
}

func (r pickRepo) CreateIfMissing(_ context.Context, p *models.Pick) (bool, error) {
	for _, existing := range r.s.picks {
		if existing.Season == p.Season && existing.Round == p.Round && existing.OriginalFranchiseID == p.OriginalFranchiseID {
			return false, nil
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.picks[p.ID] = clonePick(*p)
	return true, nil
}

func (r pickRepo) update(id uuid.UUID, fn func(*models.Pick)) error {
	p, ok := r.s.picks[id]
	if !ok {
		return fmt.Errorf("pick %s: %w", id, store.ErrNotFound)
	}
	fn(&p)
	r.s.picks[id] = p
	return nil
}

func (r pickRepo) UpdateOwner(_ context.Context, id, franchiseID uuid.UUID) error {
	return r.update(id, func(p *models.Pick) { p.CurrentFranchiseID = franchiseID })
}

func (r pickRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.PickStatus) error {
	return r.update(id, func(p *models.Pick) { p.Status = status })
}

func (r pickRepo) SetPickNumber(_ context.Context, id uuid.UUID, number int) error {
	return r.update(id, func(p *models.Pick) { p.PickNumber = models.IntPtr(number) })
}

type budgetRepo struct{ s *state }

func (r budgetRepo) Get(_ context.Context, franchiseID uuid.UUID, season int) (*models.Budget, error) {
	b, ok := r.s.budgets[models.BudgetKey{FranchiseID: franchiseID, Season: season}]
	if !ok {
		return nil, fmt.Errorf("budget for %s in %d: %w", franchiseID, season, store.ErrNotFound)
	}
	return &b, nil
}

func (r budgetRepo) ListFrom(_ context.Context, season int) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range r.s.budgets {
		if b.Season >= season {
			out = append(out, b)
		}
	}
	sortBudgets(out)
	return out, nil
}

func (r budgetRepo) CreateIfMissing(_ context.Context, b *models.Budget) (bool, error) {
	key := models.BudgetKey{FranchiseID: b.FranchiseID, Season: b.Season}
	if _, ok := r.s.budgets[key]; ok {
		return false, nil
	}
	r.s.budgets[key] = *b
	return true, nil
}

func (r budgetRepo) ApplyDelta(_ context.Context, key models.BudgetKey, delta models.BudgetDelta) error {
	b, ok := r.s.budgets[key]
	if !ok {
		return fmt.Errorf("budget for %s in %d: %w", key.FranchiseID, key.Season, store.ErrNotFound)
	}
	r.s.budgets[key] = b.Apply(delta)
	return nil
}

type transactionLog struct{ s *state }

func (l transactionLog) Append(_ context.Context, t *models.Transaction) error {
	if t.Entry == nil {
		return fmt.Errorf("transaction %s has no entry", t.ID)
	}
	if te, ok := t.Entry.(*models.TradeEntry); ok && te.TradeNumber > l.s.tradeNumber {
		l.s.tradeNumber = te.TradeNumber
	}
	l.s.transactions = append(l.s.transactions, *t)
	return nil
}

func (l transactionLog) List(_ context.Context, f store.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	for i := len(l.s.transactions) - 1; i >= 0; i-- {
		t := l.s.transactions[i]
		if len(f.Types) > 0 && !slices.Contains(f.Types, t.Type) {
			continue
		}
		if f.FranchiseID != nil && !slices.Contains(t.FranchiseIDs, *f.FranchiseID) {
			continue
		}
		if f.PlayerID != nil && !slices.Contains(t.PlayerIDs, *f.PlayerID) {
			continue
		}
		if !f.Since.IsZero() && t.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !t.Timestamp.Before(f.Until) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (l transactionLog) NextTradeNumber(_ context.Context) (int, error) {
	l.s.tradeNumber++
	return l.s.tradeNumber, nil
}

type leagueRepo struct{ s *state }

func (r leagueRepo) Get(_ context.Context) (*models.League, error) {
	if r.s.league == nil {
		return nil, fmt.Errorf("league: %w", store.ErrNotFound)
	}
	l := cloneLeague(*r.s.league)
	return &l, nil
}

func (r leagueRepo) Save(_ context.Context, l *models.League) error {
	saved := cloneLeague(*l)
	r.s.league = &saved
	return nil
}
