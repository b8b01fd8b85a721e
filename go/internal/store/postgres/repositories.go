package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

type franchiseRepo struct{ pg pgx.Tx }

func (r *franchiseRepo) Get(ctx context.Context, id uuid.UUID) (*models.Franchise, error) {
	var f models.Franchise
	err := r.pg.QueryRow(ctx,
		`SELECT id, name, created_at FROM franchises WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "franchise "+id.String())
	}
	return &f, nil
}

func (r *franchiseRepo) List(ctx context.Context) ([]models.Franchise, error) {
	out, err := queryRows(ctx, r.pg,
		psql.Select("id", "name", "created_at").From("franchises").OrderBy("name"),
		func(row pgx.Row) (models.Franchise, error) {
			var f models.Franchise
			err := row.Scan(&f.ID, &f.Name, &f.CreatedAt)
			return f, err
		})
	if err != nil {
		return nil, mapErr(err, "franchises")
	}
	return out, nil
}

func (r *franchiseRepo) Create(ctx context.Context, f *models.Franchise) error {
	_, err := r.pg.Exec(ctx,
		`INSERT INTO franchises (id, name, created_at) VALUES ($1, $2, $3)`,
		f.ID, f.Name, f.CreatedAt)
	return mapErr(err, "franchise "+f.ID.String())
}

var contractColumns = []string{
	"id", "player_id", "player_name", "franchise_id", "salary", "start_year", "end_year", "rights_season",
}

func scanContract(row pgx.Row) (models.Contract, error) {
	var c models.Contract
	err := row.Scan(&c.ID, &c.PlayerID, &c.PlayerName, &c.FranchiseID,
		&c.Salary, &c.StartYear, &c.EndYear, &c.RightsSeason)
	return c, err
}

type contractRepo struct{ pg pgx.Tx }

func (r *contractRepo) list(ctx context.Context, where sq.Sqlizer) ([]models.Contract, error) {
	q := psql.Select(contractColumns...).From("contracts").OrderBy("player_id")
	if where != nil {
		q = q.Where(where)
	}
	out, err := queryRows(ctx, r.pg, q, scanContract)
	if err != nil {
		return nil, mapErr(err, "contracts")
	}
	return out, nil
}

func (r *contractRepo) GetByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Contract, error) {
	query, args, err := psql.Select(contractColumns...).From("contracts").
		Where(sq.Eq{"player_id": playerID}).
		Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	c, err := scanContract(r.pg.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, "contract for player "+playerID.String())
	}
	return &c, nil
}

func (r *contractRepo) List(ctx context.Context) ([]models.Contract, error) {
	return r.list(ctx, nil)
}

func (r *contractRepo) ListByFranchise(ctx context.Context, franchiseID uuid.UUID) ([]models.Contract, error) {
	return r.list(ctx, sq.Eq{"franchise_id": franchiseID})
}

func (r *contractRepo) ListExpiring(ctx context.Context, season int) ([]models.Contract, error) {
	return r.list(ctx, sq.And{sq.Eq{"end_year": season}, sq.NotEq{"salary": nil}})
}

func (r *contractRepo) ListRights(ctx context.Context) ([]models.Contract, error) {
	return r.list(ctx, sq.Eq{"salary": nil})
}

func (r *contractRepo) Create(ctx context.Context, c *models.Contract) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.pg.Exec(ctx, `
		INSERT INTO contracts (id, player_id, player_name, franchise_id, salary, start_year, end_year, rights_season)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.PlayerID, c.PlayerName, c.FranchiseID, c.Salary, c.StartYear, c.EndYear, c.RightsSeason)
	return mapErr(err, "contract for player "+c.PlayerID.String())
}

func (r *contractRepo) Update(ctx context.Context, c *models.Contract) error {
	tag, err := r.pg.Exec(ctx, `
		UPDATE contracts
		SET franchise_id = $2, player_name = $3, salary = $4, start_year = $5, end_year = $6, rights_season = $7
		WHERE id = $1`,
		c.ID, c.FranchiseID, c.PlayerName, c.Salary, c.StartYear, c.EndYear, c.RightsSeason)
	if err != nil {
		return mapErr(err, "contract "+c.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contract %s: %w", c.ID, store.ErrNotFound)
	}
	return nil
}

func (r *contractRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pg.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "contract "+id.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contract %s: %w", id, store.ErrNotFound)
	}
	return nil
}

var pickColumns = []string{
	"id", "season", "round", "original_franchise_id", "current_franchise_id", "status", "pick_number",
}

func scanPick(row pgx.Row) (models.Pick, error) {
	var p models.Pick
	err := row.Scan(&p.ID, &p.Season, &p.Round, &p.OriginalFranchiseID, &p.CurrentFranchiseID, &p.Status, &p.PickNumber)
	return p, err
}

type pickRepo struct{ pg pgx.Tx }

func (r *pickRepo) list(ctx context.Context, where sq.Sqlizer) ([]models.Pick, error) {
	q := psql.Select(pickColumns...).From("picks").
		Where(where).
		OrderBy("season", "round", "original_franchise_id")
	out, err := queryRows(ctx, r.pg, q, scanPick)
	if err != nil {
		return nil, mapErr(err, "picks")
	}
	return out, nil
}

func (r *pickRepo) Get(ctx context.Context, id uuid.UUID) (*models.Pick, error) {
	p, err := scanPick(r.pg.QueryRow(ctx,
		`SELECT id, season, round, original_franchise_id, current_franchise_id, status, pick_number
		FROM picks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapErr(err, "pick "+id.String())
	}
	return &p, nil
}

func (r *pickRepo) ListBySeason(ctx context.Context, season int) ([]models.Pick, error) {
	return r.list(ctx, sq.Eq{"season": season})
}

func (r *pickRepo) ListByFranchise(ctx context.Context, franchiseID uuid.UUID) ([]models.Pick, error) {
	return r.list(ctx, sq.Eq{"current_franchise_id": franchiseID})
}

func (r *pickRepo) CreateIfMissing(ctx context.Context, p *models.Pick) (bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	tag, err := r.pg.Exec(ctx, `
		INSERT INTO picks (id, season, round, original_franchise_id, current_franchise_id, status, pick_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (season, round, original_franchise_id) DO NOTHING`,
		p.ID, p.Season, p.Round, p.OriginalFranchiseID, p.CurrentFranchiseID, p.Status, p.PickNumber)
	if err != nil {
		return false, mapErr(err, "pick")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pickRepo) exec(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	tag, err := r.pg.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return mapErr(err, "pick "+id.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pick %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *pickRepo) UpdateOwner(ctx context.Context, id, franchiseID uuid.UUID) error {
	return r.exec(ctx, id, `UPDATE picks SET current_franchise_id = $2 WHERE id = $1`, franchiseID)
}

func (r *pickRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PickStatus) error {
	return r.exec(ctx, id, `UPDATE picks SET status = $2 WHERE id = $1`, status)
}

func (r *pickRepo) SetPickNumber(ctx context.Context, id uuid.UUID, number int) error {
	return r.exec(ctx, id, `UPDATE picks SET pick_number = $2 WHERE id = $1`, number)
}

var budgetColumns = []string{
	"franchise_id", "season", "base_amount", "payroll", "buy_outs", "cash_in", "cash_out", "recoverable", "available",
}

func scanBudget(row pgx.Row) (models.Budget, error) {
	var b models.Budget
	err := row.Scan(&b.FranchiseID, &b.Season, &b.BaseAmount, &b.Payroll, &b.BuyOuts,
		&b.CashIn, &b.CashOut, &b.Recoverable, &b.Available)
	return b, err
}

type budgetRepo struct{ pg pgx.Tx }

func (r *budgetRepo) Get(ctx context.Context, franchiseID uuid.UUID, season int) (*models.Budget, error) {
	query, args, err := psql.Select(budgetColumns...).From("budgets").
		Where(sq.Eq{"franchise_id": franchiseID, "season": season}).
		Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	b, err := scanBudget(r.pg.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("budget for %s in %d", franchiseID, season))
	}
	return &b, nil
}

func (r *budgetRepo) ListFrom(ctx context.Context, season int) ([]models.Budget, error) {
	out, err := queryRows(ctx, r.pg,
		psql.Select(budgetColumns...).From("budgets").
			Where(sq.GtOrEq{"season": season}).
			OrderBy("season", "franchise_id"),
		scanBudget)
	if err != nil {
		return nil, mapErr(err, "budgets")
	}
	return out, nil
}

func (r *budgetRepo) CreateIfMissing(ctx context.Context, b *models.Budget) (bool, error) {
	tag, err := r.pg.Exec(ctx, `
		INSERT INTO budgets (franchise_id, season, base_amount, payroll, buy_outs, cash_in, cash_out, recoverable, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (franchise_id, season) DO NOTHING`,
		b.FranchiseID, b.Season, b.BaseAmount, b.Payroll, b.BuyOuts, b.CashIn, b.CashOut, b.Recoverable, b.Available)
	if err != nil {
		return false, mapErr(err, "budget")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *budgetRepo) ApplyDelta(ctx context.Context, key models.BudgetKey, d models.BudgetDelta) error {
	tag, err := r.pg.Exec(ctx, `
		UPDATE budgets
		SET payroll = payroll + $3,
		    buy_outs = buy_outs + $4,
		    cash_in = cash_in + $5,
		    cash_out = cash_out + $6,
		    recoverable = recoverable + $7,
		    available = available + $8
		WHERE franchise_id = $1 AND season = $2`,
		key.FranchiseID, key.Season, d.Payroll, d.BuyOuts, d.CashIn, d.CashOut, d.Recoverable, d.Available)
	if err != nil {
		return mapErr(err, fmt.Sprintf("budget for %s in %d", key.FranchiseID, key.Season))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("budget for %s in %d: %w", key.FranchiseID, key.Season, store.ErrNotFound)
	}
	return nil
}
