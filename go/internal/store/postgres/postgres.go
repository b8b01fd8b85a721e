// Package postgres implements the ledger store on Postgres. Every unit of work is one
// database transaction, so a processor's writes land together or not at all.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/dynasty-ledger/go/internal/sqlutil"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Connect opens a pool and waits up to 30 seconds for the database to answer.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConns = 10

	deadline := time.Now().Add(30 * time.Second)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		pool, err := pgxpool.NewWithConfig(pingCtx, cfg)
		if err == nil {
			if err = pool.Ping(pingCtx); err == nil {
				cancel()
				return pool, nil
			}
			pool.Close()
		}
		cancel()

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Warn().Err(err).Msg("database not ready, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Store is the Postgres-backed ledger store.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ store.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return sqlutil.Run(ctx, s.pool, newTx, func(t *tx) error {
		return fn(ctx, t)
	})
}

type tx struct {
	pg pgx.Tx
}

func newTx(pg pgx.Tx) *tx {
	return &tx{pg: pg}
}

func (t *tx) Franchises() store.FranchiseRepository { return &franchiseRepo{t.pg} }
func (t *tx) Contracts() store.ContractRepository   { return &contractRepo{t.pg} }
func (t *tx) Picks() store.PickRepository           { return &pickRepo{t.pg} }
func (t *tx) Budgets() store.BudgetRepository       { return &budgetRepo{t.pg} }
func (t *tx) Transactions() store.TransactionLog    { return &transactionLog{t.pg} }
func (t *tx) League() store.LeagueRepository        { return &leagueRepo{t.pg} }

// mapErr translates driver errors into store sentinels.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w: %s", what, store.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("failed to query %s: %w", what, err)
}

func queryRows[T any](ctx context.Context, pg pgx.Tx, q sq.SelectBuilder, scan func(pgx.Row) (T, error)) ([]T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
