package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

const tradeCounter = "trade_number"

type transactionLog struct{ pg pgx.Tx }

// Append writes the log entry and its outbox event in the same transaction.
func (l *transactionLog) Append(ctx context.Context, t *models.Transaction) error {
	entry, err := json.Marshal(t.Entry)
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", t.Type, err)
	}
	var tradeNumber *int
	if te, ok := t.Entry.(*models.TradeEntry); ok {
		tradeNumber = &te.TradeNumber
	}

	_, err = l.pg.Exec(ctx, `
		INSERT INTO transactions (id, type, occurred_at, source, season, franchise_ids, player_ids, trade_number, entry)
		VALUES ($1, $2, $3, $4, $5, $6::text[]::uuid[], $7::text[]::uuid[], $8, $9)`,
		t.ID, string(t.Type), t.Timestamp, string(t.Source), t.Season,
		uuidStrings(t.FranchiseIDs), uuidStrings(t.PlayerIDs), tradeNumber, entry)
	if err != nil {
		return mapErr(err, "transaction "+t.ID.String())
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction event: %w", err)
	}
	_, err = l.pg.Exec(ctx, `
		INSERT INTO ledger_outbox (id, transaction_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), t.ID, string(t.Type), payload)
	if err != nil {
		return mapErr(err, "outbox event for "+t.ID.String())
	}
	return nil
}

func (l *transactionLog) List(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, error) {
	q := psql.Select("id", "type", "occurred_at", "source", "season", "franchise_ids::text[]", "player_ids::text[]", "entry").
		From("transactions").
		OrderBy("occurred_at DESC", "seq DESC")

	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		q = q.Where(sq.Eq{"type": types})
	}
	if f.FranchiseID != nil {
		q = q.Where("?::uuid = ANY(franchise_ids)", f.FranchiseID.String())
	}
	if f.PlayerID != nil {
		q = q.Where("?::uuid = ANY(player_ids)", f.PlayerID.String())
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"occurred_at": f.Since})
	}
	if !f.Until.IsZero() {
		q = q.Where(sq.Lt{"occurred_at": f.Until})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	out, err := queryRows(ctx, l.pg, q, scanTransaction)
	if err != nil {
		return nil, mapErr(err, "transactions")
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var (
		t       models.Transaction
		typ     string
		source  string
		entry   []byte
		franIDs []string
		plIDs   []string
	)
	if err := row.Scan(&t.ID, &typ, &t.Timestamp, &source, &t.Season, &franIDs, &plIDs, &entry); err != nil {
		return t, err
	}
	t.Type = models.TransactionType(typ)
	t.Source = models.Source(source)

	var err error
	if t.FranchiseIDs, err = parseUUIDs(franIDs); err != nil {
		return t, err
	}
	if t.PlayerIDs, err = parseUUIDs(plIDs); err != nil {
		return t, err
	}
	if t.Entry, err = models.DecodeEntry(t.Type, entry); err != nil {
		return t, err
	}
	return t, nil
}

// NextTradeNumber bumps the counter row, seeding it from the log the first time.
// The row lock is held until the surrounding transaction ends.
func (l *transactionLog) NextTradeNumber(ctx context.Context) (int, error) {
	var n int
	err := l.pg.QueryRow(ctx, `
		INSERT INTO ledger_counters (name, value)
		VALUES ($1, COALESCE((SELECT MAX(trade_number) FROM transactions), 0) + 1)
		ON CONFLICT (name) DO UPDATE SET value = ledger_counters.value + 1
		RETURNING value`, tradeCounter).Scan(&n)
	if err != nil {
		return 0, mapErr(err, "trade counter")
	}
	return n, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(ss []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(ss))
	for i, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", s, err)
		}
		out[i] = id
	}
	return out, nil
}

type leagueRepo struct{ pg pgx.Tx }

func (r *leagueRepo) Get(ctx context.Context) (*models.League, error) {
	var (
		l        models.League
		keyDates []byte
		alive    []string
	)
	err := r.pg.QueryRow(ctx, `
		SELECT current_season, key_dates, playoff_alive::text[], updated_at
		FROM league WHERE id = 1 FOR UPDATE`,
	).Scan(&l.CurrentSeason, &keyDates, &alive, &l.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "league")
	}
	if err := json.Unmarshal(keyDates, &l.KeyDates); err != nil {
		return nil, fmt.Errorf("failed to decode key dates: %w", err)
	}
	if l.PlayoffAlive, err = parseUUIDs(alive); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *leagueRepo) Save(ctx context.Context, l *models.League) error {
	keyDates, err := json.Marshal(l.KeyDates)
	if err != nil {
		return fmt.Errorf("failed to encode key dates: %w", err)
	}
	_, err = r.pg.Exec(ctx, `
		INSERT INTO league (id, current_season, key_dates, playoff_alive, updated_at)
		VALUES (1, $1, $2, $3::text[]::uuid[], $4)
		ON CONFLICT (id) DO UPDATE
		SET current_season = EXCLUDED.current_season,
		    key_dates = EXCLUDED.key_dates,
		    playoff_alive = EXCLUDED.playoff_alive,
		    updated_at = EXCLUDED.updated_at`,
		l.CurrentSeason, keyDates, uuidStrings(l.PlayoffAlive), l.UpdatedAt)
	return mapErr(err, "league")
}
