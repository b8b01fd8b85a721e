package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mcdev12/dynasty-ledger/go/internal/sqlutil"
)

// ErrEventNotFound is returned when an event does not exist or was already sent.
var ErrEventNotFound = errors.New("outbox event not found or already sent")

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository reads and acknowledges ledger outbox rows.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, transaction_id, event_type, payload, created_at, sent_at`

func scanEvent(scan func(dest ...any) error) (Event, error) {
	var (
		e      Event
		sentAt sql.NullTime
	)
	if err := scan(&e.ID, &e.TransactionID, &e.EventType, &e.Payload, &e.CreatedAt, &sentAt); err != nil {
		return Event{}, err
	}
	e.SentAt = sqlutil.FromSqlTime(sentAt)
	return e, nil
}

// FetchByID returns an unsent event.
func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return fetchByID(ctx, r.db, id)
}

func fetchByID(ctx context.Context, q querier, id uuid.UUID) (*Event, error) {
	row := q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM ledger_outbox WHERE id = $1 AND sent_at IS NULL`, id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox event by id: %w", err)
	}
	return &e, nil
}

// fetchUnsent locks up to limit unsent events, oldest first. Rows locked by another
// relay are skipped.
func fetchUnsent(ctx context.Context, q querier, limit int) ([]Event, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM ledger_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkSent acknowledges one event.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	return markSent(ctx, r.db, id)
}

func markSent(ctx context.Context, q querier, ids ...uuid.UUID) error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := q.ExecContext(ctx, `UPDATE ledger_outbox SET sent_at = now() WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	if err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

// CountUnsent reports the outbox backlog.
func (r *Repository) CountUnsent(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger_outbox WHERE sent_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unsent outbox events: %w", err)
	}
	return n, nil
}

// DrainUnsent publishes one batch of unsent events inside a transaction, marking the
// ones that were delivered. It returns how many were published.
func (r *Repository) DrainUnsent(ctx context.Context, limit int, publish func(ctx context.Context, e Event) error) (int, error) {
	sent := 0
	err := sqlutil.RunSQL(ctx, r.db, func(tx *sql.Tx) error {
		events, err := fetchUnsent(ctx, tx, limit)
		if err != nil {
			return err
		}
		var delivered []uuid.UUID
		for _, e := range events {
			if err := publish(ctx, e); err != nil {
				continue
			}
			delivered = append(delivered, e.ID)
		}
		if len(delivered) == 0 {
			return nil
		}
		if err := markSent(ctx, tx, delivered...); err != nil {
			return err
		}
		sent = len(delivered)
		return nil
	})
	return sent, err
}
