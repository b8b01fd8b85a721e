package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Event is one unsent row of the ledger outbox: a transaction-log entry waiting to be
// published.
type Event struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	EventType     string
	Payload       pqtype.NullRawMessage
	CreatedAt     time.Time
	SentAt        *time.Time
}

// Publisher delivers an outbox event to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
