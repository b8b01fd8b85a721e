package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

func TestNewMessage(t *testing.T) {
	event := Event{
		ID:            uuid.MustParse("6f1c3a52-1d1e-4f7a-9a56-0c1d2e3f4a5b"),
		TransactionID: uuid.MustParse("0a9b8c7d-6e5f-4a3b-9c1d-2e3f4a5b6c7d"),
		EventType:     "draft-select",
		Payload:       pqtype.NullRawMessage{RawMessage: json.RawMessage(`{"season":2024}`), Valid: true},
		CreatedAt:     time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
	}

	msg, err := newMessage("league.transactions", event)
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if msg.Subject != "league.transactions.draft-select" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if got := msg.Header.Get("Transaction-ID"); got != event.TransactionID.String() {
		t.Errorf("Transaction-ID header = %q", got)
	}

	var got map[string]any
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	want := map[string]any{
		"eventId":       event.ID.String(),
		"eventType":     "draft-select",
		"transactionId": event.TransactionID.String(),
		"timestamp":     "2024-05-01T12:00:00Z",
		"payload":       map[string]any{"season": float64(2024)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

type flakyPublisher struct {
	failures int
	calls    int
}

func (p *flakyPublisher) Publish(context.Context, Event) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("nats unavailable")
	}
	return nil
}

func TestPublishWithRetry(t *testing.T) {
	p := &flakyPublisher{failures: 2}
	if err := publishWithRetry(context.Background(), p, Event{ID: uuid.New()}, 3, time.Millisecond); err != nil {
		t.Fatalf("publishWithRetry: %v", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}

	p = &flakyPublisher{failures: 10}
	err := publishWithRetry(context.Background(), p, Event{ID: uuid.New()}, 2, time.Millisecond)
	if err == nil {
		t.Fatal("expected failure after retries")
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}
