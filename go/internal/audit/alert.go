package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DriftSubject is where drift reports are published.
const DriftSubject = "league.alerts.drift"

// NATSAlerter publishes drift reports as JSON.
type NATSAlerter struct {
	nc      *nats.Conn
	subject string
}

func NewNATSAlerter(nc *nats.Conn) *NATSAlerter {
	return &NATSAlerter{nc: nc, subject: DriftSubject}
}

func (a *NATSAlerter) Alert(_ context.Context, report *Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal drift report: %w", err)
	}
	if err := a.nc.Publish(a.subject, data); err != nil {
		return fmt.Errorf("failed to publish drift report: %w", err)
	}
	return nil
}
