// Package publisher provides audit event sinks.
package publisher

import (
	"context"
	"log/slog"

	"acredita/pkg/platform/audit"
)

// SlogPublisher writes audit events to the structured log stream. It is the
// default sink; deployments that need durable audit trails can swap in a
// broker-backed publisher behind the same interface.
type SlogPublisher struct {
	logger *slog.Logger
}

// NewSlog creates a log-backed audit publisher.
func NewSlog(logger *slog.Logger) *SlogPublisher {
	return &SlogPublisher{logger: logger}
}

// Emit records the event on the log stream. It never fails; a lost audit
// line must not abort the check-in that produced it.
func (p *SlogPublisher) Emit(ctx context.Context, event audit.Event) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.InfoContext(ctx, string(event.Action),
		"log_type", "audit",
		"dni", event.DNI.String(),
		"session_id", event.SessionID.String(),
		"outcome", event.Outcome,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	)
	return nil
}
