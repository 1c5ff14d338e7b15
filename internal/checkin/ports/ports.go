// Package ports defines shared interfaces for the checkin module.
// Interfaces live here when consumed by multiple services to avoid
// duplication.
package ports

import (
	"context"
	"log/slog"

	"acredita/internal/checkin/models"
	id "acredita/pkg/domain"
	"acredita/pkg/platform/audit"
)

// AttendeeStore is the external collaborator holding attendee rows. Writes
// are optimistic: WriteAttendee fails with sentinel.ErrConflict when the
// row changed since it was read, and the caller retries the whole
// read-modify-write under its per-attendee lock.
//
// Store calls are the only operations in the core expected to block on
// I/O; callers bound them with a timeout and never retry transient
// failures while holding a lock.
type AttendeeStore interface {
	// ReadAttendee returns a snapshot of the attendee row, or
	// sentinel.ErrNotFound.
	ReadAttendee(ctx context.Context, dni id.DNI) (*models.Attendee, error)

	// WriteAttendee persists the row if its version still matches the
	// stored one, then bumps the version. Returns sentinel.ErrConflict on
	// a lost race.
	WriteAttendee(ctx context.Context, attendee *models.Attendee) error
}

// SessionSource lists the event programme. Session metadata is fixed at
// event setup, so implementations may serve from memory.
type SessionSource interface {
	// Sessions returns all sessions in definition order.
	Sessions(ctx context.Context) ([]*models.Session, error)
}

// CapacityLedger does atomic seat accounting, one counter per session.
// Counters for different sessions never block each other.
type CapacityLedger interface {
	// TryReserve atomically takes one seat if any is available. It reports
	// false, without mutating, when the session is full. This is the only
	// capacity-decreasing operation.
	TryReserve(ctx context.Context, sessionID id.SessionID) (bool, error)

	// Release returns one seat, clamped at the session total. Used only to
	// compensate a reservation whose commit failed.
	Release(ctx context.Context, sessionID id.SessionID) error

	// Seats returns a point-in-time seat count for every session.
	Seats(ctx context.Context) (map[id.SessionID]models.Seats, error)
}

// AuditPublisher emits audit events for check-in actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit is a shared helper for recording audit events across checkin
// services. It logs to the structured logger and forwards to the audit
// publisher when one is configured.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event) {
	if logger != nil {
		logger.InfoContext(ctx, string(event.Action),
			"log_type", "audit",
			"dni", event.DNI.String(),
			"session_id", event.SessionID.String(),
			"outcome", event.Outcome,
			"reason", event.Reason,
		)
	}
	if publisher != nil {
		_ = publisher.Emit(ctx, event)
	}
}
