package audit

import (
	"time"

	id "acredita/pkg/domain"
)

// Event is emitted from domain logic to capture key check-in actions. Keep
// it transport-agnostic so sinks can fan out (log stream today, a broker
// later) without touching business rules.
type Event struct {
	Timestamp time.Time
	Action    AuditEvent
	DNI       id.DNI
	SessionID id.SessionID
	Outcome   string
	Reason    string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
}

// AuditEvent names an auditable action.
type AuditEvent string

const (
	// General attendance events
	EventGeneralAttendanceRecorded AuditEvent = "general_attendance_recorded"
	EventWelcomeKitGranted         AuditEvent = "welcome_kit_granted"

	// Session registration events
	EventSessionRegistered          AuditEvent = "session_registered"
	EventSessionRegistrationDenied  AuditEvent = "session_registration_denied"
	EventSeatReservationCompensated AuditEvent = "seat_reservation_compensated"
)
