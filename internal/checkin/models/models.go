// Package models defines the check-in domain entities and the outcome
// values the registration pipeline produces.
package models

import (
	"time"

	id "acredita/pkg/domain"
)

// Attendee is one person on the event roster, keyed by DNI. The roster is
// pre-loaded at event setup; attendees are never deleted during the event.
type Attendee struct {
	DNI      id.DNI
	FullName string

	// LastGeneralAttendance is the calendar date of the most recent
	// general check-in. The zero time means the attendee has never
	// checked in.
	LastGeneralAttendance time.Time

	// KitDelivered flips to true on the first-ever general check-in and
	// never changes again.
	KitDelivered bool

	// Registrations holds one entry per breakout session, in registration
	// order. No session appears twice and no two held sessions overlap in
	// time; both invariants are enforced at write time by the engine.
	Registrations []SessionRegistration

	// Version supports optimistic writes against the attendee store.
	Version int64
}

// SessionRegistration records one session check-in.
type SessionRegistration struct {
	SessionID    id.SessionID
	RegisteredAt time.Time
}

// HasGeneralAttendanceOn reports whether the attendee's last general
// check-in falls on the same calendar date as t.
func (a *Attendee) HasGeneralAttendanceOn(t time.Time) bool {
	if a.LastGeneralAttendance.IsZero() {
		return false
	}
	y1, m1, d1 := a.LastGeneralAttendance.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// RegisteredIn reports whether the attendee already holds a seat in the
// given session.
func (a *Attendee) RegisteredIn(sessionID id.SessionID) bool {
	for _, r := range a.Registrations {
		if r.SessionID == sessionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores can hand out snapshots without
// exposing shared slices.
func (a *Attendee) Clone() *Attendee {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Registrations = make([]SessionRegistration, len(a.Registrations))
	copy(cp.Registrations, a.Registrations)
	return &cp
}

// Session is one breakout talk with a fixed time window and seat count.
// Everything but the seat counter (owned by the capacity ledger) is fixed
// at event setup.
type Session struct {
	ID            id.SessionID
	Name          string
	Description   string
	StartsAt      time.Time
	EndsAt        time.Time
	CapacityTotal int
}

// Overlaps reports whether the half-open intervals [StartsAt, EndsAt) of
// two sessions intersect.
func (s *Session) Overlaps(other *Session) bool {
	return s.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(s.EndsAt)
}

// RegistrationAttempt describes one inbound scan. It lives only for the
// duration of a single engine call and is never persisted.
type RegistrationAttempt struct {
	DNI       id.DNI
	SessionID id.SessionID
	At        time.Time
}

// Seats is a point-in-time seat count for one session.
type Seats struct {
	Available int
	Total     int
}

// SessionCapacity is one entry of the capacity snapshot exposed to callers.
type SessionCapacity struct {
	Name      string
	Available int
	Total     int
}

// OutcomeStatus names the result of a session registration attempt. These
// are expected, user-facing outcomes, not errors; the gateway renders a
// specific message per status.
type OutcomeStatus string

const (
	StatusRegistered          OutcomeStatus = "registered"
	StatusAlreadyRegistered   OutcomeStatus = "already_registered"
	StatusNoGeneralAttendance OutcomeStatus = "no_general_attendance"
	StatusTooEarly            OutcomeStatus = "too_early"
	StatusTooLate             OutcomeStatus = "too_late"
	StatusSessionFinished     OutcomeStatus = "session_finished"
	StatusOverlap             OutcomeStatus = "overlap"
	StatusNoCapacity          OutcomeStatus = "no_capacity"
	StatusAttendeeNotFound    OutcomeStatus = "attendee_not_found"
	StatusSessionNotFound     OutcomeStatus = "session_not_found"
)

// RegistrationOutcome is the engine's answer to one attempt.
type RegistrationOutcome struct {
	Status      OutcomeStatus
	SessionID   id.SessionID
	SessionName string

	// Overlap details, set when Status is StatusOverlap.
	ConflictSessionID   id.SessionID
	ConflictSessionName string

	// Window details, set for StatusTooEarly / StatusTooLate.
	MinutesEarly int
	MinutesLate  int

	// RegisteredAt echoes the committed timestamp on success.
	RegisteredAt time.Time
}

// Succeeded reports whether the attempt produced a new registration.
func (o RegistrationOutcome) Succeeded() bool {
	return o.Status == StatusRegistered
}

// GeneralStatus names the result of a general attendance registration.
type GeneralStatus string

const (
	GeneralRegistered       GeneralStatus = "registered"
	GeneralAlreadyToday     GeneralStatus = "already_registered_today"
	GeneralAttendeeNotFound GeneralStatus = "attendee_not_found"
)

// GeneralAttendanceResult is the registry's answer to one general check-in.
type GeneralAttendanceResult struct {
	Status GeneralStatus

	// KitGranted is true only on the attendee's first-ever general
	// check-in.
	KitGranted bool

	AttendeeName string
	RegisteredAt time.Time
}
