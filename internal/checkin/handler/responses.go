package handler

import (
	"fmt"
	"time"

	"acredita/internal/checkin/models"
)

// Envelope is the JSON shape every endpoint returns, kept compatible with
// the scanning devices' expectations: success tells the operator whether
// the scan took effect, message is shown verbatim on the device.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// AttendeeResponse is the attendee snapshot for the search endpoint.
type AttendeeResponse struct {
	DNI                   string                 `json:"dni"`
	Name                  string                 `json:"name"`
	LastGeneralAttendance string                 `json:"last_general_attendance,omitempty"`
	KitDelivered          bool                   `json:"kit_delivered"`
	Sessions              []RegistrationResponse `json:"sessions"`
}

// RegistrationResponse is one session registration in an attendee snapshot.
type RegistrationResponse struct {
	SessionID    string    `json:"session_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// FromAttendee builds the snapshot response.
func FromAttendee(a *models.Attendee) AttendeeResponse {
	resp := AttendeeResponse{
		DNI:          a.DNI.String(),
		Name:         a.FullName,
		KitDelivered: a.KitDelivered,
		Sessions:     make([]RegistrationResponse, 0, len(a.Registrations)),
	}
	if !a.LastGeneralAttendance.IsZero() {
		resp.LastGeneralAttendance = a.LastGeneralAttendance.Format("2006-01-02")
	}
	for _, r := range a.Registrations {
		resp.Sessions = append(resp.Sessions, RegistrationResponse{
			SessionID:    r.SessionID.String(),
			RegisteredAt: r.RegisteredAt,
		})
	}
	return resp
}

// SessionResponse is one entry of the session listing.
type SessionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
}

// CapacityResponse is one entry of the capacity snapshot.
type CapacityResponse struct {
	Available int    `json:"available"`
	Total     int    `json:"total"`
	Name      string `json:"name"`
}

// GeneralAttendanceData is the payload for a recorded general check-in.
type GeneralAttendanceData struct {
	DNI          string `json:"dni"`
	Name         string `json:"name"`
	KitGranted   bool   `json:"kit_granted"`
	AlreadyToday bool   `json:"already_registered_today"`
}

// SessionRegisterData is the payload for a session registration outcome.
type SessionRegisterData struct {
	SessionID         string    `json:"session_id"`
	SessionName       string    `json:"session_name,omitempty"`
	RegisteredAt      time.Time `json:"registered_at,omitzero"`
	ConflictSessionID string    `json:"conflict_session_id,omitempty"`
	MinutesEarly      int       `json:"minutes_early,omitempty"`
	MinutesLate       int       `json:"minutes_late,omitempty"`
}

// outcomeMessage renders the operator-facing message for a registration
// outcome. Wording follows what the scanning devices already display.
func outcomeMessage(o *models.RegistrationOutcome) string {
	switch o.Status {
	case models.StatusRegistered:
		return fmt.Sprintf("Successfully registered in %s", o.SessionName)
	case models.StatusAlreadyRegistered:
		return fmt.Sprintf("Already registered in %s", o.SessionName)
	case models.StatusNoGeneralAttendance:
		return "Must register general attendance first"
	case models.StatusTooEarly:
		return fmt.Sprintf("Too early: %d minute(s) until the session starts. Registration opens 1 hour before.", o.MinutesEarly)
	case models.StatusTooLate:
		return fmt.Sprintf("Too late: the session started %d minute(s) ago. Registration closes 15 minutes after the start.", o.MinutesLate)
	case models.StatusSessionFinished:
		return "The session has already finished"
	case models.StatusOverlap:
		return fmt.Sprintf("Schedule conflict with %s", o.ConflictSessionName)
	case models.StatusNoCapacity:
		return fmt.Sprintf("No seats available for %s", o.SessionName)
	case models.StatusAttendeeNotFound:
		return "Attendee not found"
	case models.StatusSessionNotFound:
		return "Session not found"
	default:
		return "Unknown registration outcome"
	}
}
