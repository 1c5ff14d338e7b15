package handler

import (
	id "acredita/pkg/domain"
)

// GeneralAttendanceRequest is the body for POST /api/v1/attendees/general.
type GeneralAttendanceRequest struct {
	DNI string `json:"dni"`

	parsedDNI id.DNI
}

// Validate validates and parses the request. Implements the Validatable
// interface for httputil.DecodeAndPrepare.
func (r *GeneralAttendanceRequest) Validate() error {
	dni, err := id.ParseDNI(r.DNI)
	if err != nil {
		return err
	}
	r.parsedDNI = dni
	return nil
}

// ParsedDNI returns the validated DNI.
func (r *GeneralAttendanceRequest) ParsedDNI() id.DNI { return r.parsedDNI }

// SessionRegisterRequest is the body for POST /api/v1/sessions/register.
type SessionRegisterRequest struct {
	DNI       string `json:"dni"`
	SessionID string `json:"session_id"`

	parsedDNI       id.DNI
	parsedSessionID id.SessionID
}

// Validate validates and parses the request.
func (r *SessionRegisterRequest) Validate() error {
	dni, err := id.ParseDNI(r.DNI)
	if err != nil {
		return err
	}
	sessionID, err := id.ParseSessionID(r.SessionID)
	if err != nil {
		return err
	}
	r.parsedDNI = dni
	r.parsedSessionID = sessionID
	return nil
}

// ParsedDNI returns the validated DNI.
func (r *SessionRegisterRequest) ParsedDNI() id.DNI { return r.parsedDNI }

// ParsedSessionID returns the validated session id.
func (r *SessionRegisterRequest) ParsedSessionID() id.SessionID { return r.parsedSessionID }
