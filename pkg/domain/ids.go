// Package domain defines the typed identifiers shared across modules.
// Parsing happens once at trust boundaries; everything past a handler
// works with the typed form.
package domain

import (
	"strings"

	dErrors "acredita/pkg/domain-errors"
)

// DNILength is the fixed length of a national identity document number.
const DNILength = 8

// DNI is an attendee's national identity document number. It is the only
// identifier attendees present at the check-in desk, so it doubles as the
// attendee key everywhere.
type DNI string

// ParseDNI validates a raw DNI string. A valid DNI is exactly eight
// decimal digits; anything else is rejected at the boundary.
func ParseDNI(raw string) (DNI, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeValidation, "dni is required")
	}
	if len(raw) != DNILength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "dni must be exactly 8 digits")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "dni must contain only digits")
		}
	}
	return DNI(raw), nil
}

// String returns the raw document number.
func (d DNI) String() string { return string(d) }

// IsZero reports whether the DNI is unset.
func (d DNI) IsZero() bool { return d == "" }

// SessionID identifies a breakout session in the event programme.
type SessionID string

// ParseSessionID validates a raw session identifier.
func ParseSessionID(raw string) (SessionID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeValidation, "session_id is required")
	}
	if len(raw) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "session_id must be at most 64 characters")
	}
	return SessionID(raw), nil
}

// String returns the raw session identifier.
func (s SessionID) String() string { return string(s) }

// IsZero reports whether the SessionID is unset.
func (s SessionID) IsZero() bool { return s == "" }
