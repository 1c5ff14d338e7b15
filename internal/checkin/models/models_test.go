package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"acredita/internal/checkin/models"
	id "acredita/pkg/domain"
)

func TestAttendeeHasGeneralAttendanceOn(t *testing.T) {
	day := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)

	t.Run("never checked in", func(t *testing.T) {
		a := &models.Attendee{DNI: "60214180"}
		assert.False(t, a.HasGeneralAttendanceOn(day))
	})

	t.Run("same calendar date, different wall clock", func(t *testing.T) {
		a := &models.Attendee{DNI: "60214180", LastGeneralAttendance: day}
		assert.True(t, a.HasGeneralAttendanceOn(day.Add(7*time.Hour)))
	})

	t.Run("previous day", func(t *testing.T) {
		a := &models.Attendee{DNI: "60214180", LastGeneralAttendance: day.AddDate(0, 0, -1)}
		assert.False(t, a.HasGeneralAttendanceOn(day))
	})

	t.Run("same day number in a different month", func(t *testing.T) {
		a := &models.Attendee{DNI: "60214180", LastGeneralAttendance: day.AddDate(0, -1, 0)}
		assert.False(t, a.HasGeneralAttendanceOn(day))
	})
}

func TestAttendeeRegisteredIn(t *testing.T) {
	a := &models.Attendee{
		DNI: "60214180",
		Registrations: []models.SessionRegistration{
			{SessionID: "sesion_1", RegisteredAt: time.Now()},
		},
	}
	assert.True(t, a.RegisteredIn("sesion_1"))
	assert.False(t, a.RegisteredIn("sesion_2"))
}

func TestAttendeeClone(t *testing.T) {
	t.Run("nil attendee", func(t *testing.T) {
		var a *models.Attendee
		assert.Nil(t, a.Clone())
	})

	t.Run("mutating the clone leaves the original intact", func(t *testing.T) {
		a := &models.Attendee{
			DNI:      "60214180",
			FullName: "Lucía Paredes",
			Registrations: []models.SessionRegistration{
				{SessionID: "sesion_1"},
			},
			Version: 3,
		}

		cp := a.Clone()
		cp.Registrations = append(cp.Registrations, models.SessionRegistration{SessionID: "sesion_2"})
		cp.Registrations[0].SessionID = "mutated"
		cp.Version = 9

		assert.Len(t, a.Registrations, 1)
		assert.Equal(t, id.SessionID("sesion_1"), a.Registrations[0].SessionID)
		assert.Equal(t, int64(3), a.Version)
	})
}

func TestSessionOverlaps(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 28, h, m, 0, 0, time.UTC)
	}
	base := &models.Session{ID: "base", StartsAt: at(10, 0), EndsAt: at(11, 0)}

	cases := []struct {
		name  string
		other *models.Session
		want  bool
	}{
		{"identical window", &models.Session{StartsAt: at(10, 0), EndsAt: at(11, 0)}, true},
		{"partial overlap at the tail", &models.Session{StartsAt: at(10, 30), EndsAt: at(11, 30)}, true},
		{"contained window", &models.Session{StartsAt: at(10, 15), EndsAt: at(10, 45)}, true},
		{"containing window", &models.Session{StartsAt: at(9, 0), EndsAt: at(12, 0)}, true},
		{"back to back, other starts at end", &models.Session{StartsAt: at(11, 0), EndsAt: at(12, 0)}, false},
		{"back to back, other ends at start", &models.Session{StartsAt: at(9, 0), EndsAt: at(10, 0)}, false},
		{"disjoint", &models.Session{StartsAt: at(14, 0), EndsAt: at(15, 0)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestRegistrationOutcomeSucceeded(t *testing.T) {
	assert.True(t, models.RegistrationOutcome{Status: models.StatusRegistered}.Succeeded())
	for _, status := range []models.OutcomeStatus{
		models.StatusAlreadyRegistered,
		models.StatusNoGeneralAttendance,
		models.StatusTooEarly,
		models.StatusTooLate,
		models.StatusSessionFinished,
		models.StatusOverlap,
		models.StatusNoCapacity,
		models.StatusAttendeeNotFound,
		models.StatusSessionNotFound,
	} {
		assert.False(t, models.RegistrationOutcome{Status: status}.Succeeded(), string(status))
	}
}
