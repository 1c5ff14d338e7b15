package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"acredita/internal/checkin/models"
)

func TestEvaluateWindow(t *testing.T) {
	start := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	session := &models.Session{
		ID:       "sesion_1",
		Name:     "Taller",
		StartsAt: start,
		EndsAt:   start.Add(time.Hour),
	}

	cases := []struct {
		name string
		now  time.Time
		want models.OutcomeStatus
	}{
		{"well before the window opens", start.Add(-90 * time.Minute), models.StatusTooEarly},
		{"one minute before the window opens", start.Add(-61 * time.Minute), models.StatusTooEarly},
		{"exactly at the window open", start.Add(-EarlyWindow), ""},
		{"a few minutes early", start.Add(-10 * time.Minute), ""},
		{"at the session start", start, ""},
		{"inside the late grace", start.Add(10 * time.Minute), ""},
		{"exactly at the grace boundary", start.Add(LateGrace), ""},
		{"one minute past the grace", start.Add(16 * time.Minute), models.StatusTooLate},
		{"well past the grace", start.Add(40 * time.Minute), models.StatusTooLate},
		{"exactly at the session end", start.Add(time.Hour), models.StatusSessionFinished},
		{"after the session end", start.Add(2 * time.Hour), models.StatusSessionFinished},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := EvaluateWindow(session, tc.now)
			assert.Equal(t, tc.want, verdict.Status)
			assert.Equal(t, tc.want == "", verdict.Admitted())
		})
	}

	t.Run("reports minutes until start when too early", func(t *testing.T) {
		verdict := EvaluateWindow(session, start.Add(-90*time.Minute))
		assert.Equal(t, models.StatusTooEarly, verdict.Status)
		assert.Equal(t, 90, verdict.MinutesEarly)
		assert.Zero(t, verdict.MinutesLate)
	})

	t.Run("reports minutes since start when too late", func(t *testing.T) {
		verdict := EvaluateWindow(session, start.Add(40*time.Minute))
		assert.Equal(t, models.StatusTooLate, verdict.Status)
		assert.Equal(t, 40, verdict.MinutesLate)
		assert.Zero(t, verdict.MinutesEarly)
	})

	t.Run("a finished session is never reported as too late", func(t *testing.T) {
		short := &models.Session{StartsAt: start, EndsAt: start.Add(10 * time.Minute)}
		verdict := EvaluateWindow(short, start.Add(20*time.Minute))
		assert.Equal(t, models.StatusSessionFinished, verdict.Status)
	})
}

func TestFindOverlap(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 28, h, m, 0, 0, time.UTC)
	}
	candidate := &models.Session{ID: "candidate", StartsAt: at(10, 0), EndsAt: at(11, 0)}

	t.Run("no held sessions", func(t *testing.T) {
		assert.Nil(t, FindOverlap(candidate, nil))
	})

	t.Run("adjacent sessions do not conflict", func(t *testing.T) {
		held := []*models.Session{
			{ID: "before", StartsAt: at(9, 0), EndsAt: at(10, 0)},
			{ID: "after", StartsAt: at(11, 0), EndsAt: at(12, 0)},
		}
		assert.Nil(t, FindOverlap(candidate, held))
	})

	t.Run("returns the first conflicting session", func(t *testing.T) {
		held := []*models.Session{
			{ID: "disjoint", StartsAt: at(8, 0), EndsAt: at(9, 0)},
			{ID: "first_conflict", StartsAt: at(10, 30), EndsAt: at(11, 30)},
			{ID: "second_conflict", StartsAt: at(10, 45), EndsAt: at(11, 45)},
		}
		conflict := FindOverlap(candidate, held)
		if assert.NotNil(t, conflict) {
			assert.Equal(t, "first_conflict", conflict.ID.String())
		}
	})
}
