package engine

import (
	"time"

	"acredita/internal/checkin/models"
)

// Registration window around the session start. A scan is admitted from
// EarlyWindow before the start until LateGrace after it, both inclusive,
// and never once the session has ended.
const (
	EarlyWindow = 60 * time.Minute
	LateGrace   = 15 * time.Minute
)

// WindowVerdict is the result of the time-window rule. Status is empty when
// the scan falls inside the window.
type WindowVerdict struct {
	Status       models.OutcomeStatus
	MinutesEarly int
	MinutesLate  int
}

// Admitted reports whether the scan falls inside the window.
func (v WindowVerdict) Admitted() bool { return v.Status == "" }

// EvaluateWindow applies the time-window rule. Pure domain logic: no I/O,
// no side effects.
func EvaluateWindow(s *models.Session, now time.Time) WindowVerdict {
	if untilStart := s.StartsAt.Sub(now); untilStart > EarlyWindow {
		return WindowVerdict{
			Status:       models.StatusTooEarly,
			MinutesEarly: int(untilStart.Minutes()),
		}
	}
	if !now.Before(s.EndsAt) {
		return WindowVerdict{Status: models.StatusSessionFinished}
	}
	if sinceStart := now.Sub(s.StartsAt); sinceStart > LateGrace {
		return WindowVerdict{
			Status:      models.StatusTooLate,
			MinutesLate: int(sinceStart.Minutes()),
		}
	}
	return WindowVerdict{}
}

// FindOverlap returns the first held session whose [start, end) interval
// intersects the candidate's, or nil when the candidate fits the schedule.
func FindOverlap(candidate *models.Session, held []*models.Session) *models.Session {
	for _, h := range held {
		if candidate.Overlaps(h) {
			return h
		}
	}
	return nil
}
