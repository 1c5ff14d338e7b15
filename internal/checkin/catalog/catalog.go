// Package catalog holds the event programme: session metadata in
// definition order, plus the capacity snapshot assembled from the ledger.
package catalog

import (
	"context"
	"fmt"

	"acredita/internal/checkin/models"
	"acredita/internal/checkin/ports"
	id "acredita/pkg/domain"
	"acredita/pkg/platform/sentinel"
)

// Catalog serves session metadata. The programme is fixed at event setup,
// so lookups are lock-free; the only mutable state is the seat counters,
// which live behind the ledger.
type Catalog struct {
	sessions []*models.Session
	byID     map[id.SessionID]*models.Session
	ledger   ports.CapacityLedger
}

// New builds a catalog from the programme. Session metadata is validated
// once here so the rest of the core can assume well-formed windows.
func New(sessions []*models.Session, ledger ports.CapacityLedger) (*Catalog, error) {
	if ledger == nil {
		return nil, fmt.Errorf("capacity ledger is required")
	}

	byID := make(map[id.SessionID]*models.Session, len(sessions))
	for _, s := range sessions {
		if s.ID.IsZero() {
			return nil, fmt.Errorf("session without id")
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate session id %q", s.ID)
		}
		if !s.StartsAt.Before(s.EndsAt) {
			return nil, fmt.Errorf("session %q: start must be before end", s.ID)
		}
		sy, sm, sd := s.StartsAt.Date()
		ey, em, ed := s.EndsAt.Date()
		if sy != ey || sm != em || sd != ed {
			return nil, fmt.Errorf("session %q: must start and end on the same day", s.ID)
		}
		if s.CapacityTotal < 0 {
			return nil, fmt.Errorf("session %q: negative capacity", s.ID)
		}
		byID[s.ID] = s
	}

	return &Catalog{sessions: sessions, byID: byID, ledger: ledger}, nil
}

// List returns all sessions in definition order.
func (c *Catalog) List(_ context.Context) []*models.Session {
	return c.sessions
}

// Get returns the session with the given id, or sentinel.ErrNotFound.
func (c *Catalog) Get(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s, ok := c.byID[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s, nil
}

// CapacitySnapshot returns a point-in-time seat count per session, keyed by
// session id and annotated with the session name.
func (c *Catalog) CapacitySnapshot(ctx context.Context) (map[id.SessionID]models.SessionCapacity, error) {
	seats, err := c.ledger.Seats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[id.SessionID]models.SessionCapacity, len(c.sessions))
	for _, s := range c.sessions {
		sc := models.SessionCapacity{Name: s.Name, Total: s.CapacityTotal}
		if counted, ok := seats[s.ID]; ok {
			sc.Available = counted.Available
			sc.Total = counted.Total
		}
		out[s.ID] = sc
	}
	return out, nil
}
