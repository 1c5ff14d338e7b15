// Package store provides AttendeeStore implementations.
package store

import (
	"context"
	"sync"

	"acredita/internal/checkin/models"
	id "acredita/pkg/domain"
	"acredita/pkg/platform/sentinel"
)

// InMemoryAttendeeStore keeps attendee rows in process memory with
// optimistic versioning. It backs unit tests and single-node deployments;
// use the Postgres store when state must survive a restart.
type InMemoryAttendeeStore struct {
	mu        sync.RWMutex
	attendees map[id.DNI]*models.Attendee
}

// NewInMemoryAttendeeStore creates an empty in-memory attendee store.
func NewInMemoryAttendeeStore() *InMemoryAttendeeStore {
	return &InMemoryAttendeeStore{
		attendees: make(map[id.DNI]*models.Attendee),
	}
}

// ReadAttendee returns a snapshot of the attendee row.
func (s *InMemoryAttendeeStore) ReadAttendee(_ context.Context, dni id.DNI) (*models.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attendees[dni]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.Clone(), nil
}

// WriteAttendee persists the row if its version still matches the stored
// one. A row that does not exist yet is inserted; that path is only taken
// by roster loading, never by the registration services.
func (s *InMemoryAttendeeStore) WriteAttendee(_ context.Context, attendee *models.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.attendees[attendee.DNI]
	if ok && current.Version != attendee.Version {
		return sentinel.ErrConflict
	}

	stored := attendee.Clone()
	stored.Version++
	s.attendees[attendee.DNI] = stored
	return nil
}
