// Package ledger provides capacity ledger implementations: atomic seat
// accounting with one counter per session.
package ledger

import (
	"context"
	"sync"

	"acredita/internal/checkin/models"
	id "acredita/pkg/domain"
	dErrors "acredita/pkg/domain-errors"
	"acredita/pkg/platform/sentinel"
)

// seatCounter guards one session's seat count. Each counter has its own
// mutex so reservations against different sessions never contend.
type seatCounter struct {
	mu        sync.Mutex
	available int
	total     int
}

// InMemoryLedger keeps seat counters in process memory. The counter set is
// fixed at construction; sessions are created at event setup, never during
// the event.
type InMemoryLedger struct {
	counters map[id.SessionID]*seatCounter
}

// NewInMemory builds a ledger with every session starting at full
// availability.
func NewInMemory(sessions []*models.Session) *InMemoryLedger {
	counters := make(map[id.SessionID]*seatCounter, len(sessions))
	for _, s := range sessions {
		counters[s.ID] = &seatCounter{available: s.CapacityTotal, total: s.CapacityTotal}
	}
	return &InMemoryLedger{counters: counters}
}

// TryReserve atomically takes one seat if any is available.
func (l *InMemoryLedger) TryReserve(_ context.Context, sessionID id.SessionID) (bool, error) {
	c, ok := l.counters[sessionID]
	if !ok {
		return false, sentinel.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available < 0 || c.available > c.total {
		return false, dErrors.Newf(dErrors.CodeInvariantViolation,
			"seat counter for session %s out of range: %d/%d", sessionID, c.available, c.total)
	}
	if c.available == 0 {
		return false, nil
	}
	c.available--
	return true, nil
}

// Release returns one seat, clamped at the session total.
func (l *InMemoryLedger) Release(_ context.Context, sessionID id.SessionID) error {
	c, ok := l.counters[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available < c.total {
		c.available++
	}
	return nil
}

// Seats returns a point-in-time count for every session. Each counter is
// read under its own lock; the snapshot as a whole is not transactional.
func (l *InMemoryLedger) Seats(_ context.Context) (map[id.SessionID]models.Seats, error) {
	out := make(map[id.SessionID]models.Seats, len(l.counters))
	for sid, c := range l.counters {
		c.mu.Lock()
		out[sid] = models.Seats{Available: c.available, Total: c.total}
		c.mu.Unlock()
	}
	return out, nil
}
