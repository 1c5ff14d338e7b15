// Package engine orchestrates the session registration pipeline: five
// business rules evaluated in a fixed order, then an atomic seat
// reservation and commit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"acredita/internal/checkin/metrics"
	"acredita/internal/checkin/models"
	"acredita/internal/checkin/ports"
	id "acredita/pkg/domain"
	dErrors "acredita/pkg/domain-errors"
	"acredita/pkg/platform/audit"
	"acredita/pkg/platform/keyedmutex"
	"acredita/pkg/platform/sentinel"
)

const (
	// DefaultStoreTimeout bounds each attendee store call.
	DefaultStoreTimeout = 3 * time.Second
	// DefaultConflictRetries is the optimistic-write retry budget for the
	// commit step, spent under the per-attendee lock.
	DefaultConflictRetries = 3
)

// SessionCatalog is the slice of the catalog the engine needs.
type SessionCatalog interface {
	Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
}

// Engine validates and commits session registrations.
//
// Locking: the per-attendee lock covers everything from the attendee read
// through the commit, so concurrent scans of the same badge see each
// other's registrations. The seat reservation is atomic inside the ledger
// under the target session's counter only; the engine never holds counters
// for two different sessions or attendees at once.
type Engine struct {
	attendees      ports.AttendeeStore
	catalog        SessionCatalog
	ledger         ports.CapacityLedger
	locks          *keyedmutex.Mutex
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher ports.AuditPublisher

	storeTimeout    time.Duration
	conflictRetries int
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAuditPublisher sets the audit event sink.
func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(e *Engine) { e.auditPublisher = publisher }
}

// WithStoreTimeout overrides the per-call store timeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) { e.storeTimeout = d }
}

// WithConflictRetries overrides the optimistic-write retry budget.
func WithConflictRetries(n int) Option {
	return func(e *Engine) { e.conflictRetries = n }
}

// New creates a registration engine. The keyed mutex must be the same
// instance the attendee registry uses; both serialize writes per attendee.
func New(attendees ports.AttendeeStore, catalog SessionCatalog, ledger ports.CapacityLedger, locks *keyedmutex.Mutex, opts ...Option) (*Engine, error) {
	if attendees == nil {
		return nil, fmt.Errorf("attendee store is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("session catalog is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("capacity ledger is required")
	}
	if locks == nil {
		return nil, fmt.Errorf("attendee locks are required")
	}

	e := &Engine{
		attendees:       attendees,
		catalog:         catalog,
		ledger:          ledger,
		locks:           locks,
		storeTimeout:    DefaultStoreTimeout,
		conflictRetries: DefaultConflictRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Register runs one registration attempt through the pipeline. The check
// order is fixed so rejection messages are deterministic and every
// non-mutating rule runs before capacity is consumed: resolve, general
// attendance prerequisite, duplicate, time window, overlap, reserve,
// commit. The first failing check wins.
//
// Business rejections come back as outcomes with a nil error; the error
// return is reserved for validation, transient store, and invariant
// failures.
func (e *Engine) Register(ctx context.Context, attempt models.RegistrationAttempt) (*models.RegistrationOutcome, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveRegisterLatency(time.Since(start)) }()

	session, err := e.catalog.Get(ctx, attempt.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return e.reject(ctx, attempt, &models.RegistrationOutcome{
				Status:    models.StatusSessionNotFound,
				SessionID: attempt.SessionID,
			}), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "session catalog unavailable")
	}

	e.locks.Lock(attempt.DNI.String())
	defer e.locks.Unlock(attempt.DNI.String())

	attendee, err := e.readAttendee(ctx, attempt.DNI)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return e.reject(ctx, attempt, &models.RegistrationOutcome{
				Status:      models.StatusAttendeeNotFound,
				SessionID:   session.ID,
				SessionName: session.Name,
			}), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendee store unavailable")
	}

	if outcome, err := e.validate(ctx, attendee, session, attempt.At); outcome != nil || err != nil {
		if outcome != nil {
			return e.reject(ctx, attempt, outcome), nil
		}
		return nil, err
	}

	reserved, err := e.ledger.TryReserve(ctx, session.ID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "capacity ledger unavailable")
	}
	if !reserved {
		return e.reject(ctx, attempt, &models.RegistrationOutcome{
			Status:      models.StatusNoCapacity,
			SessionID:   session.ID,
			SessionName: session.Name,
		}), nil
	}

	outcome, err := e.commit(ctx, attendee, session, attempt.At)
	if err != nil {
		return nil, err
	}
	if outcome.Succeeded() {
		e.metrics.IncrementSessionOutcome(string(outcome.Status))
		ports.LogAudit(ctx, e.logger, e.auditPublisher, audit.Event{
			Timestamp: attempt.At,
			Action:    audit.EventSessionRegistered,
			DNI:       attempt.DNI,
			SessionID: session.ID,
			Outcome:   string(outcome.Status),
		})
		return outcome, nil
	}
	return e.reject(ctx, attempt, outcome), nil
}

// validate runs the non-mutating rules in spec order. It returns a non-nil
// outcome on the first rejection, and a non-nil error only for store or
// data integrity failures.
func (e *Engine) validate(ctx context.Context, attendee *models.Attendee, session *models.Session, now time.Time) (*models.RegistrationOutcome, error) {
	if !attendee.HasGeneralAttendanceOn(now) {
		return &models.RegistrationOutcome{
			Status:      models.StatusNoGeneralAttendance,
			SessionID:   session.ID,
			SessionName: session.Name,
		}, nil
	}

	if attendee.RegisteredIn(session.ID) {
		return &models.RegistrationOutcome{
			Status:      models.StatusAlreadyRegistered,
			SessionID:   session.ID,
			SessionName: session.Name,
		}, nil
	}

	if verdict := EvaluateWindow(session, now); !verdict.Admitted() {
		return &models.RegistrationOutcome{
			Status:       verdict.Status,
			SessionID:    session.ID,
			SessionName:  session.Name,
			MinutesEarly: verdict.MinutesEarly,
			MinutesLate:  verdict.MinutesLate,
		}, nil
	}

	held, err := e.heldSessions(ctx, attendee)
	if err != nil {
		return nil, err
	}
	if conflict := FindOverlap(session, held); conflict != nil {
		return &models.RegistrationOutcome{
			Status:              models.StatusOverlap,
			SessionID:           session.ID,
			SessionName:         session.Name,
			ConflictSessionID:   conflict.ID,
			ConflictSessionName: conflict.Name,
		}, nil
	}
	return nil, nil
}

// commit appends the registration and writes the attendee row, compensating
// the seat reservation if the write cannot be completed. On an optimistic
// conflict the row is re-read and the mutating rules re-checked against the
// fresh snapshot before retrying, still under the per-attendee lock.
func (e *Engine) commit(ctx context.Context, attendee *models.Attendee, session *models.Session, now time.Time) (*models.RegistrationOutcome, error) {
	for attempt := 0; ; attempt++ {
		attendee.Registrations = append(attendee.Registrations, models.SessionRegistration{
			SessionID:    session.ID,
			RegisteredAt: now,
		})

		err := e.writeAttendee(ctx, attendee)
		if err == nil {
			return &models.RegistrationOutcome{
				Status:       models.StatusRegistered,
				SessionID:    session.ID,
				SessionName:  session.Name,
				RegisteredAt: now,
			}, nil
		}

		if !errors.Is(err, sentinel.ErrConflict) || attempt >= e.conflictRetries {
			e.compensate(ctx, attendee.DNI, session.ID)
			if errors.Is(err, sentinel.ErrConflict) {
				return nil, dErrors.New(dErrors.CodeUnavailable, "attendee record contention, retry the registration")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendee store unavailable")
		}

		// Lost an optimistic race to an out-of-band writer. Reload and make
		// sure the registration is still valid against the fresh row.
		fresh, err := e.readAttendee(ctx, attendee.DNI)
		if err != nil {
			e.compensate(ctx, attendee.DNI, session.ID)
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendee store unavailable")
		}
		if fresh.RegisteredIn(session.ID) {
			e.compensate(ctx, attendee.DNI, session.ID)
			return &models.RegistrationOutcome{
				Status:      models.StatusAlreadyRegistered,
				SessionID:   session.ID,
				SessionName: session.Name,
			}, nil
		}
		held, err := e.heldSessions(ctx, fresh)
		if err != nil {
			e.compensate(ctx, attendee.DNI, session.ID)
			return nil, err
		}
		if conflict := FindOverlap(session, held); conflict != nil {
			e.compensate(ctx, attendee.DNI, session.ID)
			return &models.RegistrationOutcome{
				Status:              models.StatusOverlap,
				SessionID:           session.ID,
				SessionName:         session.Name,
				ConflictSessionID:   conflict.ID,
				ConflictSessionName: conflict.Name,
			}, nil
		}
		attendee = fresh
	}
}

// compensate releases a reserved seat whose registration did not commit.
// A reservation must never be left dangling without a registration record.
func (e *Engine) compensate(ctx context.Context, dni id.DNI, sessionID id.SessionID) {
	if err := e.ledger.Release(ctx, sessionID); err != nil {
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "seat compensation failed, counter may leak a seat",
				"dni", dni.String(),
				"session_id", sessionID.String(),
				"error", err,
			)
		}
		return
	}
	ports.LogAudit(ctx, e.logger, e.auditPublisher, audit.Event{
		Timestamp: time.Now(),
		Action:    audit.EventSeatReservationCompensated,
		DNI:       dni,
		SessionID: sessionID,
	})
}

// heldSessions resolves the attendee's registrations to session metadata.
// A registration pointing at an unknown session is data corruption, not a
// business outcome.
func (e *Engine) heldSessions(ctx context.Context, attendee *models.Attendee) ([]*models.Session, error) {
	held := make([]*models.Session, 0, len(attendee.Registrations))
	for _, r := range attendee.Registrations {
		s, err := e.catalog.Get(ctx, r.SessionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
					"attendee %s holds a registration for unknown session %s", attendee.DNI, r.SessionID)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "session catalog unavailable")
		}
		held = append(held, s)
	}
	return held, nil
}

// reject records a rejected attempt. Business rejections are expected
// outcomes: counted and audited, never logged as errors.
func (e *Engine) reject(ctx context.Context, attempt models.RegistrationAttempt, outcome *models.RegistrationOutcome) *models.RegistrationOutcome {
	e.metrics.IncrementSessionOutcome(string(outcome.Status))
	ports.LogAudit(ctx, e.logger, e.auditPublisher, audit.Event{
		Timestamp: attempt.At,
		Action:    audit.EventSessionRegistrationDenied,
		DNI:       attempt.DNI,
		SessionID: attempt.SessionID,
		Outcome:   string(outcome.Status),
		Reason:    string(outcome.Status),
	})
	return outcome
}

func (e *Engine) readAttendee(ctx context.Context, dni id.DNI) (*models.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return e.attendees.ReadAttendee(ctx, dni)
}

func (e *Engine) writeAttendee(ctx context.Context, a *models.Attendee) error {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return e.attendees.WriteAttendee(ctx, a)
}
