// Package registry owns per-attendee state: general attendance check-ins
// and the one-time welcome kit.
package registry

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
	// DefaultConflictRetries is the optimistic-write retry budget per
	// check-in. Retries happen under the per-attendee lock; the lock is
	// the primary consistency mechanism, the version check is the backstop.
	DefaultConflictRetries = 3
)

// Service is the attendee registry. All mutations of one attendee are
// serialized through the shared per-attendee lock, so two devices scanning
// the same badge cannot both observe "not yet registered today".
type Service struct {
	store          ports.AttendeeStore
	locks          *keyedmutex.Mutex
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher ports.AuditPublisher

	storeTimeout    time.Duration
	conflictRetries int
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher sets the audit event sink.
func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithStoreTimeout overrides the per-call store timeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) { s.storeTimeout = d }
}

// WithConflictRetries overrides the optimistic-write retry budget.
func WithConflictRetries(n int) Option {
	return func(s *Service) { s.conflictRetries = n }
}

// New creates the attendee registry. The keyed mutex must be the same
// instance the registration engine uses; both guard the same attendee rows.
func New(store ports.AttendeeStore, locks *keyedmutex.Mutex, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("attendee store is required")
	}
	if locks == nil {
		return nil, fmt.Errorf("attendee locks are required")
	}

	svc := &Service{
		store:           store,
		locks:           locks,
		storeTimeout:    DefaultStoreTimeout,
		conflictRetries: DefaultConflictRetries,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Lookup returns a read-only snapshot of the attendee, or a not-found
// error. No side effects.
func (s *Service) Lookup(ctx context.Context, dni id.DNI) (*models.Attendee, error) {
	a, err := s.readAttendee(ctx, dni)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "attendee %s not found", dni)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendee store unavailable")
	}
	return a, nil
}

// RegisterGeneralAttendance records the attendee's once-per-day general
// check-in. Repeating the call on the same date is idempotent and reported
// as AlreadyRegisteredToday, not as an error. The welcome kit is granted on
// the first-ever check-in only.
func (s *Service) RegisterGeneralAttendance(ctx context.Context, dni id.DNI, now time.Time) (*models.GeneralAttendanceResult, error) {
	s.locks.Lock(dni.String())
	defer s.locks.Unlock(dni.String())

	for attempt := 0; ; attempt++ {
		a, err := s.readAttendee(ctx, dni)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				s.metrics.IncrementGeneralOutcome(string(models.GeneralAttendeeNotFound))
				return &models.GeneralAttendanceResult{Status: models.GeneralAttendeeNotFound}, nil
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendee store unavailable")
		}

		if a.HasGeneralAttendanceOn(now) {
			s.metrics.IncrementGeneralOutcome(string(models.GeneralAlreadyToday))
			return &models.GeneralAttendanceResult{
				Status:       models.GeneralAlreadyToday,
				AttendeeName: a.FullName,
			}, nil
		}

		kitGranted := !a.KitDelivered
		a.LastGeneralAttendance = now
		if kitGranted {
			a.KitDelivered = true
		}

		err = s.writeAttendee(ctx, a)
		if err == nil {
			s.recordGeneralSuccess(ctx, a, kitGranted, now)
			return &models.GeneralAttendanceResult{
				Status:       models.GeneralRegistered,
				KitGranted:   kitGranted,
				AttendeeName: a.FullName,
				RegisteredAt: now,
			}, nil
		}
		if errors.Is(err, sentinel.ErrConflict) && attempt < s.conflictRetries {
			continue
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "attendee record contention, retry the check-in")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendee store unavailable")
	}
}

func (s *Service) recordGeneralSuccess(ctx context.Context, a *models.Attendee, kitGranted bool, now time.Time) {
	s.metrics.IncrementGeneralOutcome(string(models.GeneralRegistered))
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Timestamp: now,
		Action:    audit.EventGeneralAttendanceRecorded,
		DNI:       a.DNI,
		Outcome:   string(models.GeneralRegistered),
	})
	if kitGranted {
		s.metrics.IncrementKitsGranted()
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Timestamp: now,
			Action:    audit.EventWelcomeKitGranted,
			DNI:       a.DNI,
			Outcome:   string(models.GeneralRegistered),
		})
	}
}

func (s *Service) readAttendee(ctx context.Context, dni id.DNI) (*models.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.ReadAttendee(ctx, dni)
}

func (s *Service) writeAttendee(ctx context.Context, a *models.Attendee) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.WriteAttendee(ctx, a)
}
