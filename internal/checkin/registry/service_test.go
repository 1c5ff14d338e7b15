package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acredita/internal/checkin/models"
	"acredita/internal/checkin/ports"
	"acredita/internal/checkin/registry"
	"acredita/internal/checkin/store"
	id "acredita/pkg/domain"
	dErrors "acredita/pkg/domain-errors"
	"acredita/pkg/platform/keyedmutex"
	"acredita/pkg/platform/sentinel"
)

var today = time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, attendees ports.AttendeeStore, opts ...registry.Option) *registry.Service {
	t.Helper()
	svc, err := registry.New(attendees, keyedmutex.New(), opts...)
	require.NoError(t, err)
	return svc
}

func seed(t *testing.T, s *store.InMemoryAttendeeStore, a *models.Attendee) {
	t.Helper()
	require.NoError(t, s.WriteAttendee(context.Background(), a))
}

func TestNewValidation(t *testing.T) {
	_, err := registry.New(nil, keyedmutex.New())
	assert.Error(t, err)

	_, err = registry.New(store.NewInMemoryAttendeeStore(), nil)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	s := store.NewInMemoryAttendeeStore()
	seed(t, s, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
	svc := newService(t, s)

	t.Run("known attendee", func(t *testing.T) {
		a, err := svc.Lookup(context.Background(), "60214180")
		require.NoError(t, err)
		assert.Equal(t, "Lucía Paredes", a.FullName)
	})

	t.Run("unknown attendee", func(t *testing.T) {
		_, err := svc.Lookup(context.Background(), "99999999")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRegisterGeneralAttendance(t *testing.T) {
	t.Run("first ever check-in grants the kit", func(t *testing.T) {
		s := store.NewInMemoryAttendeeStore()
		seed(t, s, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
		svc := newService(t, s)

		result, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today)
		require.NoError(t, err)
		assert.Equal(t, models.GeneralRegistered, result.Status)
		assert.True(t, result.KitGranted)
		assert.Equal(t, "Lucía Paredes", result.AttendeeName)
		assert.Equal(t, today, result.RegisteredAt)

		a, err := s.ReadAttendee(context.Background(), "60214180")
		require.NoError(t, err)
		assert.True(t, a.KitDelivered)
		assert.True(t, a.HasGeneralAttendanceOn(today))
	})

	t.Run("second scan on the same day is idempotent", func(t *testing.T) {
		s := store.NewInMemoryAttendeeStore()
		seed(t, s, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
		svc := newService(t, s)

		_, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today)
		require.NoError(t, err)

		before, err := s.ReadAttendee(context.Background(), "60214180")
		require.NoError(t, err)

		result, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, models.GeneralAlreadyToday, result.Status)
		assert.False(t, result.KitGranted)

		after, err := s.ReadAttendee(context.Background(), "60214180")
		require.NoError(t, err)
		assert.Equal(t, before.Version, after.Version, "the repeated scan must not write")
	})

	t.Run("next day records again without a second kit", func(t *testing.T) {
		s := store.NewInMemoryAttendeeStore()
		seed(t, s, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
		svc := newService(t, s)

		_, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today)
		require.NoError(t, err)

		tomorrow := today.AddDate(0, 0, 1)
		result, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", tomorrow)
		require.NoError(t, err)
		assert.Equal(t, models.GeneralRegistered, result.Status)
		assert.False(t, result.KitGranted, "the kit is granted exactly once per event")

		a, err := s.ReadAttendee(context.Background(), "60214180")
		require.NoError(t, err)
		assert.True(t, a.HasGeneralAttendanceOn(tomorrow))
		assert.False(t, a.HasGeneralAttendanceOn(today))
	})

	t.Run("unknown attendee is an outcome, not an error", func(t *testing.T) {
		svc := newService(t, store.NewInMemoryAttendeeStore())

		result, err := svc.RegisterGeneralAttendance(context.Background(), "99999999", today)
		require.NoError(t, err)
		assert.Equal(t, models.GeneralAttendeeNotFound, result.Status)
	})
}

func TestRegisterGeneralAttendanceConcurrentSameBadge(t *testing.T) {
	// Several devices scan the same badge at once. The per-attendee lock
	// serializes them: one scan records and grants the kit, the rest see
	// "already registered today".
	s := store.NewInMemoryAttendeeStore()
	seed(t, s, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
	svc := newService(t, s)

	type scan struct {
		result *models.GeneralAttendanceResult
		err    error
	}
	const scans = 10
	results := make(chan scan, scans)
	var wg sync.WaitGroup
	wg.Add(scans)
	for i := 0; i < scans; i++ {
		go func() {
			defer wg.Done()
			result, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today)
			results <- scan{result: result, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var registered, repeats, kits int
	for sc := range results {
		require.NoError(t, sc.err)
		result := sc.result
		switch result.Status {
		case models.GeneralRegistered:
			registered++
		case models.GeneralAlreadyToday:
			repeats++
		default:
			t.Fatalf("unexpected status %q", result.Status)
		}
		if result.KitGranted {
			kits++
		}
	}
	assert.Equal(t, 1, registered)
	assert.Equal(t, scans-1, repeats)
	assert.Equal(t, 1, kits, "the kit must be granted exactly once")
}

// flakyStore fails the first n writes with the conflict sentinel, then
// delegates.
type flakyStore struct {
	inner ports.AttendeeStore

	mu        sync.Mutex
	conflicts int
}

func (s *flakyStore) ReadAttendee(ctx context.Context, dni id.DNI) (*models.Attendee, error) {
	return s.inner.ReadAttendee(ctx, dni)
}

func (s *flakyStore) WriteAttendee(ctx context.Context, attendee *models.Attendee) error {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return sentinel.ErrConflict
	}
	s.mu.Unlock()
	return s.inner.WriteAttendee(ctx, attendee)
}

// brokenStore fails every write.
type brokenStore struct {
	inner ports.AttendeeStore
	err   error
}

func (s *brokenStore) ReadAttendee(ctx context.Context, dni id.DNI) (*models.Attendee, error) {
	return s.inner.ReadAttendee(ctx, dni)
}

func (s *brokenStore) WriteAttendee(context.Context, *models.Attendee) error {
	return s.err
}

func TestRegisterGeneralAttendanceWriteFailures(t *testing.T) {
	t.Run("transient conflicts are retried", func(t *testing.T) {
		base := store.NewInMemoryAttendeeStore()
		seed(t, base, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
		svc := newService(t, &flakyStore{inner: base, conflicts: 2})

		result, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today)
		require.NoError(t, err)
		assert.Equal(t, models.GeneralRegistered, result.Status)
	})

	t.Run("persistent conflicts exhaust the budget", func(t *testing.T) {
		base := store.NewInMemoryAttendeeStore()
		seed(t, base, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
		svc := newService(t, &flakyStore{inner: base, conflicts: 100}, registry.WithConflictRetries(2))

		_, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("hard write failure is not retried", func(t *testing.T) {
		base := store.NewInMemoryAttendeeStore()
		seed(t, base, &models.Attendee{DNI: "60214180", FullName: "Lucía Paredes"})
		svc := newService(t, &brokenStore{inner: base, err: errors.New("disk on fire")})

		_, err := svc.RegisterGeneralAttendance(context.Background(), "60214180", today)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
