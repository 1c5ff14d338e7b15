// Package handler wires the check-in endpoints to the core services. It is
// a thin gateway: decode, call, render the outcome envelope.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"acredita/internal/checkin/metrics"
	"acredita/internal/checkin/models"
	"acredita/internal/platform/middleware"
	id "acredita/pkg/domain"
	dErrors "acredita/pkg/domain-errors"
	"acredita/pkg/platform/httputil"
)

// AttendeeRegistry defines the registry operations the gateway consumes.
type AttendeeRegistry interface {
	Lookup(ctx context.Context, dni id.DNI) (*models.Attendee, error)
	RegisterGeneralAttendance(ctx context.Context, dni id.DNI, now time.Time) (*models.GeneralAttendanceResult, error)
}

// RegistrationEngine defines the engine operation the gateway consumes.
type RegistrationEngine interface {
	Register(ctx context.Context, attempt models.RegistrationAttempt) (*models.RegistrationOutcome, error)
}

// SessionCatalog defines the catalog operations the gateway consumes.
type SessionCatalog interface {
	List(ctx context.Context) []*models.Session
	CapacitySnapshot(ctx context.Context) (map[id.SessionID]models.SessionCapacity, error)
}

// Handler handles the check-in endpoints.
type Handler struct {
	logger   *slog.Logger
	registry AttendeeRegistry
	engine   RegistrationEngine
	catalog  SessionCatalog
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures the Handler.
type Option func(*Handler)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates the check-in handler.
func New(registry AttendeeRegistry, engine RegistrationEngine, catalog SessionCatalog, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		logger:   logger,
		registry: registry,
		engine:   engine,
		catalog:  catalog,
		metrics:  m,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter builds the service router with the shared middleware chain and
// operational endpoints.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(15 * time.Second))

	h.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// Register mounts the check-in routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/attendees/search/{dni}", h.handleSearchAttendee)
	r.Post("/api/v1/attendees/general", h.handleGeneralAttendance)
	r.Get("/api/v1/sessions", h.handleListSessions)
	r.Get("/api/v1/sessions/capacity", h.handleSessionsCapacity)
	r.Post("/api/v1/sessions/register", h.handleSessionRegister)
}

// handleSearchAttendee looks up an attendee by DNI. Read-only.
func (h *Handler) handleSearchAttendee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dni, err := id.ParseDNI(chi.URLParam(r, "dni"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	attendee, err := h.registry.Lookup(ctx, dni)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, Envelope{
				Success: false,
				Message: "Attendee not found",
			})
			return
		}
		h.logError(ctx, "attendee lookup failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Attendee found",
		Data:    FromAttendee(attendee),
	})
}

// handleGeneralAttendance records the once-per-day general check-in. A
// repeated scan on the same day is informational, not an error.
func (h *Handler) handleGeneralAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GeneralAttendanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.registry.RegisterGeneralAttendance(ctx, req.ParsedDNI(), h.now())
	if err != nil {
		h.logError(ctx, "general attendance registration failed", err)
		httputil.WriteError(w, err)
		return
	}

	switch result.Status {
	case models.GeneralAttendeeNotFound:
		httputil.WriteJSON(w, http.StatusNotFound, Envelope{
			Success: false,
			Message: "Attendee not found",
		})
	case models.GeneralAlreadyToday:
		httputil.WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: "Attendance already registered today",
			Data: GeneralAttendanceData{
				DNI:          req.ParsedDNI().String(),
				Name:         result.AttendeeName,
				AlreadyToday: true,
			},
		})
	default:
		message := "General attendance registered successfully"
		if result.KitGranted {
			message = "General attendance registered, welcome kit granted"
		}
		httputil.WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: message,
			Data: GeneralAttendanceData{
				DNI:        req.ParsedDNI().String(),
				Name:       result.AttendeeName,
				KitGranted: result.KitGranted,
			},
		})
	}
}

// handleListSessions returns the programme in definition order.
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.catalog.List(r.Context())
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionResponse{
			ID:          s.ID.String(),
			Name:        s.Name,
			Description: s.Description,
			StartsAt:    s.StartsAt.Format(time.RFC3339),
			EndsAt:      s.EndsAt.Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Sessions listed successfully",
		Data:    out,
	})
}

// handleSessionsCapacity returns the point-in-time seat counts and
// refreshes the seats-available gauge on the way out.
func (h *Handler) handleSessionsCapacity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := h.catalog.CapacitySnapshot(ctx)
	if err != nil {
		h.logError(ctx, "capacity snapshot failed", err)
		httputil.WriteError(w, err)
		return
	}

	out := make(map[string]CapacityResponse, len(snapshot))
	for sid, sc := range snapshot {
		out[sid.String()] = CapacityResponse{Available: sc.Available, Total: sc.Total, Name: sc.Name}
		h.metrics.SetSeatsAvailable(sid.String(), sc.Available)
	}
	httputil.WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Capacity retrieved successfully",
		Data:    out,
	})
}

// handleSessionRegister runs one registration attempt through the engine
// and renders the outcome. Business rejections are HTTP 200 with
// success=false; the scanning devices key off the envelope, not the status
// code.
func (h *Handler) handleSessionRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SessionRegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.engine.Register(ctx, models.RegistrationAttempt{
		DNI:       req.ParsedDNI(),
		SessionID: req.ParsedSessionID(),
		At:        h.now(),
	})
	if err != nil {
		h.logError(ctx, "session registration failed", err)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Status == models.StatusAttendeeNotFound || outcome.Status == models.StatusSessionNotFound {
		status = http.StatusNotFound
	}

	httputil.WriteJSON(w, status, Envelope{
		Success: outcome.Succeeded(),
		Message: outcomeMessage(outcome),
		Data: SessionRegisterData{
			SessionID:         outcome.SessionID.String(),
			SessionName:       outcome.SessionName,
			RegisteredAt:      outcome.RegisteredAt,
			ConflictSessionID: outcome.ConflictSessionID.String(),
			MinutesEarly:      outcome.MinutesEarly,
			MinutesLate:       outcome.MinutesLate,
		},
	})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
