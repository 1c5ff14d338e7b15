package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"acredita/internal/checkin/models"
	id "acredita/pkg/domain"
	"acredita/pkg/platform/sentinel"
)

// Schema creates the tables the Postgres store needs. Applied with
// EnsureSchema at startup; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS attendees (
    dni                     TEXT PRIMARY KEY,
    full_name               TEXT NOT NULL,
    last_general_attendance DATE,
    kit_delivered           BOOLEAN NOT NULL DEFAULT FALSE,
    version                 BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS session_registrations (
    dni           TEXT NOT NULL REFERENCES attendees (dni),
    session_id    TEXT NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (dni, session_id)
);

CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    starts_at       TIMESTAMPTZ NOT NULL,
    ends_at         TIMESTAMPTZ NOT NULL,
    seats_total     INTEGER NOT NULL,
    seats_available INTEGER NOT NULL,
    position        INTEGER NOT NULL
);
`

// EnsureSchema applies the store schema.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PostgresAttendeeStore persists attendee rows in PostgreSQL with an
// optimistic version column.
type PostgresAttendeeStore struct {
	db *sql.DB
}

// NewPostgresAttendeeStore constructs a PostgreSQL-backed attendee store.
func NewPostgresAttendeeStore(db *sql.DB) *PostgresAttendeeStore {
	return &PostgresAttendeeStore{db: db}
}

// ReadAttendee returns a snapshot of the attendee row and its session
// registrations.
func (s *PostgresAttendeeStore) ReadAttendee(ctx context.Context, dni id.DNI) (*models.Attendee, error) {
	var (
		a        models.Attendee
		rawDNI   string
		lastDate sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT dni, full_name, last_general_attendance, kit_delivered, version
		   FROM attendees WHERE dni = $1`, dni.String(),
	).Scan(&rawDNI, &a.FullName, &lastDate, &a.KitDelivered, &a.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read attendee: %w", err)
	}
	a.DNI = id.DNI(rawDNI)
	if lastDate.Valid {
		a.LastGeneralAttendance = lastDate.Time
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, registered_at
		   FROM session_registrations WHERE dni = $1
		  ORDER BY registered_at`, dni.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("read registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sid string
			at  time.Time
		)
		if err := rows.Scan(&sid, &at); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		a.Registrations = append(a.Registrations, models.SessionRegistration{
			SessionID:    id.SessionID(sid),
			RegisteredAt: at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return &a, nil
}

// WriteAttendee persists the row if its version still matches, bumping the
// version, and upserts any new session registrations. Registrations are
// append-only, so existing rows are left untouched.
func (s *PostgresAttendeeStore) WriteAttendee(ctx context.Context, attendee *models.Attendee) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write attendee: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var lastDate sql.NullTime
	if !attendee.LastGeneralAttendance.IsZero() {
		lastDate = sql.NullTime{Time: attendee.LastGeneralAttendance, Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE attendees
		    SET full_name = $2, last_general_attendance = $3,
		        kit_delivered = $4, version = version + 1
		  WHERE dni = $1 AND version = $5`,
		attendee.DNI.String(), attendee.FullName, lastDate, attendee.KitDelivered, attendee.Version,
	)
	if err != nil {
		return fmt.Errorf("update attendee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attendee result: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM attendees WHERE dni = $1)`, attendee.DNI.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check attendee exists: %w", err)
		}
		if exists {
			return sentinel.ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attendees (dni, full_name, last_general_attendance, kit_delivered, version)
			 VALUES ($1, $2, $3, $4, 1)`,
			attendee.DNI.String(), attendee.FullName, lastDate, attendee.KitDelivered,
		); err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}
	}

	for _, r := range attendee.Registrations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_registrations (dni, session_id, registered_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (dni, session_id) DO NOTHING`,
			attendee.DNI.String(), r.SessionID.String(), r.RegisteredAt,
		); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write attendee: %w", err)
	}
	return nil
}

// PostgresSessionStore serves the session programme and doubles as the
// capacity ledger: seat reservation is a conditional single-row UPDATE, so
// atomicity comes from the database and multiple gateway instances can
// share it.
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgresSessionStore constructs a PostgreSQL-backed session store.
func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

// Sessions returns all sessions in definition order.
func (s *PostgresSessionStore) Sessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, starts_at, ends_at, seats_total
		   FROM sessions ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		var (
			ses models.Session
			sid string
		)
		if err := rows.Scan(&sid, &ses.Name, &ses.Description, &ses.StartsAt, &ses.EndsAt, &ses.CapacityTotal); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ses.ID = id.SessionID(sid)
		out = append(out, &ses)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// TryReserve atomically takes one seat if any is available.
func (s *PostgresSessionStore) TryReserve(ctx context.Context, sessionID id.SessionID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET seats_available = seats_available - 1
		  WHERE id = $1 AND seats_available > 0`, sessionID.String(),
	)
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve seat result: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, sessionID.String(),
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check session exists: %w", err)
	}
	if !exists {
		return false, sentinel.ErrNotFound
	}
	return false, nil
}

// Release returns one seat, clamped at the session total.
func (s *PostgresSessionStore) Release(ctx context.Context, sessionID id.SessionID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET seats_available = LEAST(seats_available + 1, seats_total)
		  WHERE id = $1`, sessionID.String(),
	)
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release seat result: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Seats returns a point-in-time count for every session.
func (s *PostgresSessionStore) Seats(ctx context.Context) (map[id.SessionID]models.Seats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seats_available, seats_total FROM sessions`,
	)
	if err != nil {
		return nil, fmt.Errorf("read seat counters: %w", err)
	}
	defer rows.Close()

	out := make(map[id.SessionID]models.Seats)
	for rows.Next() {
		var (
			sid   string
			seats models.Seats
		)
		if err := rows.Scan(&sid, &seats.Available, &seats.Total); err != nil {
			return nil, fmt.Errorf("scan seat counter: %w", err)
		}
		out[id.SessionID(sid)] = seats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seat counters: %w", err)
	}
	return out, nil
}
