package store

import (
	"context"
	"time"

	"acredita/internal/checkin/models"
	id "acredita/pkg/domain"
)

// SeedDemoEvent loads a small roster and programme for local development.
// Sessions are laid out relative to now so the registration window checks
// are exercisable: one open now, one overlapping it, one later today and
// one already finished.
func SeedDemoEvent(attendees *InMemoryAttendeeStore, now time.Time) []*models.Session {
	roster := []*models.Attendee{
		{DNI: "60214180", FullName: "Lucía Paredes"},
		{DNI: "11111111", FullName: "Marco Quispe"},
		{DNI: "22222222", FullName: "Rosa Delgado"},
		{DNI: "33333333", FullName: "Jorge Salas"},
	}
	for _, a := range roster {
		_ = attendees.WriteAttendee(context.Background(), a)
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	return []*models.Session{
		{
			ID:            id.SessionID("sesion_1"),
			Name:          "Apertura: Plataformas de Acreditación",
			Description:   "Charla inaugural",
			StartsAt:      now.Add(10 * time.Minute),
			EndsAt:        now.Add(70 * time.Minute),
			CapacityTotal: 120,
		},
		{
			ID:            id.SessionID("sesion_2"),
			Name:          "Taller: Sistemas Concurrentes",
			Description:   "Taller práctico, cupos limitados",
			StartsAt:      now.Add(30 * time.Minute),
			EndsAt:        now.Add(90 * time.Minute),
			CapacityTotal: 25,
		},
		{
			ID:            id.SessionID("sesion_3"),
			Name:          "Panel: Infraestructura de Eventos",
			StartsAt:      at(17, 0),
			EndsAt:        at(18, 0),
			CapacityTotal: 80,
		},
		{
			ID:            id.SessionID("sesion_4"),
			Name:          "Keynote de Bienvenida",
			StartsAt:      now.Add(-3 * time.Hour),
			EndsAt:        now.Add(-2 * time.Hour),
			CapacityTotal: 200,
		},
	}
}
