// Command server runs the check-in admission gateway. main wires
// dependencies and keeps the server lifecycle small; business logic lives
// in the internal/checkin packages.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"acredita/internal/checkin/catalog"
	"acredita/internal/checkin/engine"
	"acredita/internal/checkin/handler"
	"acredita/internal/checkin/ledger"
	"acredita/internal/checkin/metrics"
	"acredita/internal/checkin/models"
	"acredita/internal/checkin/ports"
	"acredita/internal/checkin/registry"
	"acredita/internal/checkin/store"
	"acredita/internal/platform/config"
	"acredita/internal/platform/httpserver"
	"acredita/internal/platform/logger"
	platformredis "acredita/internal/platform/redis"
	"acredita/pkg/platform/audit/publisher"
	"acredita/pkg/platform/keyedmutex"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var (
		attendees  ports.AttendeeStore
		sessions   []*models.Session
		seatLedger ports.CapacityLedger
	)

	switch {
	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		attendees = store.NewPostgresAttendeeStore(db)
		sessionStore := store.NewPostgresSessionStore(db)
		sessions, err = sessionStore.Sessions(ctx)
		if err != nil {
			log.Error("load sessions", "error", err)
			os.Exit(1)
		}
		seatLedger = sessionStore
	default:
		memStore := store.NewInMemoryAttendeeStore()
		sessions = store.SeedDemoEvent(memStore, time.Now())
		attendees = memStore
		seatLedger = ledger.NewInMemory(sessions)
		log.Info("no DATABASE_URL set, using in-memory stores with demo seed")
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		seatLedger, err = ledger.NewRedis(ctx, client.Client, sessions)
		if err != nil {
			log.Error("seed redis ledger", "error", err)
			os.Exit(1)
		}
	}

	cat, err := catalog.New(sessions, seatLedger)
	if err != nil {
		log.Error("build catalog", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	auditSink := publisher.NewSlog(log)
	locks := keyedmutex.New()

	reg, err := registry.New(attendees, locks,
		registry.WithLogger(log),
		registry.WithMetrics(m),
		registry.WithAuditPublisher(auditSink),
		registry.WithStoreTimeout(cfg.StoreTimeout),
		registry.WithConflictRetries(cfg.ConflictRetries),
	)
	if err != nil {
		log.Error("build registry", "error", err)
		os.Exit(1)
	}

	eng, err := engine.New(attendees, cat, seatLedger, locks,
		engine.WithLogger(log),
		engine.WithMetrics(m),
		engine.WithAuditPublisher(auditSink),
		engine.WithStoreTimeout(cfg.StoreTimeout),
		engine.WithConflictRetries(cfg.ConflictRetries),
	)
	if err != nil {
		log.Error("build engine", "error", err)
		os.Exit(1)
	}

	h := handler.New(reg, eng, cat, log, m)
	srv := httpserver.New(cfg.Addr, handler.NewRouter(h))

	log.Info("starting acredita gateway", "addr", cfg.Addr, "sessions", len(sessions))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
