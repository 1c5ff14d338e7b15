// Package config loads service configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures service level configuration.
type Server struct {
	Addr string

	// DatabaseURL selects the Postgres-backed attendee and session stores
	// when set; empty means in-memory stores with the demo seed.
	DatabaseURL string

	// RedisURL selects the Redis capacity ledger when set; empty means the
	// in-memory ledger.
	RedisURL string

	// StoreTimeout bounds each call to the attendee store.
	StoreTimeout time.Duration

	// ConflictRetries is the optimistic-write retry budget per check-in.
	ConflictRetries int
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("ACREDITA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	storeTimeout := 3 * time.Second
	if raw := os.Getenv("ACREDITA_STORE_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			storeTimeout = d
		}
	}

	conflictRetries := 3
	if raw := os.Getenv("ACREDITA_CONFLICT_RETRIES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			conflictRetries = n
		}
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		StoreTimeout:    storeTimeout,
		ConflictRetries: conflictRetries,
	}
}
