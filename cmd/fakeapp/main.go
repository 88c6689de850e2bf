// Job tracker stand-in server
//
// This server serves the job tracker UI and the backend REST endpoints the
// E2E suite and the cleanup CLI talk to, backed by an SQLite database.
//
// Usage:
//
//	go run ./cmd/fakeapp -addr :3000
//	go run ./cmd/fakeapp -db jobs.db -instrument
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jobtracker/e2e/cmd/fakeapp/server"
)

func main() {
	addr := flag.String("addr", ":3000", "Listen address")
	db := flag.String("db", ":memory:", "SQLite database path")
	anonKey := flag.String("anon-key", server.DefaultAnonKey, "API key required by /auth/v1 and /rest/v1")
	instrument := flag.Bool("instrument", false, "Expose window.__coverage__ on app pages")
	debug := flag.Bool("debug", false, "Log every request")
	flag.Parse()

	logCfg := zap.NewDevelopmentConfig()
	if !*debug {
		logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := server.DefaultConfig()
	cfg.Addr = *addr
	cfg.DBPath = *db
	cfg.AnonKey = *anonKey
	cfg.Instrument = *instrument
	cfg.Logger = logger

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	if _, err := srv.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	fmt.Printf(`
Job Tracker Stand-in
====================
App:       %s
Sign in:   %s / %s

Environment for the E2E suite:
  BASE_URL=%[1]s
  NEXT_PUBLIC_SUPABASE_URL=%[1]s
  NEXT_PUBLIC_SUPABASE_ANON_KEY=%[4]s
  TEST_USER_EMAIL=%[2]s
  TEST_USER_PASSWORD=%[3]s
`, srv.URL(), server.DefaultUserEmail, server.DefaultUserPassword, cfg.AnonKey)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.Stringer("signal", sig))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}
