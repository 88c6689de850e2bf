// Cleanup runner for the E2E test user.
//
// Signs in as TEST_USER_EMAIL through the backend REST API and deletes every
// job application that user owns, the same way the suite does after each
// authenticated test. Useful after an aborted run left rows behind.
//
// Usage:
//
//	go run ./cmd/purge
//	go run ./cmd/purge -env-file .env.test -timeout 10s
//
// Exits 2 when the test user or the backend settings are not configured.
// Cleanup failures are logged and do not change the exit status.
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

	"github.com/jobtracker/e2e/internal/config"
	"github.com/jobtracker/e2e/internal/fixture"
)

func main() {
	envFile := flag.String("env-file", config.DefaultEnvFile, "dotenv file to load before reading the environment")
	timeout := flag.Duration("timeout", 30*time.Second, "Timeout for each backend request")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logCfg := zap.NewDevelopmentConfig()
	if !*verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	os.Exit(run(logger, *envFile, *timeout))
}

func run(logger *zap.Logger, envFile string, timeout time.Duration) int {
	cfg, err := config.Load(envFile)
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return 2
	}
	if !cfg.Credentials.Complete() || !cfg.Store.Complete() {
		logger.Error("Missing configuration",
			zap.Strings("required", []string{
				config.EnvUserEmail, config.EnvUserPassword,
				config.EnvStoreURL, config.EnvStoreKey,
			}))
		return 2
	}

	// Set up graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res := fixture.NewCleaner(cfg.Store, cfg.Credentials, logger).
		WithTimeout(timeout).
		Run(ctx)

	if res.Err != nil {
		logger.Warn("Cleanup did not complete", zap.Error(res.Err))
		return 0
	}
	logger.Info("Cleanup finished",
		zap.String("user_id", res.UserID),
		zap.Int("deleted", res.Deleted))
	return 0
}
